package cmd

import (
	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	getCmd.Flags().BoolVar(&revealSecrets, "reveal", false, "show sensitive fields in full")
}

var getCmd = &cobra.Command{
	Use:   "get <module> <id>",
	Short: "Show one record",
	Long: `Shows every field of one record. Sensitive fields such as password, pin
and cvv are masked unless --reveal is passed.

Examples:
  coffer get passwords 3f2a...
  coffer get passwords 3f2a... --reveal`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, id := utils.SanitizeModuleName(args[0]), args[1]
		Logger.Infof("Starting get command for %s in %s", id, module)

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Loading record...", verbose)
		defer cleanup()

		rec, ok, err := v.Store.GetRecord(cmd.Context(), module, id)
		if err != nil {
			return fail(spinner, err, "failed to load record")
		}
		if !ok {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No record " + ui.ID.Sprint(id) + " in " + ui.Highlight.Sprint(module)
			return nil
		}

		spinner.FinalMSG = formatRecord(rec, revealSecrets)
		return nil
	},
}
