package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	searchCmd.Flags().StringArrayVar(&searchFields, "field", nil, "limit the search to a field (repeatable, default: every text field)")
}

var searchCmd = &cobra.Command{
	Use:   "search <module> <query>",
	Short: "Find records containing text",
	Long: `Finds records where a text field contains the query, ignoring case.

Without --field every text field and the id are searched.

Examples:
  coffer search notes grocer
  coffer search passwords mail --field service --field username`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, query := utils.SanitizeModuleName(args[0]), args[1]
		Logger.Infof("Starting search command for %q in %s", query, module)

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Searching...", verbose)
		defer cleanup()

		matches, err := v.Store.SearchRecords(cmd.Context(), module, query, searchFields)
		if err != nil {
			return fail(spinner, err, "failed to search")
		}

		if len(matches) == 0 {
			spinner.FinalMSG = ui.Muted.Sprint(fmt.Sprintf("no matches for %q in %s", query, module))
			return nil
		}

		msg := ""
		for _, rec := range matches {
			msg += formatRecordLine(rec) + "\n"
		}
		msg += ui.Muted.Sprint(fmt.Sprintf("%d match(es)", len(matches)))
		spinner.FinalMSG = msg
		return nil
	},
}
