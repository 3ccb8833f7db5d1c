package cmd

import (
	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <module> <id>",
	Short: "Delete one record",
	Long: `Deletes a record from a module. Deleting an id that does not exist
changes nothing.

Examples:
  coffer delete notes 3f2a...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, id := utils.SanitizeModuleName(args[0]), args[1]
		Logger.Infof("Starting delete command for %s in %s", id, module)

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Deleting record...", verbose)
		defer cleanup()

		_, existed, err := v.Store.GetRecord(cmd.Context(), module, id)
		if err != nil {
			return fail(spinner, err, "failed to load record")
		}
		if err := v.Store.DeleteRecord(cmd.Context(), module, id); err != nil {
			return fail(spinner, err, "failed to delete record")
		}

		if !existed {
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " No record " + ui.ID.Sprint(id) + " in " + ui.Highlight.Sprint(module) + ", nothing deleted"
			return nil
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Deleted " + ui.ID.Sprint(id) + " from " + ui.Highlight.Sprint(module)
		return nil
	},
}
