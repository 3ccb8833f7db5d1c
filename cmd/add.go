package cmd

import (
	"github.com/PolarWolf314/coffer/internal/records"
	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	addCmd.Flags().StringArrayVarP(&fieldAssignments, "field", "f", nil, "field assignment, key=value for text or key:=json for other values (repeatable)")
}

var addCmd = &cobra.Command{
	Use:   "add <module>",
	Short: "Add a record to a module",
	Long: `Adds a record to a module collection. The record gets a fresh id.

Modules shipped with coffer are notes, banking, passwords, documents,
creative, todos, folders and cards. Any lowercase name works.

Examples:
  # Add a note
  coffer add notes -f title=Groceries -f body="eggs, milk"

  # Add a to-do with a boolean field
  coffer add todos -f title="Call bank" -f completed:=false

  # Add a password entry
  coffer add passwords -f service=mail -f username=alice -f password=hunter2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module := utils.SanitizeModuleName(args[0])
		Logger.Infof("Starting add command for module %s", module)

		fields, err := utils.ParseFields(fieldAssignments)
		if err != nil {
			return Logger.ErrorfAndReturn("invalid fields: %v", err)
		}

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Saving record...", verbose)
		defer cleanup()

		saved, err := v.Store.SaveRecord(cmd.Context(), module, records.New(fields))
		if err != nil {
			return fail(spinner, err, "failed to save record")
		}
		Logger.Infof("Saved record %s in %s", saved.ID, module)

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Added " + ui.ID.Sprint(saved.ID) + " to " + ui.Highlight.Sprint(module)
		return nil
	},
}
