package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	editCmd.Flags().StringArrayVarP(&fieldAssignments, "field", "f", nil, "field assignment, key=value for text or key:=json for other values (repeatable)")
	editCmd.Flags().StringArrayVar(&unsetFields, "unset", nil, "remove a field (repeatable)")
}

var editCmd = &cobra.Command{
	Use:   "edit <module> <id>",
	Short: "Change fields of an existing record",
	Long: `Updates fields of an existing record in place. Fields not named keep their
values. The record keeps its id and creation time.

Examples:
  # Mark a to-do done
  coffer edit todos 3f2a... -f completed:=true

  # Rename a note and drop its tags
  coffer edit notes 3f2a... -f title="Weekly shop" --unset tags`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, id := utils.SanitizeModuleName(args[0]), args[1]
		Logger.Infof("Starting edit command for %s in %s", id, module)

		changes, err := utils.ParseFields(fieldAssignments)
		if err != nil {
			return Logger.ErrorfAndReturn("invalid fields: %v", err)
		}
		if len(changes) == 0 && len(unsetFields) == 0 {
			fmt.Println(ui.Warning.Sprint("⚠") + " Nothing to change\n" +
				ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("-f key=value") + " or " + ui.Flag.Sprint("--unset key"))
			return nil
		}

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Updating record...", verbose)
		defer cleanup()

		rec, ok, err := v.Store.GetRecord(cmd.Context(), module, id)
		if err != nil {
			return fail(spinner, err, "failed to load record")
		}
		if !ok {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No record " + ui.ID.Sprint(id) + " in " + ui.Highlight.Sprint(module)
			return nil
		}

		if rec.Fields == nil {
			rec.Fields = make(map[string]any, len(changes))
		}
		for k, val := range changes {
			rec.Fields[k] = val
		}
		for _, k := range unsetFields {
			delete(rec.Fields, k)
		}

		saved, err := v.Store.SaveRecord(cmd.Context(), module, rec)
		if err != nil {
			return fail(spinner, err, "failed to save record")
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Updated " + ui.ID.Sprint(saved.ID) + " in " + ui.Highlight.Sprint(module)
		return nil
	},
}
