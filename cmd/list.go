package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/records"
	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	listCmd.Flags().StringVar(&sortField, "sort", records.KeyModified, "field to sort by")
	listCmd.Flags().BoolVar(&sortDescending, "desc", false, "sort in descending order")
}

var listCmd = &cobra.Command{
	Use:   "list <module>",
	Short: "List the records of a module",
	Long: `Lists every record of a module, one per line, sorted by a field.

Records missing the sort field are listed last.

Examples:
  coffer list notes
  coffer list todos --sort title
  coffer list passwords --sort created --desc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module := utils.SanitizeModuleName(args[0])
		Logger.Infof("Starting list command for module %s", module)

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Loading records...", verbose)
		defer cleanup()

		collection, err := v.Store.LoadCollection(cmd.Context(), module)
		if err != nil {
			return fail(spinner, err, "failed to load collection")
		}
		Logger.Debugf("Loaded %d records from %s", len(collection), module)

		if len(collection) == 0 {
			spinner.FinalMSG = ui.Muted.Sprint(fmt.Sprintf("no records in %s", module))
			return nil
		}

		msg := ""
		for _, rec := range records.SortRecords(collection, sortField, sortDescending) {
			msg += formatRecordLine(rec) + "\n"
		}
		msg += ui.Muted.Sprint(fmt.Sprintf("%d record(s)", len(collection)))
		spinner.FinalMSG = msg
		return nil
	},
}
