package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"
	"github.com/PolarWolf314/coffer/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	importReplace bool
	importDryRun  bool
)

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "empty each imported module before importing")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "show what would be imported without changing anything")
}

// resetImportCommandState resets the import command's global state for testing.
func resetImportCommandState() {
	importReplace = false
	importDryRun = false
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import records from a JSON backup document",
	Long: `Imports an export document into the unlocked principal's vault.

By default records are merged: a record whose id already exists is
updated, every other record is added with a fresh id. With --replace each
module in the document is emptied first. Pass - to read from stdin.

Examples:
  coffer import backup.json --dry-run
  coffer import backup.json --replace
  cat backup.json | coffer import -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := workflows.ImportOptions{DryRun: importDryRun}
		if importReplace {
			opts.Mode = workflows.ImportModeReplace
		}

		if args[0] == "-" {
			data, err := utils.ReadStdin()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read stdin: %v", err)
			}
			opts.Data = data
		} else {
			opts.ArchivePath = args[0]
			pre, err := workflows.ImportPreCheck(cmd.Context(), args[0])
			if err != nil {
				return fail(nil, err, "failed to read export")
			}
			Logger.Infof("Document has %d record(s) from %s", pre.TotalRecords, pre.Document.PrincipalID)
		}
		Logger.Infof("Starting import command in %s mode (dry-run=%t)", opts.Mode, opts.DryRun)

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Importing records...", verbose)
		defer cleanup()

		result, err := workflows.Import(cmd.Context(), v.Store, opts)
		if err != nil {
			return fail(spinner, err, "failed to import")
		}

		verb := "Imported"
		if result.DryRun {
			verb = "Would import"
		}
		finalMessage := ui.Success.Sprint("✓") + fmt.Sprintf(" %s %d record(s) (%s)\n", verb, result.TotalRecords, result.Mode)
		finalMessage += ui.KeyValue(2, "updated", fmt.Sprintf("%d", result.Updated)) + "\n"
		finalMessage += ui.KeyValue(2, "new ids", fmt.Sprintf("%d", result.Reassigned)) + "\n"
		if result.Mode == workflows.ImportModeReplace {
			finalMessage += ui.KeyValue(2, "removed", fmt.Sprintf("%d", result.Removed)) + "\n"
		}
		if result.DryRun {
			finalMessage += ui.Info.Sprint("→") + " Run without " + ui.Flag.Sprint("--dry-run") + " to apply"
		}

		spinner.FinalMSG = finalMessage
		return nil
	},
}
