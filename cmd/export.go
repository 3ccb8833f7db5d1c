package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/PolarWolf314/coffer/internal/records"
	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	exportOutputPath string
	exportModules    []string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "output path for the document, - for stdout (default: coffer-export-YYYY-MM-DD.json)")
	exportCmd.Flags().StringArrayVarP(&exportModules, "module", "m", nil, "module to export (repeatable, default: every known module)")
}

// resetExportCommandState resets the export command's global state for testing.
func resetExportCommandState() {
	exportOutputPath = ""
	exportModules = nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records to a JSON backup document",
	Long: `Writes the unlocked principal's records to a JSON document.

The document holds decrypted records. It is written with owner-only
permissions; keep it somewhere safe.

Examples:
  # Export every module to the default filename
  coffer export

  # Export two modules to a custom path
  coffer export -o backup.json -m notes -m todos

  # Write to stdout
  coffer export -o -`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		if exportOutputPath == "-" {
			doc, err := workflows.BuildExport(cmd.Context(), v.Store, workflows.ExportOptions{Modules: exportModules})
			if err != nil {
				return fail(nil, err, "failed to export")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}

		spinner, cleanup := startSpinner("Exporting records...", verbose)
		defer cleanup()

		result, err := workflows.Export(cmd.Context(), v.Store, workflows.ExportOptions{
			OutputPath: exportOutputPath,
			Modules:    exportModules,
		})
		if err != nil {
			return fail(spinner, err, "failed to export")
		}
		Logger.Infof("Export written to %s", result.OutputPath)

		modules := make([]string, 0, len(result.Counts))
		for m := range result.Counts {
			modules = append(modules, m)
		}
		slices.Sort(modules)

		finalMessage := ui.Success.Sprint("✓") + " Exported " + fmt.Sprintf("%d", result.TotalRecords) + " record(s) to " + ui.Path.Sprint(result.OutputPath) + "\n\n"
		for _, m := range modules {
			finalMessage += ui.KeyValue(2, fmt.Sprintf("%-10s", m), fmt.Sprintf("%d", result.Counts[m])) + "\n"
		}
		finalMessage += "\n" + ui.Warning.Sprint("Note:") + " The document is not encrypted."
		if len(exportModules) == 0 {
			Logger.Debugf("Exported default modules: %v", records.KnownModules)
		}

		spinner.FinalMSG = finalMessage
		return nil
	},
}
