package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/workflows"

	"github.com/spf13/cobra"
)

var doctorJSON bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output results as JSON")
}

// resetDoctorCommandState resets the doctor command's global state for testing.
func resetDoctorCommandState() {
	doctorJSON = false
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the installation for problems",
	Long: `Runs health checks on the config file, key derivation settings, data
directory and storage backend, and suggests fixes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve config path: %v", err)
		}

		result, err := workflows.Doctor(cmd.Context(), workflows.DoctorOptions{
			ConfigPath: path,
			Logger:     Logger.Zap(),
		})
		if err != nil {
			return Logger.ErrorfAndReturn("doctor failed: %v", err)
		}

		if doctorJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Println("Running health checks...")
		fmt.Println()
		for _, check := range result.Checks {
			symbol := ui.Success.Sprint("✓")
			switch check.Status {
			case workflows.CheckWarning:
				symbol = ui.Warning.Sprint("⚠")
			case workflows.CheckError:
				symbol = ui.Error.Sprint("✗")
			}
			fmt.Printf("%s %s: %s\n", symbol, check.Name, check.Message)
		}

		fmt.Println()
		fmt.Printf("Summary: %d passed, %d warning(s), %d error(s)\n",
			result.Summary.Passed, result.Summary.Warnings, result.Summary.Errors)

		if len(result.Suggestions) > 0 {
			fmt.Println()
			fmt.Println("Suggestions:")
			for _, s := range result.Suggestions {
				fmt.Println("  " + ui.Info.Sprint("→") + " " + s)
			}
		}
		return nil
	},
}
