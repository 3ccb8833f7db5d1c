package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/records"
	"github.com/PolarWolf314/coffer/internal/ui"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count records per module",
	Long: `Counts the records of the six primary modules. To-dos only count while
they are not completed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting stats command")

		v, p, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Counting records...", verbose)
		defer cleanup()

		stats, err := v.Store.ComputeStats(cmd.Context())
		if err != nil {
			return fail(spinner, err, "failed to compute stats")
		}

		msg := "Vault of " + ui.Highlight.Sprint(p.Email) + "\n"
		for _, module := range records.PrimaryModules {
			label := module
			if module == records.ModuleTodos {
				label = "todos (open)"
			}
			msg += ui.KeyValue(2, ui.Field.Sprint(fmt.Sprintf("%-12s", label)), fmt.Sprintf("%d", stats[module])) + "\n"
		}
		spinner.FinalMSG = msg
		return nil
	},
}
