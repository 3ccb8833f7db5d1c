package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/ui"

	"github.com/spf13/cobra"
)

var purgeConfirmed bool

func init() {
	purgeCmd.Flags().BoolVar(&purgeConfirmed, "yes", false, "confirm deleting every record")
}

// resetPurgeCommandState resets the purge command's global state for testing.
func resetPurgeCommandState() {
	purgeConfirmed = false
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every record of the unlocked principal",
	Long: `Deletes every module collection of the unlocked principal. The account
itself stays registered.

This cannot be undone. Run 'coffer export' first if you may need the data.

Examples:
  coffer purge --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !purgeConfirmed {
			fmt.Println(ui.Warning.Sprint("⚠") + " This deletes every record in the vault\n" +
				ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--yes") + " to confirm")
			return nil
		}
		Logger.Infof("Starting purge command")

		v, p, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Purging vault...", verbose)
		defer cleanup()

		if err := v.Store.PurgeAll(cmd.Context()); err != nil {
			return fail(spinner, err, "failed to purge")
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Deleted every record of " + ui.Highlight.Sprint(p.Email)
		return nil
	},
}
