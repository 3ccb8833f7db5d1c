package cmd

import (
	"fmt"
	"time"

	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/workflows"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [module...]",
	Short: "Show the session and the size of each module",
	Long: `Unlocks the vault and shows the backend, the session deadline and the
number of records in each module. Extra module names are reported too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		v, _, closeVault, err := openUnlockedVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to unlock vault")
		}
		defer closeVault()

		spinner, cleanup := startSpinner("Reading vault...", verbose)
		defer cleanup()

		result, err := workflows.Status(cmd.Context(), v, workflows.StatusOptions{Extra: args})
		if err != nil {
			return fail(spinner, err, "failed to read status")
		}

		encryption := ui.Success.Sprint("on")
		if !result.Encrypted {
			encryption = ui.Warning.Sprint("off")
		}

		msg := ui.Highlight.Sprint(result.Principal.Email) + " " + ui.ID.Sprint(result.Principal.ID) + "\n" +
			ui.KeyValue(2, "state", result.State.String()) + "\n" +
			ui.KeyValue(2, "locks at", result.Deadline.Local().Format(time.DateTime)) + "\n" +
			ui.KeyValue(2, "backend", result.Backend) + "\n" +
			ui.KeyValue(2, "encryption", encryption) + "\n\n"

		for _, m := range result.Modules {
			line := fmt.Sprintf("%-10s %4d", m.Module, m.Records)
			if !m.Modified.IsZero() {
				line += " " + ui.Muted.Sprint("last change "+m.Modified.Local().Format(time.DateTime))
			}
			msg += "  " + line + "\n"
		}
		msg += ui.Muted.Sprint(fmt.Sprintf("%d record(s) in total", result.Total))

		spinner.FinalMSG = msg
		return nil
	},
}
