package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/crypto"

	"github.com/spf13/cobra"
)

var strengthCmd = &cobra.Command{
	Use:   "strength [passphrase]",
	Short: "Score the strength of a passphrase",
	Long: `Scores a passphrase from 0 to 6 and lists what would improve it.

Without an argument the passphrase is read from COFFER_PASSPHRASE or
prompted for without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var passphrase string
		if len(args) == 1 {
			passphrase = args[0]
		} else {
			var err error
			passphrase, err = readPassphrase(envPassphrase, "Passphrase to score: ")
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read passphrase: %v", err)
			}
		}

		fmt.Println("Strength: " + formatStrength(crypto.ScorePassphraseStrength(passphrase)))
		return nil
	},
}
