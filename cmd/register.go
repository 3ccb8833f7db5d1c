package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/coffer/internal/crypto"
	"github.com/PolarWolf314/coffer/internal/ui"

	"github.com/spf13/cobra"
)

var (
	registerEmail string
	registerName  string
)

func init() {
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "email address of the new principal")
	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "display name (default: the part of the email before @)")
	_ = registerCmd.MarkFlagRequired("email")
}

// resetRegisterCommandState resets the register command's global state for testing.
func resetRegisterCommandState() {
	registerEmail = ""
	registerName = ""
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a principal that can unlock the vault",
	Long: `Registers a new principal. The passphrase is asked for twice unless
COFFER_PASSPHRASE is set, and must not score weak.

Examples:
  coffer register --email alice@example.com
  coffer register --email alice@example.com --name "Alice Smith"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting register command for %s", registerEmail)

		v, closeVault, err := openVault(cmd.Context())
		if err != nil {
			return fail(nil, err, "failed to open vault")
		}
		defer closeVault()

		passphrase, err := readNewPassphrase()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read passphrase: %v", err)
		}

		spinner, cleanup := startSpinner("Registering principal...", verbose)
		defer cleanup()

		p, err := v.Registry.Register(cmd.Context(), registerEmail, registerName, passphrase)
		if err != nil {
			return fail(spinner, err, "failed to register")
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Registered " + ui.Highlight.Sprint(p.Email) + " " + ui.ID.Sprint(p.ID) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("coffer add notes -f title=Hello") + " to add a first record"
		return nil
	},
}

// readNewPassphrase reads a passphrase from the environment, or prompts for
// it twice and shows its strength.
func readNewPassphrase() (string, error) {
	if value, ok := os.LookupEnv(envPassphrase); ok {
		return value, nil
	}

	first, err := readPassphrase(envPassphrase, "New passphrase: ")
	if err != nil {
		return "", err
	}
	strength := crypto.ScorePassphraseStrength(first)
	fmt.Fprintln(os.Stderr, "Strength: "+formatStrength(strength))

	second, err := readPassphrase(envPassphrase, "Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

func formatStrength(s crypto.Strength) string {
	label := fmt.Sprintf("%s (%d/6)", s.Category, s.Score)
	switch s.Category {
	case crypto.Strong:
		label = ui.Success.Sprint(label)
	case crypto.Medium:
		label = ui.Warning.Sprint(label)
	default:
		label = ui.Error.Sprint(label)
	}
	if len(s.Feedback) > 0 {
		label += "\n  " + strings.Join(s.Feedback, "\n  ")
	}
	return label
}
