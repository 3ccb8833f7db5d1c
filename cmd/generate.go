package cmd

import (
	"fmt"

	"github.com/PolarWolf314/coffer/internal/crypto"

	"github.com/spf13/cobra"
)

var generateLength int

func init() {
	generateCmd.Flags().IntVarP(&generateLength, "length", "l", 20, "password length (at least 12)")
}

// resetGenerateCommandState resets the generate command's global state for testing.
func resetGenerateCommandState() {
	generateLength = 20
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random password",
	Long: `Generates a password with lowercase, uppercase, digit and symbol
characters, at least one of each.

Examples:
  coffer generate
  coffer generate --length 32`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := crypto.GeneratePassword(generateLength)
		if err != nil {
			return fail(nil, err, "failed to generate password")
		}
		fmt.Println(password)
		return nil
	},
}
