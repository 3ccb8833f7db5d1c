package cmd

import (
	"strings"

	logger "github.com/PolarWolf314/coffer/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose       bool
	debug         bool
	configPath    string
	principalFlag string
	Logger        logger.Logger

	RootCmd = &cobra.Command{
		Use:   "coffer",
		Short: "Coffer - a personal vault for notes, passwords, banking details and more.",
		Long: `Coffer keeps notes, bank accounts, passwords, documents, creative projects
and to-do items in per-module collections that are encrypted at rest.

Every command that touches records unlocks the vault first. The passphrase
is read from COFFER_PASSPHRASE or prompted for without echo.

Usage:
  coffer <command> [flags]

Run 'coffer help <command>' for more details on a specific command.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
		},
	}
)

// normalizeFlagName accepts --data_dir and friends as --data-dir.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	RootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to coffer.toml (default: $COFFER_CONFIG or the nearest coffer.toml)")
	RootCmd.PersistentFlags().StringVarP(&principalFlag, "principal", "p", "", "email or id of the principal to unlock as (default: $COFFER_PRINCIPAL)")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(registerCmd)
	RootCmd.AddCommand(addCmd)
	RootCmd.AddCommand(editCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(strengthCmd)
	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(purgeCmd)
	RootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// Helper functions for testing

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	configPath = ""
	principalFlag = ""
	resetInitCommandState()
	resetRegisterCommandState()
	resetRecordCommandState()
	resetExportCommandState()
	resetImportCommandState()
	resetGenerateCommandState()
	resetPurgeCommandState()
	resetDoctorCommandState()
}
