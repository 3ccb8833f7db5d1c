package cmd

import (
	"github.com/PolarWolf314/coffer/internal/configs"
	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	initBackend     string
	initDataDir     string
	initIdleTimeout string
	initPlaintext   bool
	initForce       bool
)

func init() {
	initCmd.Flags().StringVar(&initBackend, "backend", "", "storage backend: file, bolt, redis, firestore or memory (default: file)")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "directory for the file and bolt backends (default: $XDG_DATA_HOME/coffer)")
	initCmd.Flags().StringVar(&initIdleTimeout, "idle-timeout", "", "lock the vault after this much inactivity (default: 15m)")
	initCmd.Flags().BoolVar(&initPlaintext, "plaintext", false, "store records without encryption")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

// resetInitCommandState resets the init command's global state for testing.
func resetInitCommandState() {
	initBackend = ""
	initDataDir = ""
	initIdleTimeout = ""
	initPlaintext = false
	initForce = false
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the coffer config file",
	Long: `Writes coffer.toml with a newly generated installation salt and creates
the data directory.

The installation salt feeds every derived key. Re-running init with --force
generates a new salt, after which existing records no longer decrypt.

Examples:
  coffer init
  coffer init --backend bolt --idle-timeout 5m
  coffer init --config ./coffer.toml --data-dir ./vault`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Initializing coffer...", verbose)
		defer cleanup()

		path := configPath
		if path == "" {
			var err error
			path, err = configs.DefaultConfigPath()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to determine config path: %v", err)
			}
		}
		Logger.Debugf("Writing config to %s", path)

		result, err := workflows.Init(cmd.Context(), workflows.InitOptions{
			ConfigPath:  path,
			Backend:     initBackend,
			DataDir:     initDataDir,
			IdleTimeout: initIdleTimeout,
			Plaintext:   initPlaintext,
			Force:       initForce,
		})
		if err != nil {
			if msg, ok := userFacingError(err); ok {
				spinner.FinalMSG = msg + "\n" +
					ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--force") + " to overwrite it"
				return nil
			}
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}

		finalMessage := ui.Success.Sprint("✓") + " Wrote " + ui.Path.Sprint(result.ConfigPath) + "\n" +
			ui.KeyValue(2, "backend", result.Backend) + "\n" +
			ui.KeyValue(2, "data dir", result.DataDir) + "\n"
		if !result.Encrypted {
			finalMessage += ui.Warning.Sprint("⚠") + " Records will be stored without encryption\n"
		}
		finalMessage += ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("coffer register --email you@example.com") + " to create an account"

		spinner.FinalMSG = finalMessage
		return nil
	},
}
