package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/coffer/internal/utils"
)

// ConfigFileName is the file looked for in the working directory and its
// parents.
const ConfigFileName = "coffer.toml"

// EnvConfigPath overrides config file discovery.
const EnvConfigPath = "COFFER_CONFIG"

// DefaultDataDir returns $XDG_DATA_HOME/coffer, falling back to
// ~/.local/share/coffer.
func DefaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "coffer"), nil
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting config directory: %w", err)
	}
	return filepath.Join(configDir, "coffer", ConfigFileName), nil
}

// ResolvePath picks the config file to use: an explicit path first, then
// $COFFER_CONFIG, then the nearest coffer.toml above the working directory,
// then the per-user default. The returned file need not exist.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}

	found, err := utils.FindConfigFile(ConfigFileName)
	if err != nil {
		return "", err
	}
	if found != "" {
		return found, nil
	}
	return DefaultConfigPath()
}
