package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/PolarWolf314/coffer/internal/configs"
	"github.com/PolarWolf314/coffer/internal/crypto"
	"github.com/PolarWolf314/coffer/internal/storage"

	"go.uber.org/zap"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// ConfigPath is the resolved config file path.
	ConfigPath string

	Logger *zap.Logger
}

// Doctor runs health checks on the local installation.
//
// The doctor workflow checks:
//   - Config file presence, validity and permissions
//   - Installation salt and Argon2 parameters
//   - Encryption at rest
//   - Data directory presence and permissions
//   - Backend reachability and registered principals
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	var results []CheckResult

	cfg, configCheck := checkConfigFile(opts.ConfigPath)
	results = append(results, configCheck)

	if cfg != nil {
		results = append(results,
			checkConfigPermissions(opts.ConfigPath),
			checkCryptoParams(cfg),
			checkEncryption(cfg),
			checkDataDir(cfg),
			checkBackend(ctx, cfg, opts.Logger),
		)
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

// checkConfigFile loads the config. A missing file passes with a warning
// since defaults apply.
func checkConfigFile(path string) (*configs.Config, CheckResult) {
	const name = "Configuration"

	_, statErr := os.Stat(path)
	cfg, err := configs.Load(path)
	if err != nil {
		return nil, CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to load config: %v", err),
			Suggestion: fmt.Sprintf("Check %s for syntax errors or run 'coffer init --force'", path),
		}
	}

	if errors.Is(statErr, fs.ErrNotExist) {
		return cfg, CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'coffer init' to create a config with its own installation salt",
		}
	}

	return cfg, CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("Config loaded from %s", path),
	}
}

func checkConfigPermissions(path string) CheckResult {
	const name = "Config permissions"

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{Name: name, Status: CheckPass, Message: "No config file (skipping permissions check)"}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to stat config: %v", err),
			Suggestion: "Check that the config file is accessible",
		}
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Config has insecure permissions (%04o)", mode),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s' to fix permissions", path),
		}
	}

	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("Config has correct permissions (%04o)", mode)}
}

func checkCryptoParams(cfg *configs.Config) CheckResult {
	const name = "Key derivation"

	defaults := crypto.DefaultParams()
	params := cfg.CryptoParams()

	if params.Salt == defaults.Salt {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "Using the built-in installation salt",
			Suggestion: "Run 'coffer init' to generate a unique installation salt",
		}
	}
	if params.Time < defaults.Time || params.Memory < defaults.Memory {
		return CheckResult{
			Name:   name,
			Status: CheckWarning,
			Message: fmt.Sprintf("Argon2 parameters are below the defaults (t=%d, m=%d KiB)",
				params.Time, params.Memory),
			Suggestion: fmt.Sprintf("Raise crypto.argon2_time to %d and crypto.argon2_memory_kib to %d",
				defaults.Time, defaults.Memory),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("Argon2id t=%d m=%d KiB p=%d", params.Time, params.Memory, params.Threads),
	}
}

func checkEncryption(cfg *configs.Config) CheckResult {
	const name = "Encryption at rest"

	if !cfg.Crypto.Encrypt {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "Records are stored as plaintext JSON",
			Suggestion: "Set crypto.encrypt = true in the config",
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "Records are encrypted with the session key"}
}

func checkDataDir(cfg *configs.Config) CheckResult {
	const name = "Data directory"

	if cfg.Storage.Backend != storage.BackendFile && cfg.Storage.Backend != storage.BackendBolt {
		return CheckResult{
			Name:    name,
			Status:  CheckPass,
			Message: fmt.Sprintf("Not used by the %s backend", cfg.Storage.Backend),
		}
	}

	dir := cfg.Storage.DataDir
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Data directory %s does not exist yet", dir),
			Suggestion: "Run 'coffer init' to create the data directory",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to stat data directory: %v", err),
			Suggestion: "Check that the data directory is accessible",
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s is not a directory", dir),
			Suggestion: "Point storage.data_dir at a directory",
		}
	}

	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Data directory has insecure permissions (%04o)", mode),
			Suggestion: fmt.Sprintf("Run 'chmod 700 %s' to fix permissions", dir),
		}
	}

	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("Data directory %s", dir)}
}

func checkBackend(ctx context.Context, cfg *configs.Config, log *zap.Logger) CheckResult {
	const name = "Storage backend"

	if cfg.Storage.Backend == storage.BackendMemory {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "Memory backend keeps nothing between runs",
			Suggestion: "Set storage.backend to file, bolt, redis or firestore",
		}
	}

	vault, err := OpenVault(ctx, cfg, log)
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Cannot open %s backend: %v", cfg.Storage.Backend, err),
			Suggestion: "Check the backend settings in the config",
		}
	}
	defer vault.Close()

	list, err := vault.Registry.List(ctx)
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Cannot read principals: %v", err),
			Suggestion: "Check that the backend is reachable",
		}
	}
	if len(list) == 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s backend reachable, no principals registered", cfg.Storage.Backend),
			Suggestion: "Run 'coffer register --email you@example.com' to create an account",
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("%s backend reachable, %d principal(s) registered", cfg.Storage.Backend, len(list)),
	}
}

// calculateDoctorSummary calculates the counts of checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
