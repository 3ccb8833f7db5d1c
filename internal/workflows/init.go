package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/coffer/internal/configs"
	"github.com/PolarWolf314/coffer/internal/crypto"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/storage"
	"github.com/PolarWolf314/coffer/internal/utils"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// ConfigPath is where coffer.toml is written.
	ConfigPath string

	// Backend is the storage backend name. If empty, the file backend is used.
	Backend string

	// DataDir overrides the default data directory.
	DataDir string

	// IdleTimeout is a duration string such as "10m". If empty, the default applies.
	IdleTimeout string

	// Plaintext disables encryption at rest.
	Plaintext bool

	// Force overwrites an existing config file.
	Force bool
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	ConfigPath string
	DataDir    string
	Backend    string
	Encrypted  bool
}

// Init writes a fresh coffer.toml with a newly generated installation salt
// and creates the data directory for local backends.
//
// Returns ErrAlreadyInitialized if the config file exists and Force is unset.
// Returns ErrInvalidConfig if the options produce an invalid config.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("%w: config path must be set", cerrors.ErrInvalidConfig)
	}
	if utils.FileExists(opts.ConfigPath) && !opts.Force {
		return nil, fmt.Errorf("%w: %s", cerrors.ErrAlreadyInitialized, opts.ConfigPath)
	}

	cfg, err := configs.Default()
	if err != nil {
		return nil, err
	}
	if opts.Backend != "" {
		cfg.Storage.Backend = opts.Backend
	}
	if opts.DataDir != "" {
		cfg.Storage.DataDir = opts.DataDir
	}
	if opts.IdleTimeout != "" {
		cfg.Session.IdleTimeout = opts.IdleTimeout
	}
	cfg.Crypto.Encrypt = !opts.Plaintext

	salt, err := crypto.GenerateID()
	if err != nil {
		return nil, err
	}
	cfg.Crypto.InstallSalt = salt

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Backend == storage.BackendFile || cfg.Storage.Backend == storage.BackendBolt {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	if err := configs.Save(opts.ConfigPath, cfg); err != nil {
		return nil, err
	}

	return &InitResult{
		ConfigPath: opts.ConfigPath,
		DataDir:    cfg.Storage.DataDir,
		Backend:    cfg.Storage.Backend,
		Encrypted:  cfg.Crypto.Encrypt,
	}, nil
}
