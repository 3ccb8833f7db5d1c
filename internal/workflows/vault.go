package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/coffer/internal/configs"
	"github.com/PolarWolf314/coffer/internal/crypto"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/principals"
	"github.com/PolarWolf314/coffer/internal/records"
	"github.com/PolarWolf314/coffer/internal/session"
	"github.com/PolarWolf314/coffer/internal/storage"

	"go.uber.org/zap"
)

// Vault bundles the components a command needs, wired from one Config.
type Vault struct {
	Config   *configs.Config
	Backend  storage.Backend
	Engine   *crypto.Engine
	Registry *principals.Registry
	Guard    *session.Guard
	Store    *records.Store
	Logger   *zap.Logger
}

// OpenVault builds every component from cfg. The caller must Close the vault.
func OpenVault(ctx context.Context, cfg *configs.Config, log *zap.Logger) (*Vault, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := crypto.NewEngine(cfg.CryptoParams())
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg.StorageOptions(log.Named("storage")))
	if err != nil {
		return nil, err
	}

	v, err := assemble(cfg, backend, engine, log)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return v, nil
}

func assemble(cfg *configs.Config, backend storage.Backend, engine *crypto.Engine, log *zap.Logger) (*Vault, error) {
	registry, err := principals.NewRegistry(backend, engine, principals.Options{Logger: log.Named("principals")})
	if err != nil {
		return nil, err
	}

	idle, err := cfg.IdleTimeout()
	if err != nil {
		return nil, err
	}
	guard, err := session.New(registry, engine, session.Options{
		IdleTimeout: idle,
		Logger:      log.Named("session"),
	})
	if err != nil {
		return nil, err
	}

	store, err := records.NewStore(backend, guard, records.Options{
		Encrypt: cfg.Crypto.Encrypt,
		Logger:  log.Named("records"),
	})
	if err != nil {
		return nil, err
	}

	return &Vault{
		Config:   cfg,
		Backend:  backend,
		Engine:   engine,
		Registry: registry,
		Guard:    guard,
		Store:    store,
		Logger:   log,
	}, nil
}

// UnlockOptions selects who unlocks the vault.
type UnlockOptions struct {
	// Principal is an email address or principal id.
	Principal string

	Passphrase string

	// DataPassphrase derives the record key when set. Otherwise Passphrase
	// is used for both.
	DataPassphrase string
}

// Unlock resolves the principal and opens a session for it.
//
// Returns ErrPrincipalNotFound if no principal matches.
// Returns ErrInvalidCredentials if the passphrase does not verify.
func (v *Vault) Unlock(ctx context.Context, opts UnlockOptions) (principals.Principal, error) {
	p, err := v.Registry.Resolve(ctx, opts.Principal)
	if err != nil {
		return principals.Principal{}, err
	}

	dataPassphrase := opts.DataPassphrase
	if dataPassphrase == "" {
		dataPassphrase = opts.Passphrase
	}

	ok, err := v.Guard.UnlockWithDataPassphrase(ctx, p.ID, opts.Passphrase, dataPassphrase)
	if err != nil {
		return principals.Principal{}, err
	}
	if !ok {
		return principals.Principal{}, fmt.Errorf("%w for %s", cerrors.ErrInvalidCredentials, p.Email)
	}
	return p, nil
}

// Close logs out and releases the backend.
func (v *Vault) Close() error {
	v.Guard.Logout()
	if err := v.Backend.Close(); err != nil {
		return fmt.Errorf("closing backend: %w", err)
	}
	return nil
}
