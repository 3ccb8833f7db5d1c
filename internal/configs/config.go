package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PolarWolf314/coffer/internal/crypto"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/session"
	"github.com/PolarWolf314/coffer/internal/storage"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the contents of coffer.toml.
type Config struct {
	Storage   StorageConfig   `toml:"storage" mapstructure:"storage"`
	Session   SessionConfig   `toml:"session" mapstructure:"session"`
	Crypto    CryptoConfig    `toml:"crypto" mapstructure:"crypto"`
	Redis     RedisConfig     `toml:"redis" mapstructure:"redis"`
	Firestore FirestoreConfig `toml:"firestore" mapstructure:"firestore"`
}

type StorageConfig struct {
	Backend       string `toml:"backend" mapstructure:"backend"`
	DataDir       string `toml:"data_dir" mapstructure:"data_dir"`
	BoltPath      string `toml:"bolt_path,omitempty" mapstructure:"bolt_path"`
	RetryAttempts int    `toml:"retry_attempts" mapstructure:"retry_attempts"`
}

type SessionConfig struct {
	// IdleTimeout is a Go duration string such as "15m".
	IdleTimeout string `toml:"idle_timeout" mapstructure:"idle_timeout"`
}

type CryptoConfig struct {
	Encrypt       bool   `toml:"encrypt" mapstructure:"encrypt"`
	InstallSalt   string `toml:"install_salt" mapstructure:"install_salt"`
	Argon2Time    uint32 `toml:"argon2_time" mapstructure:"argon2_time"`
	Argon2Memory  uint32 `toml:"argon2_memory_kib" mapstructure:"argon2_memory_kib"`
	Argon2Threads uint8  `toml:"argon2_threads" mapstructure:"argon2_threads"`
}

type RedisConfig struct {
	Addr     string `toml:"addr" mapstructure:"addr"`
	Password string `toml:"password,omitempty" mapstructure:"password"`
	DB       int    `toml:"db" mapstructure:"db"`
	Prefix   string `toml:"prefix,omitempty" mapstructure:"prefix"`
}

type FirestoreConfig struct {
	ProjectID       string `toml:"project_id,omitempty" mapstructure:"project_id"`
	CredentialsFile string `toml:"credentials_file,omitempty" mapstructure:"credentials_file"`
	Collection      string `toml:"collection,omitempty" mapstructure:"collection"`
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}
	params := crypto.DefaultParams()
	return &Config{
		Storage: StorageConfig{
			Backend:       storage.BackendFile,
			DataDir:       dataDir,
			RetryAttempts: storage.DefaultRetryPolicy().Attempts,
		},
		Session: SessionConfig{
			IdleTimeout: session.DefaultIdleTimeout.String(),
		},
		Crypto: CryptoConfig{
			Encrypt:       true,
			InstallSalt:   params.Salt,
			Argon2Time:    params.Time,
			Argon2Memory:  params.Memory,
			Argon2Threads: params.Threads,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.bolt_path", d.Storage.BoltPath)
	v.SetDefault("storage.retry_attempts", d.Storage.RetryAttempts)
	v.SetDefault("session.idle_timeout", d.Session.IdleTimeout)
	v.SetDefault("crypto.encrypt", d.Crypto.Encrypt)
	v.SetDefault("crypto.install_salt", d.Crypto.InstallSalt)
	v.SetDefault("crypto.argon2_time", d.Crypto.Argon2Time)
	v.SetDefault("crypto.argon2_memory_kib", d.Crypto.Argon2Memory)
	v.SetDefault("crypto.argon2_threads", d.Crypto.Argon2Threads)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("firestore.project_id", d.Firestore.ProjectID)
	v.SetDefault("firestore.credentials_file", d.Firestore.CredentialsFile)
	v.SetDefault("firestore.collection", d.Firestore.Collection)
}

// Load reads path (if it exists) over the defaults and applies COFFER_*
// environment overrides, e.g. COFFER_STORAGE_BACKEND=bolt.
func Load(path string) (*Config, error) {
	defaults, err := Default()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v, defaults)
	v.SetEnvPrefix("COFFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", cerrors.ErrInvalidConfig, path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := SaveTOML(path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate checks the backend name, the idle timeout and the Argon2 parameters.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case storage.BackendMemory, storage.BackendFile, storage.BackendBolt, storage.BackendRedis, storage.BackendFirestore:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", cerrors.ErrInvalidConfig, c.Storage.Backend)
	}
	if (c.Storage.Backend == storage.BackendFile || c.Storage.Backend == storage.BackendBolt) && c.Storage.DataDir == "" && c.Storage.BoltPath == "" {
		return fmt.Errorf("%w: storage.data_dir must be set for the %s backend", cerrors.ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Backend == storage.BackendFirestore && c.Firestore.ProjectID == "" {
		return fmt.Errorf("%w: firestore.project_id must be set", cerrors.ErrInvalidConfig)
	}
	if c.Storage.RetryAttempts < 0 {
		return fmt.Errorf("%w: storage.retry_attempts must not be negative", cerrors.ErrInvalidConfig)
	}

	if _, err := c.IdleTimeout(); err != nil {
		return err
	}
	return c.CryptoParams().Validate()
}

// IdleTimeout parses session.idle_timeout.
func (c *Config) IdleTimeout() (time.Duration, error) {
	if c.Session.IdleTimeout == "" {
		return session.DefaultIdleTimeout, nil
	}
	d, err := time.ParseDuration(c.Session.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: session.idle_timeout: %v", cerrors.ErrInvalidConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: session.idle_timeout must be positive", cerrors.ErrInvalidConfig)
	}
	return d, nil
}

// CryptoParams returns the Argon2 parameters for the crypto engine.
func (c *Config) CryptoParams() crypto.Params {
	return crypto.Params{
		Time:    c.Crypto.Argon2Time,
		Memory:  c.Crypto.Argon2Memory,
		Threads: c.Crypto.Argon2Threads,
		Salt:    c.Crypto.InstallSalt,
	}
}

// StorageOptions returns the options for storage.Open.
func (c *Config) StorageOptions(log *zap.Logger) storage.Options {
	boltPath := c.Storage.BoltPath
	if boltPath == "" && c.Storage.DataDir != "" {
		boltPath = filepath.Join(c.Storage.DataDir, "coffer.db")
	}

	retry := storage.DefaultRetryPolicy()
	retry.Attempts = c.Storage.RetryAttempts

	return storage.Options{
		Backend:  c.Storage.Backend,
		Dir:      c.Storage.DataDir,
		BoltPath: boltPath,
		Redis: storage.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
		Firestore: storage.FirestoreOptions{
			ProjectID:       c.Firestore.ProjectID,
			CredentialsFile: c.Firestore.CredentialsFile,
			Collection:      c.Firestore.Collection,
		},
		Retry:  retry,
		Logger: log,
	}
}
