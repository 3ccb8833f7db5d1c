package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	cerrors "github.com/PolarWolf314/coffer/internal/errors"

	"go.uber.org/zap"
)

// Backend is durable key-value storage keyed by (principal, module).
//
// Read reports absence with ok == false and a nil error. Implementations
// must be safe for concurrent use; serializing read-modify-write cycles is
// the caller's job.
type Backend interface {
	Read(ctx context.Context, principalID, module string) (data []byte, ok bool, err error)
	Write(ctx context.Context, principalID, module string, data []byte) error
	DeleteAll(ctx context.Context, principalID string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendBolt      = "bolt"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	// Dir is the data directory for the file backend.
	Dir string

	// BoltPath is the database file for the bolt backend.
	BoltPath string

	Redis     RedisOptions
	Firestore FirestoreOptions

	// Retry applies to the remote backends only.
	Retry RetryPolicy

	Logger *zap.Logger
}

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// FirestoreOptions configures the firestore backend.
type FirestoreOptions struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
}

// Open builds the backend named in opts.Backend.
func Open(ctx context.Context, opts Options) (Backend, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("backend", opts.Backend))

	switch opts.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(opts.Dir, log)
	case BackendBolt:
		return NewBolt(opts.BoltPath, log)
	case BackendRedis:
		return NewRedis(ctx, opts.Redis, opts.Retry, log)
	case BackendFirestore:
		return NewFirestore(ctx, opts.Firestore, opts.Retry, log)
	default:
		return nil, fmt.Errorf("%w: %q", cerrors.ErrUnknownBackend, opts.Backend)
	}
}

// validateKey rejects principal and module names that could escape their
// namespace in a path or key.
func validateKey(principalID, module string) error {
	if err := validatePart("principal id", principalID); err != nil {
		return err
	}
	return validatePart("module", module)
}

func validatePart(what, s string) error {
	if s == "" {
		return fmt.Errorf("%w: %s must not be empty", cerrors.ErrValidation, what)
	}
	if s == "." || s == ".." || strings.ContainsAny(s, "/\\:\x00") {
		return fmt.Errorf("%w: %s %q contains reserved characters", cerrors.ErrValidation, what, s)
	}
	return nil
}

// RetryPolicy is exponential backoff for transient remote failures.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  2 * time.Second,
	}
}
