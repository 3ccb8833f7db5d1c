// Package principals registers vault accounts and verifies their passphrases.
package principals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/PolarWolf314/coffer/internal/crypto"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/storage"
	"github.com/PolarWolf314/coffer/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Profiles live outside every principal's own namespace so purging a
// principal's vault keeps the account.
const (
	indexPrincipal = "_index"
	profilesModule = "_principals"
)

// Principal is a registered vault owner.
type Principal struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Digest      string    `json:"digest"`
	Created     time.Time `json:"created"`
}

// Hasher produces and checks credential digests.
type Hasher interface {
	HashPassphrase(passphrase string) (string, error)
	VerifyPassphrase(passphrase, digest string) (bool, error)
}

// Options configures a Registry.
type Options struct {
	Now    func() time.Time
	Logger *zap.Logger
}

// Registry stores principals through a storage backend.
type Registry struct {
	backend storage.Backend
	hasher  Hasher
	now     func() time.Time
	logger  *zap.Logger

	mu sync.Mutex
}

// NewRegistry returns a Registry persisting through backend.
func NewRegistry(backend storage.Backend, hasher Hasher, opts Options) (*Registry, error) {
	if backend == nil || hasher == nil {
		return nil, fmt.Errorf("%w: principal registry needs a backend and a hasher", cerrors.ErrInvalidConfig)
	}
	r := &Registry{
		backend: backend,
		hasher:  hasher,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a principal. The passphrase must not score weak.
func (r *Registry) Register(ctx context.Context, email, displayName, passphrase string) (Principal, error) {
	email = NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return Principal{}, fmt.Errorf("%w: %q", cerrors.ErrInvalidEmail, email)
	}

	strength := crypto.ScorePassphraseStrength(passphrase)
	if strength.Category == crypto.Weak {
		return Principal{}, fmt.Errorf("%w: %s", cerrors.ErrWeakPassphrase, strings.Join(strength.Feedback, "; "))
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	profiles, err := r.loadProfiles(ctx)
	if err != nil {
		return Principal{}, err
	}
	for _, p := range profiles {
		if p.Email == email {
			return Principal{}, fmt.Errorf("%w: %s", cerrors.ErrPrincipalExists, email)
		}
	}

	digest, err := r.hasher.HashPassphrase(passphrase)
	if err != nil {
		return Principal{}, err
	}

	p := Principal{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Digest:      digest,
		Created:     r.now().UTC(),
	}
	profiles[p.ID] = p

	if err := r.saveProfiles(ctx, profiles); err != nil {
		return Principal{}, err
	}

	r.logger.Info("principal registered", zap.String("principal", p.ID))
	return p, nil
}

// Get returns the principal with id.
func (r *Registry) Get(ctx context.Context, id string) (Principal, error) {
	profiles, err := r.loadProfiles(ctx)
	if err != nil {
		return Principal{}, err
	}
	p, ok := profiles[id]
	if !ok {
		return Principal{}, fmt.Errorf("%w: %s", cerrors.ErrPrincipalNotFound, id)
	}
	return p, nil
}

// Lookup returns the principal registered with email.
func (r *Registry) Lookup(ctx context.Context, email string) (Principal, error) {
	email = NormalizeEmail(email)
	profiles, err := r.loadProfiles(ctx)
	if err != nil {
		return Principal{}, err
	}
	for _, p := range profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return Principal{}, fmt.Errorf("%w: %s", cerrors.ErrPrincipalNotFound, email)
}

// Resolve accepts either an email address or a principal id.
func (r *Registry) Resolve(ctx context.Context, ref string) (Principal, error) {
	if strings.Contains(ref, "@") {
		return r.Lookup(ctx, ref)
	}
	return r.Get(ctx, ref)
}

// List returns every principal ordered by email.
func (r *Registry) List(ctx context.Context) ([]Principal, error) {
	profiles, err := r.loadProfiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Principal, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Principal) int { return strings.Compare(a.Email, b.Email) })
	return out, nil
}

// Verify checks passphrase against the stored digest of principal id.
func (r *Registry) Verify(ctx context.Context, id, passphrase string) (Principal, bool, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return Principal{}, false, err
	}
	ok, err := r.hasher.VerifyPassphrase(passphrase, p.Digest)
	if err != nil {
		return Principal{}, false, err
	}
	if !ok {
		return Principal{}, false, nil
	}
	return p, true, nil
}

// Authenticate reports whether passphrase is valid for principalID. Unknown
// principals are reported the same way as wrong passphrases.
func (r *Registry) Authenticate(ctx context.Context, principalID, passphrase string) (bool, error) {
	_, ok, err := r.Verify(ctx, principalID, passphrase)
	if errors.Is(err, cerrors.ErrPrincipalNotFound) {
		return false, nil
	}
	return ok, err
}

func (r *Registry) loadProfiles(ctx context.Context) (map[string]Principal, error) {
	data, ok, err := r.backend.Read(ctx, indexPrincipal, profilesModule)
	if err != nil {
		return nil, fmt.Errorf("%w: loading principals: %w", cerrors.ErrPersistence, err)
	}
	profiles := make(map[string]Principal)
	if !ok || len(data) == 0 {
		return profiles, nil
	}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("%w: decoding principals: %v", cerrors.ErrPersistence, err)
	}
	return profiles, nil
}

func (r *Registry) saveProfiles(ctx context.Context, profiles map[string]Principal) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("%w: encoding principals: %v", cerrors.ErrPersistence, err)
	}
	if err := r.backend.Write(ctx, indexPrincipal, profilesModule, data); err != nil {
		return fmt.Errorf("%w: saving principals: %w", cerrors.ErrPersistence, err)
	}
	return nil
}
