// Package session guards the unlocked vault key and locks it after a period of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PolarWolf314/coffer/internal/crypto"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"
)

// DefaultIdleTimeout is the idle window used when Options leaves it unset.
const DefaultIdleTimeout = 15 * time.Minute

// minRecheck bounds how soon the idle timer re-arms after finding the
// deadline was pushed forward.
const minRecheck = 10 * time.Millisecond

// State is the lifecycle state of a Guard.
type State int

const (
	LoggedOut State = iota
	Unlocked
	Locked
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// LockReason tells OnLock hooks why the guard left the Unlocked state.
type LockReason string

const (
	ReasonManual LockReason = "manual"
	ReasonIdle   LockReason = "idle"
	ReasonLogout LockReason = "logout"
)

// Authenticator checks credentials for a principal. Unknown principals and
// wrong passphrases both report false with a nil error.
type Authenticator interface {
	Authenticate(ctx context.Context, principalID, passphrase string) (bool, error)
}

// KeyDeriver turns a data passphrase into a symmetric key.
type KeyDeriver interface {
	DeriveKey(passphrase string) (*crypto.Key, error)
}

// Session is a snapshot of the active session. It carries no key material.
type Session struct {
	PrincipalID string
	Token       string
	Created     time.Time
	Deadline    time.Time
}

// Options configures a Guard.
type Options struct {
	IdleTimeout time.Duration

	// Now replaces time.Now, mainly for tests.
	Now func() time.Time

	Logger *zap.Logger
}

// Guard is the lock/unlock state machine. It holds at most one session and
// the derived data key for it.
type Guard struct {
	auth   Authenticator
	keys   KeyDeriver
	idle   time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	principal string
	token     string
	created   time.Time
	deadline  time.Time
	key       *memguard.Enclave
	timer     *time.Timer
	gen       uint64
	hooks     []func(LockReason)
}

// New returns a logged-out Guard.
func New(auth Authenticator, keys KeyDeriver, opts Options) (*Guard, error) {
	if auth == nil {
		return nil, fmt.Errorf("%w: session guard needs an authenticator", cerrors.ErrInvalidConfig)
	}
	if keys == nil {
		return nil, fmt.Errorf("%w: session guard needs a key deriver", cerrors.ErrInvalidConfig)
	}
	if opts.IdleTimeout < 0 {
		return nil, fmt.Errorf("%w: idle timeout must not be negative", cerrors.ErrInvalidConfig)
	}

	g := &Guard{
		auth:   auth,
		keys:   keys,
		idle:   opts.IdleTimeout,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if g.idle == 0 {
		g.idle = DefaultIdleTimeout
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g, nil
}

// Unlock verifies the passphrase and opens a session whose data key is
// derived from the same passphrase. Wrong credentials return false with a
// nil error.
func (g *Guard) Unlock(ctx context.Context, principalID, passphrase string) (bool, error) {
	return g.UnlockWithDataPassphrase(ctx, principalID, passphrase, passphrase)
}

// UnlockWithDataPassphrase is Unlock with a separate secret for the data key.
func (g *Guard) UnlockWithDataPassphrase(ctx context.Context, principalID, authPassphrase, dataPassphrase string) (bool, error) {
	if err := g.checkUnlockAllowed(principalID); err != nil {
		return false, err
	}

	ok, err := g.auth.Authenticate(ctx, principalID, authPassphrase)
	if err != nil {
		return false, err
	}
	if !ok {
		g.logger.Debug("unlock rejected", zap.String("principal", principalID))
		return false, nil
	}

	key, err := g.keys.DeriveKey(dataPassphrase)
	if err != nil {
		return false, err
	}
	defer key.Wipe()

	token, err := crypto.GenerateToken()
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	// Another caller may have unlocked while the key was being derived.
	if err := g.checkUnlockAllowedLocked(principalID); err != nil {
		g.mu.Unlock()
		return false, err
	}

	g.stopTimerLocked()
	g.gen++
	now := g.now()
	g.state = Unlocked
	g.principal = principalID
	g.token = token
	g.created = now
	g.deadline = now.Add(g.idle)
	// NewEnclave wipes the slice it is given.
	g.key = memguard.NewEnclave(key[:])
	g.armTimerLocked(g.idle)
	g.mu.Unlock()

	g.logger.Debug("session unlocked", zap.String("principal", principalID), zap.Duration("idle", g.idle))
	return true, nil
}

func (g *Guard) checkUnlockAllowed(principalID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkUnlockAllowedLocked(principalID)
}

func (g *Guard) checkUnlockAllowedLocked(principalID string) error {
	if principalID == "" {
		return fmt.Errorf("%w: principal id must not be empty", cerrors.ErrValidation)
	}
	switch g.state {
	case Locked:
		if principalID != g.principal {
			return fmt.Errorf("%w: session is locked for another principal", cerrors.ErrPrincipalMismatch)
		}
	case Unlocked:
		if principalID != g.principal {
			return cerrors.ErrSessionActive
		}
	}
	return nil
}

// Lock moves an unlocked guard to Locked and drops the key. The principal
// is kept so only it can unlock again.
func (g *Guard) Lock() {
	g.mu.Lock()
	if g.state != Unlocked {
		g.mu.Unlock()
		return
	}
	g.lockLocked()
	hooks := g.hooksLocked()
	g.mu.Unlock()

	g.logger.Debug("session locked", zap.String("reason", string(ReasonManual)))
	fire(hooks, ReasonManual)
}

// Logout clears the session, key and principal from any state.
func (g *Guard) Logout() {
	g.mu.Lock()
	was := g.state
	if was == Unlocked {
		g.lockLocked()
	}
	g.state = LoggedOut
	g.principal = ""
	hooks := g.hooksLocked()
	g.mu.Unlock()

	if was != LoggedOut {
		g.logger.Debug("session logged out")
		fire(hooks, ReasonLogout)
	}
}

// ReportActivity slides the idle deadline forward. It does nothing unless
// the guard is unlocked.
func (g *Guard) ReportActivity() {
	_, _, _ = g.touch(false)
}

// Active returns the current session and extends its deadline. Once the
// deadline has passed the guard locks and ErrNoSession is returned.
func (g *Guard) Active() (Session, error) {
	s, _, err := g.touch(false)
	return s, err
}

// WithKey runs fn with the session's data key. The key is only valid for
// the duration of fn and must not be retained.
func (g *Guard) WithKey(fn func(key *crypto.Key) error) error {
	_, enclave, err := g.touch(true)
	if err != nil {
		return err
	}

	buf, err := enclave.Open()
	if err != nil {
		return fmt.Errorf("%w: opening key enclave: %v", cerrors.ErrKeyDerivation, err)
	}
	defer buf.Destroy()

	return fn((*crypto.Key)(buf.ByteArray32()))
}

// touch checks the deadline and slides it. The enclave is returned only
// when withKey is set.
func (g *Guard) touch(withKey bool) (Session, *memguard.Enclave, error) {
	g.mu.Lock()
	if g.state != Unlocked {
		g.mu.Unlock()
		return Session{}, nil, cerrors.ErrNoSession
	}

	now := g.now()
	if now.After(g.deadline) {
		g.lockLocked()
		hooks := g.hooksLocked()
		g.mu.Unlock()

		g.logger.Debug("session locked", zap.String("reason", string(ReasonIdle)))
		fire(hooks, ReasonIdle)
		return Session{}, nil, cerrors.ErrNoSession
	}

	g.deadline = now.Add(g.idle)
	s := g.snapshotLocked()
	var enclave *memguard.Enclave
	if withKey {
		enclave = g.key
	}
	g.mu.Unlock()
	return s, enclave, nil
}

// State reports the current lifecycle state without touching the deadline.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Principal returns the principal of an unlocked or locked guard.
func (g *Guard) Principal() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.principal
}

// IdleTimeout returns the configured idle window.
func (g *Guard) IdleTimeout() time.Duration {
	return g.idle
}

// OnLock registers fn to run whenever the guard leaves the Unlocked state
// or logs out. Hooks run outside the guard's lock.
func (g *Guard) OnLock(fn func(LockReason)) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, fn)
}

func (g *Guard) snapshotLocked() Session {
	return Session{
		PrincipalID: g.principal,
		Token:       g.token,
		Created:     g.created,
		Deadline:    g.deadline,
	}
}

func (g *Guard) lockLocked() {
	g.stopTimerLocked()
	g.gen++
	g.state = Locked
	g.token = ""
	g.key = nil
	g.deadline = time.Time{}
}

func (g *Guard) hooksLocked() []func(LockReason) {
	return append([]func(LockReason){}, g.hooks...)
}

func (g *Guard) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Guard) armTimerLocked(d time.Duration) {
	gen := g.gen
	g.timer = time.AfterFunc(d, func() { g.expire(gen) })
}

// expire runs on the idle timer. Activity only moves the deadline, so the
// timer re-arms itself until the deadline really passes.
func (g *Guard) expire(gen uint64) {
	g.mu.Lock()
	if g.state != Unlocked || g.gen != gen {
		g.mu.Unlock()
		return
	}

	now := g.now()
	if !now.After(g.deadline) {
		wait := g.deadline.Sub(now)
		if wait < minRecheck {
			wait = minRecheck
		}
		g.armTimerLocked(wait)
		g.mu.Unlock()
		return
	}

	g.lockLocked()
	hooks := g.hooksLocked()
	g.mu.Unlock()

	g.logger.Debug("session locked", zap.String("reason", string(ReasonIdle)))
	fire(hooks, ReasonIdle)
}

func fire(hooks []func(LockReason), reason LockReason) {
	for _, h := range hooks {
		h(reason)
	}
}

// IsNoSession reports whether err means no session is active.
func IsNoSession(err error) bool {
	return errors.Is(err, cerrors.ErrNoSession)
}
