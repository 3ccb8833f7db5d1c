package principals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PolarWolf314/coffer/internal/crypto"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/session"
	"github.com/PolarWolf314/coffer/internal/storage"

	"github.com/google/uuid"
)

func newTestRegistry(t *testing.T, backend storage.Backend) (*Registry, *crypto.Engine) {
	t.Helper()
	engine, err := crypto.NewEngine(crypto.Params{Time: 1, Memory: 64, Threads: 1, Salt: "principals-test"})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	reg, err := NewRegistry(backend, engine, Options{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return reg, engine
}

func TestRegister(t *testing.T) {
	reg, _ := newTestRegistry(t, storage.NewMemory())
	ctx := context.Background()

	p, err := reg.Register(ctx, "  Alice@Example.com ", "Alice", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		t.Errorf("Expected a uuid id, got %q", p.ID)
	}
	if p.Email != "alice@example.com" {
		t.Errorf("Expected normalized email, got %q", p.Email)
	}
	if p.DisplayName != "Alice" {
		t.Errorf("Expected display name Alice, got %q", p.DisplayName)
	}
	if p.Digest == "" || p.Digest == "correct-horse" {
		t.Errorf("Expected a digest, got %q", p.Digest)
	}
	if p.Created.IsZero() {
		t.Error("Expected created to be set")
	}

	got, err := reg.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Email != p.Email || got.Digest != p.Digest {
		t.Errorf("Expected stored principal to match, got %+v", got)
	}
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	reg, _ := newTestRegistry(t, storage.NewMemory())

	p, err := reg.Register(context.Background(), "bob@example.com", "  ", "battery-staple-9")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if p.DisplayName != "bob" {
		t.Errorf("Expected display name from email, got %q", p.DisplayName)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg, _ := newTestRegistry(t, storage.NewMemory())
	ctx := context.Background()

	tests := []struct {
		name       string
		email      string
		passphrase string
		want       error
	}{
		{"empty email", "", "correct-horse", cerrors.ErrInvalidEmail},
		{"no domain", "alice@", "correct-horse", cerrors.ErrInvalidEmail},
		{"no at sign", "alice.example.com", "correct-horse", cerrors.ErrInvalidEmail},
		{"weak passphrase", "alice@example.com", "abc", cerrors.ErrWeakPassphrase},
		{"empty passphrase", "alice@example.com", "", cerrors.ErrWeakPassphrase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Register(ctx, tt.email, "", tt.passphrase)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	reg, _ := newTestRegistry(t, storage.NewMemory())
	ctx := context.Background()

	if _, err := reg.Register(ctx, "alice@example.com", "", "correct-horse"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, err := reg.Register(ctx, "ALICE@example.com", "", "correct-horse")
	if !errors.Is(err, cerrors.ErrPrincipalExists) {
		t.Errorf("Expected ErrPrincipalExists, got %v", err)
	}
}

func TestLookupAndResolve(t *testing.T) {
	reg, _ := newTestRegistry(t, storage.NewMemory())
	ctx := context.Background()

	p, err := reg.Register(ctx, "alice@example.com", "", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Lookup(ctx, "Alice@Example.com")
	if err != nil || got.ID != p.ID {
		t.Errorf("Lookup: expected %s, got %+v err=%v", p.ID, got, err)
	}
	got, err = reg.Resolve(ctx, "alice@example.com")
	if err != nil || got.ID != p.ID {
		t.Errorf("Resolve by email: expected %s, got %+v err=%v", p.ID, got, err)
	}
	got, err = reg.Resolve(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Errorf("Resolve by id: expected %s, got %+v err=%v", p.ID, got, err)
	}

	if _, err := reg.Lookup(ctx, "nobody@example.com"); !errors.Is(err, cerrors.ErrPrincipalNotFound) {
		t.Errorf("Expected ErrPrincipalNotFound, got %v", err)
	}
	if _, err := reg.Get(ctx, "missing"); !errors.Is(err, cerrors.ErrPrincipalNotFound) {
		t.Errorf("Expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	reg, _ := newTestRegistry(t, storage.NewMemory())
	ctx := context.Background()

	for _, email := range []string{"carol@example.com", "alice@example.com", "bob@example.com"} {
		if _, err := reg.Register(ctx, email, "", "correct-horse"); err != nil {
			t.Fatalf("Register(%s) failed: %v", email, err)
		}
	}

	list, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 principals, got %d", len(list))
	}
	if list[0].Email != "alice@example.com" || list[2].Email != "carol@example.com" {
		t.Errorf("Expected principals sorted by email, got %v, %v, %v", list[0].Email, list[1].Email, list[2].Email)
	}
}

func TestVerify(t *testing.T) {
	reg, _ := newTestRegistry(t, storage.NewMemory())
	ctx := context.Background()

	p, err := reg.Register(ctx, "alice@example.com", "", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, ok, err := reg.Verify(ctx, p.ID, "correct-horse")
	if err != nil || !ok || got.ID != p.ID {
		t.Errorf("Expected verify to succeed, got ok=%v err=%v", ok, err)
	}
	_, ok, err = reg.Verify(ctx, p.ID, "wrong-horse")
	if err != nil || ok {
		t.Errorf("Expected verify to fail cleanly, got ok=%v err=%v", ok, err)
	}
	_, _, err = reg.Verify(ctx, "missing", "correct-horse")
	if !errors.Is(err, cerrors.ErrPrincipalNotFound) {
		t.Errorf("Expected ErrPrincipalNotFound, got %v", err)
	}

	ok, err = reg.Authenticate(ctx, "missing", "correct-horse")
	if err != nil || ok {
		t.Errorf("Expected unknown principal to authenticate as false, got ok=%v err=%v", ok, err)
	}
}

func TestRegistryDrivesSessionGuard(t *testing.T) {
	reg, engine := newTestRegistry(t, storage.NewMemory())
	ctx := context.Background()

	p, err := reg.Register(ctx, "alice@example.com", "", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	guard, err := session.New(reg, engine, session.Options{IdleTimeout: time.Minute})
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	defer guard.Logout()

	if ok, err := guard.Unlock(ctx, p.ID, "nope"); err != nil || ok {
		t.Errorf("Expected wrong passphrase to be rejected, got ok=%v err=%v", ok, err)
	}
	if ok, err := guard.Unlock(ctx, p.ID, "correct-horse"); err != nil || !ok {
		t.Errorf("Expected unlock to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestProfilesSurvivePurge(t *testing.T) {
	backend := storage.NewMemory()
	reg, _ := newTestRegistry(t, backend)
	ctx := context.Background()

	p, err := reg.Register(ctx, "alice@example.com", "", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := backend.DeleteAll(ctx, p.ID); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if _, err := reg.Get(ctx, p.ID); err != nil {
		t.Errorf("Expected profile to survive a purge of vault data, got %v", err)
	}
}
