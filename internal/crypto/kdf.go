package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	cerrors "github.com/PolarWolf314/coffer/internal/errors"

	"golang.org/x/crypto/argon2"
)

// KeySize is the size of a derived data key in bytes.
const KeySize = 32

const (
	keyDomain  = "coffer/key/v1"
	authDomain = "coffer/auth/v1"
	saltSize   = 16
)

// Params configures Argon2id. Salt is the installation salt that every
// derived salt is computed from; changing it invalidates all stored data.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	Salt    string
}

// DefaultParams returns the parameters used when the config does not override them.
func DefaultParams() Params {
	return Params{
		Time:    3,
		Memory:  64 * 1024,
		Threads: 4,
		Salt:    "coffer",
	}
}

// Validate checks that the parameters can be handed to Argon2id.
func (p Params) Validate() error {
	if p.Time == 0 {
		return fmt.Errorf("%w: argon2 time must be at least 1", cerrors.ErrInvalidConfig)
	}
	if p.Threads == 0 {
		return fmt.Errorf("%w: argon2 threads must be at least 1", cerrors.ErrInvalidConfig)
	}
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("%w: argon2 memory must be at least 8 KiB per thread", cerrors.ErrInvalidConfig)
	}
	if p.Salt == "" {
		return fmt.Errorf("%w: installation salt must not be empty", cerrors.ErrInvalidConfig)
	}
	return nil
}

// Key is a derived symmetric key.
type Key [KeySize]byte

// Wipe zeroes the key in place.
func (k *Key) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

// Engine derives keys and digests with a fixed set of parameters.
type Engine struct {
	params Params
}

// NewEngine returns an Engine for the given parameters.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: params}, nil
}

// Params returns the parameters the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}

func (e *Engine) salt(domain string) []byte {
	sum := sha256.Sum256([]byte(domain + "\x00" + e.params.Salt))
	return sum[:saltSize]
}

// DeriveKey derives the data encryption key for passphrase. It is
// deterministic and never fails on passphrase content.
func (e *Engine) DeriveKey(passphrase string) (*Key, error) {
	if err := e.params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrKeyDerivation, err)
	}

	raw := argon2.IDKey([]byte(passphrase), e.salt(keyDomain), e.params.Time, e.params.Memory, e.params.Threads, KeySize)
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: argon2 returned %d bytes", cerrors.ErrKeyDerivation, len(raw))
	}

	var key Key
	copy(key[:], raw)
	for i := range raw {
		raw[i] = 0
	}
	return &key, nil
}

// HashPassphrase returns the credential digest for passphrase. The digest
// records the Argon2 parameters so it can be verified after they change.
func (e *Engine) HashPassphrase(passphrase string) (string, error) {
	return e.hashWith(passphrase, e.params)
}

func (e *Engine) hashWith(passphrase string, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", cerrors.ErrKeyDerivation, err)
	}
	sum := argon2.IDKey([]byte(passphrase), e.salt(authDomain), p.Time, p.Memory, p.Threads, KeySize)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, hex.EncodeToString(sum)), nil
}

// VerifyPassphrase reports whether passphrase produces digest. The
// comparison is constant time. A malformed digest never verifies.
func (e *Engine) VerifyPassphrase(passphrase, digest string) (bool, error) {
	p, ok := parseDigestParams(digest, e.params.Salt)
	if !ok {
		return false, nil
	}
	computed, err := e.hashWith(passphrase, p)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1, nil
}

func parseDigestParams(digest, salt string) (Params, bool) {
	// $argon2id$v=19$m=65536,t=3,p=4$<hex>
	parts := strings.Split(digest, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, false
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Params{}, false
	}
	p.Salt = salt

	if p.Validate() != nil {
		return Params{}, false
	}
	if _, err := hex.DecodeString(parts[4]); err != nil {
		return Params{}, false
	}
	return p, true
}
