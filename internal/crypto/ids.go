package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"

	cerrors "github.com/PolarWolf314/coffer/internal/errors"
)

const (
	idBytes    = 16 // 128 bits
	tokenBytes = 32 // 256 bits
)

// GenerateID returns a random record identifier of 32 hex characters.
func GenerateID() (string, error) {
	b, err := GenerateRandomBytes(idBytes)
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateToken returns a random session token, base64url encoded.
func GenerateToken() (string, error) {
	b, err := GenerateRandomBytes(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateRandomBytes returns n cryptographically secure random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GeneratePassword creates a random password of the given length with at
// least one lowercase letter, uppercase letter, digit and symbol.
func GeneratePassword(length int) (string, error) {
	const (
		lower   = "abcdefghijklmnopqrstuvwxyz"
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digits  = "0123456789"
		symbols = "!@#$%^&*()-_=+[]{}<>?/|~"
		all     = lower + upper + digits + symbols
	)

	if length < 12 {
		return "", fmt.Errorf("%w: password length must be >= 12", cerrors.ErrValidation)
	}

	password := make([]byte, length)
	for i, class := range []string{lower, upper, digits, symbols} {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		password[i] = c
	}
	for i := 4; i < length; i++ {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		password[i] = c
	}

	// Fisher-Yates so the guaranteed classes are not always up front.
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		password[i], password[j.Int64()] = password[j.Int64()], password[i]
	}

	return string(password), nil
}

func randomChar(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[idx.Int64()], nil
}
