package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	cerrors "github.com/PolarWolf314/coffer/internal/errors"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	blobVersion byte = 1
	nonceSize        = 24
	headerSize       = 1 + nonceSize
)

// Encrypt seals plaintext under the key derived from passphrase.
func (e *Engine) Encrypt(plaintext, passphrase string) (string, error) {
	key, err := e.DeriveKey(passphrase)
	if err != nil {
		return "", err
	}
	defer key.Wipe()

	return EncryptWithKey(key, []byte(plaintext))
}

// Decrypt opens a blob produced by Encrypt with the same passphrase.
func (e *Engine) Decrypt(blob, passphrase string) (string, error) {
	key, err := e.DeriveKey(passphrase)
	if err != nil {
		return "", err
	}
	defer key.Wipe()

	plaintext, err := DecryptWithKey(key, blob)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptWithKey seals plaintext under an already derived key and returns
// the base64 blob. A fresh nonce is drawn for every call.
func EncryptWithKey(key *Key, plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", cerrors.ErrEncryptFailed, err)
	}

	k := [KeySize]byte(*key)
	out := make([]byte, headerSize, headerSize+len(plaintext)+secretbox.Overhead)
	out[0] = blobVersion
	copy(out[1:], nonce[:])
	out = secretbox.Seal(out, plaintext, &nonce, &k)

	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptWithKey opens a blob sealed by EncryptWithKey. Any failure,
// including malformed input, returns errors.ErrDecryption.
func DecryptWithKey(key *Key, blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, cerrors.ErrDecryption
	}
	if len(raw) < headerSize+secretbox.Overhead || raw[0] != blobVersion {
		return nil, cerrors.ErrDecryption
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[1:headerSize])

	k := [KeySize]byte(*key)
	plaintext, ok := secretbox.Open(nil, raw[headerSize:], &nonce, &k)
	if !ok {
		return nil, cerrors.ErrDecryption
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
