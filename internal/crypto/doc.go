// Package crypto provides the cryptographic primitives of the Coffer vault.
//
// # Key Derivation
//
// Keys are derived from a passphrase with Argon2id. The salt is not random:
// it is computed from the installation salt with a domain label, so the same
// passphrase always yields the same key and data encrypted before a restart
// can be decrypted after it. Two labels are in use:
//
//   - coffer/key/v1 derives the 32-byte data encryption key
//   - coffer/auth/v1 derives the credential digest stored for a principal
//
// Both are one-way. Knowing the credential digest does not reveal the data key.
//
// # Encryption
//
// Payloads are sealed with NaCl secretbox (XSalsa20-Poly1305) under a fresh
// 24-byte random nonce. The blob is
//
//	base64( version(1) || nonce(24) || secretbox(plaintext) )
//
// so encrypting the same plaintext twice produces different blobs. Every
// failure to open a blob is reported as errors.ErrDecryption without further
// detail.
//
// # Identifiers
//
// GenerateID returns 128 random bits as 32 lowercase hex characters.
// GenerateToken returns 256 random bits, base64url encoded, for session tokens.
//
// # Passphrase Strength
//
// ScorePassphraseStrength applies a fixed rubric that registration and the
// CLI strength meter both depend on. See its documentation for the scores.
package crypto
