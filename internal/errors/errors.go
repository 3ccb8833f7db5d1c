package errors

import "errors"

// Session errors indicate the vault is not in a state that allows the call.
var (
	// ErrNoSession indicates no unlocked session is active (logged out, locked, or idle-expired).
	ErrNoSession = errors.New("no unlocked session")

	// ErrSessionActive indicates a different principal already holds the unlocked session.
	ErrSessionActive = errors.New("another principal holds the active session")

	// ErrPrincipalMismatch indicates a locked session can only be unlocked by its own principal.
	ErrPrincipalMismatch = errors.New("session is locked by a different principal")

	// ErrInvalidCredentials indicates the supplied passphrase did not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Cryptographic errors indicate failures during key derivation, encryption or decryption.
var (
	// ErrKeyDerivation indicates the platform primitive used to derive a key failed.
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrEncryptFailed indicates a payload could not be sealed.
	ErrEncryptFailed = errors.New("failed to encrypt payload")

	// ErrDecryption is returned for every decryption failure. The message is
	// deliberately the same whether the key was wrong or the data corrupt.
	ErrDecryption = errors.New("invalid passphrase or corrupted data")
)

// Storage errors indicate issues with the persistence backend or with records.
var (
	// ErrPersistence indicates the underlying storage failed to read or write.
	ErrPersistence = errors.New("persistence backend failure")

	// ErrValidation indicates a record or argument failed a structural check.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownBackend indicates the configured backend name is not supported.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Principal errors indicate issues with the principal registry.
var (
	// ErrPrincipalNotFound indicates no principal is registered under the id or email.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrPrincipalExists indicates the email is already registered.
	ErrPrincipalExists = errors.New("principal already registered")

	// ErrInvalidEmail indicates the email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassphrase indicates the passphrase scored too low to register with.
	ErrWeakPassphrase = errors.New("passphrase is too weak")
)

// File errors indicate issues with export files and configuration.
var (
	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidArchive indicates an export document does not have the expected shape.
	ErrInvalidArchive = errors.New("invalid export document")

	// ErrInvalidConfig indicates the configuration is malformed or has out-of-range values.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrAlreadyInitialized indicates a config file already exists where init would write one.
	ErrAlreadyInitialized = errors.New("coffer is already initialized")
)
