// Package errors provides typed error values for the Coffer vault.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Session errors: no unlocked session, wrong principal (ErrNoSession, ErrPrincipalMismatch)
//   - Crypto errors: key derivation and decryption failures (ErrKeyDerivation, ErrDecryption)
//   - Storage errors: backend I/O and record validation (ErrPersistence, ErrValidation)
//   - Principal errors: registry lookups (ErrPrincipalNotFound, ErrPrincipalExists)
//   - File errors: export documents and config (ErrInvalidArchive, ErrInvalidConfig)
//
// # Usage
//
// Wrap a sentinel together with the underlying cause so both match:
//
//	if err := backend.Write(ctx, p, m, data); err != nil {
//	    return fmt.Errorf("%w: writing %s: %w", errors.ErrPersistence, m, err)
//	}
//
// Handle errors in the CLI layer:
//
//	rec, err := store.SaveRecord(ctx, "notes", rec)
//	if errors.Is(err, cerrors.ErrNoSession) {
//	    // Ask the user to unlock again
//	}
//
// ErrDecryption is never wrapped with its cause. A wrong passphrase and a
// corrupted blob must be indistinguishable to the caller.
package errors
