// Package storage provides the persistence backends behind the record store.
//
// Every backend stores opaque byte payloads keyed by (principal, module).
// Payloads are JSON arrays, either plaintext or an encrypted blob; the
// backend never looks inside them.
//
// # Backends
//
//   - memory: process-local map, used by tests and throwaway sessions
//   - file: one file per collection under <data_dir>/<principal>/<module>.json
//   - bolt: a single bbolt database with one bucket per principal
//   - redis: one string key per collection plus a module index set
//   - firestore: one document per collection under <collection>/<principal>/modules
//
// # Usage
//
//	backend, err := storage.Open(ctx, storage.Options{
//	    Backend: storage.BackendBolt,
//	    BoltPath: filepath.Join(dataDir, "coffer.db"),
//	    Logger:   log,
//	})
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
//
// # Errors
//
// Failures are wrapped in errors.ErrPersistence. Invalid keys return
// errors.ErrValidation. The redis and firestore backends retry transient
// failures according to Options.Retry before giving up.
package storage
