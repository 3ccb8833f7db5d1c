// Package logger provides logging for Coffer CLI commands.
//
// # Verbosity Levels
//
//   - --verbose: shows info messages
//   - --debug: shows info and debug messages
//
// Warnings and errors are always shown.
//
// # Structured Logging
//
// The core packages log through *zap.Logger. Logger.Zap builds one that
// follows the same flags, so a single --debug switch covers both the CLI
// messages and the storage, session and record internals.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Loaded %d records", count)
//	store, _ := records.NewStore(backend, guard, records.Options{Logger: log.Zap()})
package logger
