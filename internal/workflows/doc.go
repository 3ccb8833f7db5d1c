// Package workflows provides high-level orchestration for Coffer commands.
//
// Workflows coordinate the core packages (configs, storage, principals,
// session, records) to implement complete user-facing features. Each
// workflow handles a single command's business logic, independent of CLI
// concerns like flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function or core operation
//   - Formats the result for display
//
// # Available Workflows
//
//   - OpenVault: builds backend, crypto engine, registry, session guard and record store from a Config
//   - Init: writes coffer.toml with a fresh installation salt
//   - Export: writes the active principal's modules to a JSON document
//   - Import: replays a JSON document through SaveRecord
//   - Status: reports the session and per-module record counts
//   - Doctor: runs installation health checks
//
// # Export Document
//
//	{
//	  "version": "1",
//	  "exportDate": "2024-05-06T07:08:09Z",
//	  "principalId": "3f6c...",
//	  "data": {
//	    "notes": [{"id": "...", "created": "...", "modified": "...", "title": "..."}],
//	    "todos": []
//	  }
//	}
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package:
//
//	result, err := workflows.Import(ctx, vault.Store, opts)
//	if errors.Is(err, cerrors.ErrInvalidArchive) {
//	    // Show user-friendly message about the document
//	}
package workflows
