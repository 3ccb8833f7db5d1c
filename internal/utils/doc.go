// Package utils provides shared helpers for the Coffer command line.
//
// # Filesystem Utilities
//
//   - FindConfigFile: walks up directories to find coffer.toml
//   - FileExists: checks for a regular file
//
// # Field Parsing
//
//   - ParseFields: turns key=value and key:=json assignments into a record payload
//   - SanitizeModuleName: normalizes free-form module names
//
// # Terminal and I/O Utilities
//
//   - ReadPassphrase: prompts without echo
//   - ReadStdin: reads piped input
//   - IsTerminal: checks whether stdin is a terminal
package utils
