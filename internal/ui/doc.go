// Package ui provides semantic text formatting for CLI output.
//
// Formatters colorize content when the terminal supports it. When NO_COLOR
// is set or the terminal cannot show colors, text decorations (backticks,
// quotes, brackets) are used instead.
//
// # Semantic Formatters
//
//	ui.Code.Sprint("coffer add notes")        // Commands
//	ui.Path.Sprint("coffer.toml")             // File paths
//	ui.Success.Sprint("✓")                     // Success indicators
//	ui.Error.Sprint("✗")                       // Error indicators
//	ui.Highlight.Sprint("alice@example.com")  // User values
//	ui.ID.Sprint("3f2a...")                   // Record ids
//	ui.Field.Sprint("title")                  // Record field names
//	ui.Secret.Sprint("••••1234")              // Masked values
//
// # Color Behavior
//
// Colors are disabled when:
//   - NO_COLOR environment variable is set (any value)
//   - Terminal doesn't support colors (TERM=dumb, not a TTY)
package ui
