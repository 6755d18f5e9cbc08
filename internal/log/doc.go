// Package log provides logging utilities built on top of the standard
// slog package.
//
// This package extends slog to provide:
//   - Automatic trimming of oversized attribute values (markup excerpts,
//     biographies, post bodies)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Trimming
//
// The TrimHandler cuts string attribute values to a fixed rune budget
// before they reach the underlying handler. The pipeline logs raw page
// content while debugging selector rules, and a single untrimmed bio or
// markup dump would otherwise bury every other line in the log.
//
// # Usage
//
//	// Create a trimming logger
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("page rejected",
//	    "url", "https://example.org/speakers/amy",
//	    "markup", markup, // Trimmed to the rune budget
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
