// Package logging provides structured logging for the qtics toolkit.
//
// It wraps Go's standard log/slog package so every component logs in a
// consistent, machine-parsable way.
//
// # Features
//
//   - JSON output for unattended acquisition runs (machine-parsable)
//   - Text output for interactive bench sessions (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting experiment", "name", "twpa_gain")
//	logger.Error("instrument unreachable", "error", err)
//
// Packages deeper in the toolkit do not import this package; they accept a
// minimal Logger interface of their own and are handed a *logging.Logger
// (or any slog-compatible implementation) at wiring time.
package logging
