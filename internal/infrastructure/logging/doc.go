// Package logging provides structured logging for the storage bridge.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// Logs are the primary fault-reporting channel of the bridge: connection
// failures, dropped messages, and TLS degradations all surface here (the
// only other externally visible signal is the connection-status field in
// the config store).
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting bridge", "broker", "mqtt.internal:8883")
//	logger.Error("failed to write reading", "error", err)
package logging
