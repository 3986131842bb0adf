// Package logging provides structured logging for the wifiprov core.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the provisioner. It provides both general logging
// functions and specialized functions for provisioning-specific events.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (DNS queries, HTTP requests, tick detail)
//   - Info: Normal operations (state transitions, connection attempts, resets)
//   - Warn: Non-fatal issues (storage write failures, retries)
//   - Error: Serious issues (capability failures, auth failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Access point started",
//	    zap.String("ssid", "wifiprov-EF1234"),
//	    zap.String("ip", "192.168.4.1"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogStateTransition("connecting", "retry_wait")
//	logging.LogConnectionAttempt(ssid, attempt, maxRetries)
//	logging.LogResetEvent("hardware_button")
//	logging.LogHTTPRequest(remoteAddr, method, path)
//	logging.LogDNSQuery(name, captureIP)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is configured (neither argument nor WIFIPROV_LOG_LEVEL),
// the logger is a nop and produces no output. This keeps the library
// silent by default inside host applications.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
