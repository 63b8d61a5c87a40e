// Package log provides the structured logger used by specscrape, built on
// top of the standard slog package.
//
// The SecureHandler wraps any slog.Handler and masks sensitive values before
// they reach the output:
//   - attributes whose key names a credential (cookie, authorization,
//     password, token, secret)
//   - Bearer and Basic authorization values
//   - passwords embedded in URLs, such as postgres:// store DSNs or
//     socks5:// proxy addresses (only the password part is masked)
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Info("store opened", "store", "postgres://crawler:s3cret@db/specs")
//	// store=postgres://crawler:***REDACTED***@db/specs
package log
