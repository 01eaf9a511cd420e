// Package log provides secure logging built on top of the standard slog
// package.
//
// The SecureHandler masks sensitive attributes before they reach the
// underlying handler:
//   - HTTP headers (Authorization, Cookie, X-Api-Key) sent to the backend
//   - secret values detected by pattern matching (bearer tokens, JWTs, keys)
//   - the Redis password of the notifier
//
// It also elides inline image payloads: a "data:image/jpeg;base64,..."
// heatmap is logged as its header plus a byte count, and any string longer
// than MaxValueLength is cut.
//
// Even in verbose mode, sensitive values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("explain response",
//	    "heatmap", resp.HeatmapBase64, // logged as "data:image/jpeg;base64,…(40212 bytes elided)"
//	    "authorization", "Bearer abc", // logged as "***REDACTED***"
//	)
package log
