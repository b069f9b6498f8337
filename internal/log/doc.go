// Package log provides secure logging with automatic masking of
// credential material, built on top of the standard slog package.
//
// A hunt logs request and response traffic when verbose mode is on, and
// that traffic necessarily contains the login password, the CSRF token,
// and the session cookie. This package extends slog so that:
//   - Attributes with credential-bearing keys (password, cookie, csrf,
//     session, form bodies) are masked
//   - Values that look like session material are masked regardless of key
//   - Discovered flags always pass through untouched
//
// Even in verbose mode, masked values stay masked, so logs can be shared
// when debugging a run against the course server.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("response received",
//	    "set-cookie", "sessionid=abc123",  // masked
//	    "path", "/fakebook/123/",          // kept
//	)
//
// The returned logger is a plain *slog.Logger and can be handed to any
// component that accepts one, including tornago's embedded daemon.
package log
