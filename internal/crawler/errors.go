package crawler

import "errors"

// Crawl-level sentinel errors.
var (
	// ErrNoCSRFToken is returned when the login page does not contain
	// the hidden csrfmiddlewaretoken input the bootstrap depends on.
	// Without the token the login POST would be rejected, so the run
	// cannot proceed.
	ErrNoCSRFToken = errors.New("login page contains no csrfmiddlewaretoken")
)
