package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: package-level sentinel errors rather than fresh
// errors.New calls inside Validate, so callers can branch with
// errors.Is while users still get a readable message. None of these
// need dynamic values, so errors.New over fmt.Errorf.
var (
	// ErrNoServer is returned when the target hostname is empty.
	ErrNoServer = errors.New("no server specified")

	// ErrInvalidPort is returned when the port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrNoCredentials is returned when no username/password pair was
	// supplied, either positionally or via --list.
	ErrNoCredentials = errors.New("no credentials: provide <username> <password> or use --list")

	// ErrEmptyCredential is returned when a credential has an empty
	// username or password, typically a malformed --list line.
	ErrEmptyCredential = errors.New("empty credential: username and password must be non-empty")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidQuota is returned when the flag quota is not positive.
	ErrInvalidQuota = errors.New("invalid flag quota: must be positive")

	// ErrInvalidTimeout is returned when a timeout is zero or negative.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCap is returned when a retry or redirect cap is negative.
	// Zero is valid and means unbounded.
	ErrInvalidCap = errors.New("invalid retry/redirect cap: must be non-negative (0 = unbounded)")

	// ErrConflictingProxyOptions is returned when both --tor and --proxy
	// are given. The embedded daemon and an external proxy cannot both
	// carry the traffic.
	ErrConflictingProxyOptions = errors.New("conflicting proxy options: --tor and --proxy cannot be used together")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown, and --yaml is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose at most one of --json, --markdown, --yaml")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")
)
