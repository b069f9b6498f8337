// Package config provides the configuration for a flaghunt run.
// Every input arrives via CLI flags and positional arguments; the package
// defines the defaults, the flat Config struct passed through the
// application, and fail-fast validation.
package config
