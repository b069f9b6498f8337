// Package model defines the core data structures shared across flaghunt.
//
// This package contains the following main types:
//   - CrawlReport: The result of one hunt against a target site
//   - Termination: The reason a hunt ended
//
// Design decision: We keep models in their own package to avoid circular
// dependencies. Multiple packages (pipeline, report, database) need these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
