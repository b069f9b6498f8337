// Package database provides SQLite-based storage for flaghunt run history.
//
// This package implements the HistoryDB, which stores:
//   - One row per hunt with its counters and the full report as JSON
//   - Every captured flag with its capture order
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The database is a results archive only. Crawl state (the frontier, the
// visited set) lives in memory for the duration of a hunt and is never
// persisted, so a fresh run always starts from the entry page.
package database
