package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/flaghunt/internal/model"
)

// HistoryDB provides SQLite-based storage for hunt results.
// It manages the connection and provides methods for saving and
// replaying past runs.
//
// Design decision: We use a single database file for all targets
// rather than one file per target. This keeps cross-target queries
// (list targets, distinct flags) trivial and simplifies backups.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "flaghunt.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw opens existing
	// files only, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer, so a single connection avoids
	// SQLITE_BUSY surprises.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Crawl runs store one row per hunt with the full report as JSON
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server TEXT NOT NULL,
		port INTEGER NOT NULL,
		username TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		termination TEXT NOT NULL,
		pages_visited INTEGER NOT NULL,
		fetches INTEGER NOT NULL,
		retries INTEGER NOT NULL,
		redirects INTEGER NOT NULL,
		abandoned INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		flag_quota INTEGER NOT NULL,
		error TEXT,
		report_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_server ON crawl_runs(server);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON crawl_runs(timestamp);

	-- Flags store each captured flag with its capture order
	CREATE TABLE IF NOT EXISTS flags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		flag TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_flags_run ON flags(run_id);
	CREATE INDEX IF NOT EXISTS idx_flags_flag ON flags(flag);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished hunt and its flags. The run row and the
// flag rows commit together so a stored run always carries its flags.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO crawl_runs (
		server, port, username, started_at, duration_ms, termination,
		pages_visited, fetches, retries, redirects, abandoned, workers,
		flag_quota, error, report_json
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		report.Server,
		report.Port,
		report.Username,
		report.StartedAt.Format(time.RFC3339),
		report.Duration.Milliseconds(),
		string(report.Termination),
		report.PagesVisited,
		report.Fetches,
		report.Retries,
		report.Redirects,
		report.Abandoned,
		report.Workers,
		report.FlagQuota,
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for i, flag := range report.Flags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flags (run_id, flag, position) VALUES (?, ?, ?)`,
			runID, flag, i,
		); err != nil {
			return 0, fmt.Errorf("failed to insert flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// LatestRun retrieves the most recent run for a server.
// Returns nil without error when the server has no stored runs.
func (hdb *HistoryDB) LatestRun(ctx context.Context, server string) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_runs
	WHERE server = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, server).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// RunByID retrieves a run by its database ID.
// Returns nil without error when no such run exists.
func (hdb *HistoryDB) RunByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_runs
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// RunsForTarget retrieves all runs for a server, newest first.
func (hdb *HistoryDB) RunsForTarget(ctx context.Context, server string) ([]*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_runs
	WHERE server = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, server)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	var reports []*model.CrawlReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		var report model.CrawlReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading full reports.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Server is the crawled hostname.
	Server string

	// Username is the account the run authenticated as.
	Username string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// Termination tells why the run ended.
	Termination model.Termination

	// FlagCount is the number of flags the run captured.
	FlagCount int
}

// RunHistory retrieves run metadata for a server, newest first.
// This is more efficient than RunsForTarget when only metadata is needed.
func (hdb *HistoryDB) RunHistory(ctx context.Context, server string) ([]RunMetadata, error) {
	query := `
	SELECT r.id, r.server, r.username, r.timestamp, r.termination,
	       (SELECT COUNT(*) FROM flags f WHERE f.run_id = r.id) AS flag_count
	FROM crawl_runs r
	WHERE r.server = ?
	ORDER BY r.timestamp DESC, r.id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, server)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var termination string

		if err := rows.Scan(&meta.ID, &meta.Server, &meta.Username, &timestamp, &termination, &meta.FlagCount); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Termination = model.Termination(termination)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListTargets returns every server with at least one stored run.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT server FROM crawl_runs
	ORDER BY server
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// FlagsForTarget returns the distinct flags ever captured on a server,
// in lexicographic order.
func (hdb *HistoryDB) FlagsForTarget(ctx context.Context, server string) ([]string, error) {
	query := `
	SELECT DISTINCT f.flag
	FROM flags f
	JOIN crawl_runs r ON r.id = f.run_id
	WHERE r.server = ?
	ORDER BY f.flag
	`

	rows, err := hdb.db.QueryContext(ctx, query, server)
	if err != nil {
		return nil, fmt.Errorf("failed to get flags: %w", err)
	}
	defer rows.Close()

	var flags []string
	for rows.Next() {
		var flag string
		if err := rows.Scan(&flag); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, flag)
	}

	return flags, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
