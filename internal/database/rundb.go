package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/ctisync/internal/model"
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

// RunDB provides SQLite-based storage for connector run history.
//
// Design decision: One database file for all runs rather than a file per
// run. History queries span runs, and a single file keeps backup and
// cleanup trivial.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// RunRecord is one stored run with its metadata. Summary is decoded lazily
// by GetRun; list queries return only the counters.
type RunRecord struct {
	// ID is the database row identifier.
	ID int64

	// StartedAt is when the run began.
	StartedAt time.Time

	// FeedURL is the feed the run ingested.
	FeedURL string

	// LabelCount is the vocabulary size.
	LabelCount int

	// ObjectCount is the number of published observables.
	ObjectCount int

	// FailureCount is the number of observables that failed creation.
	FailureCount int
}

// Open opens or creates a RunDB in the given directory. The directory and
// database file are created as needed.
func Open(dbDir string) (*RunDB, error) {
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, "ctisync.db")
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; the connector is sequential anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		feed_url TEXT NOT NULL,
		label_count INTEGER NOT NULL,
		object_count INTEGER NOT NULL,
		failure_count INTEGER NOT NULL,
		summary TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun records one completed run summary. Implements pipeline.HistoryStore.
func (rdb *RunDB) SaveRun(ctx context.Context, summary *model.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	startedAt := summary.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	_, err = rdb.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, feed_url, label_count, object_count, failure_count, summary)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		startedAt.UTC().Format(time.RFC3339), summary.FeedURL,
		len(summary.Labels), summary.CreatedCount(), summary.FailedCount(), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListRuns returns stored runs, newest first, up to limit (0 = no limit).
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, started_at, feed_url, label_count, object_count, failure_count
	          FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best effort cleanup

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		if err := rows.Scan(&r.ID, &started, &r.FeedURL, &r.LabelCount, &r.ObjectCount, &r.FailureCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetRun returns the full summary of one stored run.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (*model.RunSummary, error) {
	var data string
	err := rdb.db.QueryRowContext(ctx, `SELECT summary FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	var summary model.RunSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &summary, nil
}

// LatestRun returns the most recent stored run, or ErrRunNotFound if the
// history is empty.
func (rdb *RunDB) LatestRun(ctx context.Context) (RunRecord, *model.RunSummary, error) {
	records, err := rdb.ListRuns(ctx, 1)
	if err != nil {
		return RunRecord{}, nil, err
	}
	if len(records) == 0 {
		return RunRecord{}, nil, ErrRunNotFound
	}

	summary, err := rdb.GetRun(ctx, records[0].ID)
	if err != nil {
		return RunRecord{}, nil, err
	}
	return records[0], summary, nil
}

// parseTimestamp parses a stored timestamp, tolerating the formats SQLite
// may hand back. Returns the zero time on failure.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
