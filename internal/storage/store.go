// Package storage persists a per-request usage audit log in SQLite. The
// pipeline itself keeps no cross-request state; this log exists for cost
// tracking and debugging only, and recording is best-effort.
package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// UsageRecord is one finished pipeline run.
type UsageRecord struct {
	RequestID    string
	Task         string
	Model        string
	Code         string // empty on success
	DurationMS   int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	CreatedAt    time.Time
}

// UsageStore defines the interface for usage log persistence.
type UsageStore interface {
	Record(rec UsageRecord) error
	Recent(limit int) ([]UsageRecord, error)
	Close() error
}

// SQLiteStore implements UsageStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (and initializes if needed) the usage log database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_log (
		request_id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_log_created_at ON usage_log(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Record inserts one usage row.
func (s *SQLiteStore) Record(rec UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO usage_log (request_id, task, model, code, duration_ms, input_tokens, output_tokens, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Task, rec.Model, rec.Code, rec.DurationMS,
		rec.InputTokens, rec.OutputTokens, rec.CostUSD, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Recent returns up to limit usage rows, newest first.
func (s *SQLiteStore) Recent(limit int) ([]UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT request_id, task, model, code, duration_ms, input_tokens, output_tokens, cost_usd, created_at
		FROM usage_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage log: %w", err)
	}
	defer rows.Close()

	var records []UsageRecord
	for rows.Next() {
		var rec UsageRecord
		if err := rows.Scan(&rec.RequestID, &rec.Task, &rec.Model, &rec.Code, &rec.DurationMS,
			&rec.InputTokens, &rec.OutputTokens, &rec.CostUSD, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
