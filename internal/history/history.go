// Package history persists completed analysis runs to Postgres. The
// store is optional: when no database is configured the service runs
// without it and the analysis pipeline is unaffected.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colwise/colwise/internal/session"
)

// Store records and lists analysis runs. It implements
// session.Recorder.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// New wraps an existing connection pool.
func New(pool *pgxpool.Pool, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{pool: pool, log: log}
}

// Init creates the backing table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id           UUID PRIMARY KEY,
			file_name    TEXT NOT NULL,
			row_count    INTEGER NOT NULL,
			column_count INTEGER NOT NULL,
			column_types TEXT[] NOT NULL,
			duration_ms  INTEGER NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("init history table: %w", err)
	}
	return nil
}

// Record inserts one completed run.
func (s *Store) Record(ctx context.Context, run session.Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_runs
			(id, file_name, row_count, column_count, column_types, duration_ms, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		run.SessionID, run.FileName, run.Rows, run.Columns, run.Types,
		run.Duration.Milliseconds(), run.CompletedAt)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Entry is one row of the run history.
type Entry struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	ColumnTypes []string  `json:"columnTypes"`
	DurationMs  int64     `json:"durationMs"`
	CompletedAt time.Time `json:"completedAt"`
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_name, row_count, column_count, column_types, duration_ms, completed_at
		FROM analysis_runs
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.FileName, &e.Rows, &e.Columns, &e.ColumnTypes, &e.DurationMs, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}

// Prune deletes runs older than the retention window and returns the
// number removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM analysis_runs WHERE completed_at < $1`,
		time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StartRetention runs Prune on a ticker until the context is
// cancelled. Call in a goroutine from main.
func (s *Store) StartRetention(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Prune(ctx, retention)
			if err != nil {
				s.log.Warn("history prune failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("history pruned", "removed", n)
			}
		}
	}
}
