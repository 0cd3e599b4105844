package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nash169/RoboBrain/internal/trial"
)

// TrialLog keeps finished trials of every run in one sqlite database.
type TrialLog struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewTrialLog(path string) *TrialLog {
	return &TrialLog{path: path}
}

func (l *TrialLog) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return errors.New("trial log path is required")
	}
	if l.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", l.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTrialTable(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	l.db = db
	return nil
}

// Append stores the trials of runID, replacing any with the same number.
func (l *TrialLog) Append(ctx context.Context, runID string, trials []trial.Record) error {
	db, err := l.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials (run_id, number, start_time, end_time, duration)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, number) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			duration = excluded.duration
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tr := range trials {
		if _, err := stmt.ExecContext(ctx, runID, tr.Number, tr.Start, tr.End, tr.Duration); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns the trials of runID in order.
func (l *TrialLog) List(ctx context.Context, runID string) ([]trial.Record, error) {
	db, err := l.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT number, start_time, end_time, duration FROM trials
		WHERE run_id = ? ORDER BY number
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]trial.Record, 0)
	for rows.Next() {
		var tr trial.Record
		if err := rows.Scan(&tr.Number, &tr.Start, &tr.End, &tr.Duration); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Summary is the per-run aggregate over the log.
type Summary struct {
	RunID        string  `json:"run_id"`
	Trials       int     `json:"trials"`
	MeanDuration float64 `json:"mean_duration"`
	MaxDuration  float64 `json:"max_duration"`
}

func (l *TrialLog) Summaries(ctx context.Context) ([]Summary, error) {
	db, err := l.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, COUNT(*), AVG(duration), MAX(duration) FROM trials
		GROUP BY run_id ORDER BY run_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.RunID, &s.Trials, &s.MeanDuration, &s.MaxDuration); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l *TrialLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func (l *TrialLog) getDB() (*sql.DB, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.db == nil {
		return nil, errors.New("trial log is not initialized")
	}
	return l.db, nil
}

func createTrialTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trials (
			run_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			duration REAL NOT NULL,
			PRIMARY KEY (run_id, number)
		);
	`)
	return err
}
