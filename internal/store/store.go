// Package store keeps a history of finished runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rootfind/internal/report"
	"rootfind/internal/roots"
)

var ErrNotFound = errors.New("run not found")

// Record is one finished run.
type Record struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"createdAt"`
	Problem    string          `json:"problem,omitempty"`
	Func       string          `json:"func,omitempty"`
	Method     roots.Method    `json:"method"`
	Tolerance  float64         `json:"tolerance"`
	Outcome    string          `json:"outcome"`
	Root       *float64        `json:"root"`
	Reason     string          `json:"reason,omitempty"`
	Iterations int             `json:"iterations"`
	Trace      json.RawMessage `json:"trace,omitempty"`
}

// NewRecord captures a summary. Root stays nil when the run produced none.
func NewRecord(id, problem, fn string, tol float64, s roots.Summary) (*Record, error) {
	trace, err := json.Marshal(report.WireRows(s.Rows))
	if err != nil {
		return nil, fmt.Errorf("encode trace: %w", err)
	}
	rec := &Record{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		Problem:    problem,
		Func:       fn,
		Method:     s.Method,
		Tolerance:  tol,
		Outcome:    s.Outcome.String(),
		Iterations: s.Iterations(),
		Trace:      trace,
	}
	if s.HasRoot() && !math.IsNaN(s.Root) && !math.IsInf(s.Root, 0) {
		root := s.Root
		rec.Root = &root
	}
	if s.Reason != nil {
		rec.Reason = s.Reason.Error()
	}
	return rec, nil
}

// SQLiteStore implements the run history on SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection so :memory: databases are shared
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		problem TEXT,
		func TEXT,
		method TEXT NOT NULL,
		tolerance REAL NOT NULL,
		outcome TEXT NOT NULL,
		root REAL,
		reason TEXT,
		iterations INTEGER NOT NULL,
		trace TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`)
	return err
}

// Save inserts or replaces rec.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, created_at, problem, func, method, tolerance, outcome, root, reason, iterations, trace)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.CreatedAt, rec.Problem, rec.Func, string(rec.Method), rec.Tolerance,
		rec.Outcome, rec.Root, rec.Reason, rec.Iterations, string(rec.Trace))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get loads one run including its trace.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, problem, func, method, tolerance, outcome, root, reason, iterations, trace
		FROM runs WHERE id = ?
	`, id)
	rec, err := scanRecord(row.Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns the newest runs first, without traces.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, problem, func, method, tolerance, outcome, root, reason, iterations, NULL
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(scan func(...any) error, withTrace bool) (*Record, error) {
	var (
		rec                 Record
		problem, fn, reason sql.NullString
		method              string
		root                sql.NullFloat64
		trace               sql.NullString
	)
	err := scan(&rec.ID, &rec.CreatedAt, &problem, &fn, &method, &rec.Tolerance,
		&rec.Outcome, &root, &reason, &rec.Iterations, &trace)
	if err != nil {
		return nil, err
	}
	rec.Problem = problem.String
	rec.Func = fn.String
	rec.Method = roots.Method(method)
	rec.Reason = reason.String
	if root.Valid {
		v := root.Float64
		rec.Root = &v
	}
	if withTrace && trace.Valid {
		rec.Trace = json.RawMessage(trace.String)
	}
	return &rec, nil
}
