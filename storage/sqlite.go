package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one persisted simulation run: the circuit it exercised, the input
// value, and the full spike log.
type Run struct {
	ID        string
	Circuit   string
	Value     float64
	DT        float64
	CreatedAt time.Time
	Spikes    map[string][]float64
}

// NewRun assembles a run record with a fresh id
func NewRun(circuit string, value, dt float64, spikes map[string][]float64) Run {
	return Run{
		ID:        uuid.NewString(),
		Circuit:   circuit,
		Value:     value,
		DT:        dt,
		CreatedAt: time.Now().UTC(),
		Spikes:    spikes,
	}
}

// SQLiteStore persists simulation runs and their spike logs
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			circuit    TEXT NOT NULL,
			value      REAL NOT NULL,
			dt         REAL NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS spikes (
			run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			neuron_uid TEXT NOT NULL,
			spike_time REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_spikes_run ON spikes(run_id, neuron_uid);
	`)
	return err
}

// SaveRun persists a run and its spike log in one transaction
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, circuit, value, dt, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Circuit, run.Value, run.DT, run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	for uid, times := range run.Spikes {
		for _, t := range times {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO spikes (run_id, neuron_uid, spike_time)
				VALUES (?, ?, ?)
			`, run.ID, uid, t); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetRun loads one run with its spike log
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var run Run
	var createdAt string
	err = db.QueryRowContext(ctx, `
		SELECT id, circuit, value, dt, created_at FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Circuit, &run.Value, &run.DT, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, false, fmt.Errorf("parsing created_at for run %s: %w", id, err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT neuron_uid, spike_time FROM spikes
		WHERE run_id = ? ORDER BY neuron_uid, spike_time
	`, id)
	if err != nil {
		return Run{}, false, err
	}
	defer rows.Close()

	run.Spikes = make(map[string][]float64)
	for rows.Next() {
		var uid string
		var t float64
		if err := rows.Scan(&uid, &t); err != nil {
			return Run{}, false, err
		}
		run.Spikes[uid] = append(run.Spikes[uid], t)
	}
	if err := rows.Err(); err != nil {
		return Run{}, false, err
	}

	return run, true, nil
}

// ListRuns returns run metadata (no spike logs), newest first
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, circuit, value, dt, created_at FROM runs
		ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Circuit, &run.Value, &run.DT, &createdAt); err != nil {
			return nil, err
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}
