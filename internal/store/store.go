package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/phiroict/yt-parallel/internal/domain"
)

// PersistentStore keeps run history in a local sqlite file
type PersistentStore struct {
	db *sql.DB
}

func NewPersistentStore(ctx context.Context, dbPath string) (*PersistentStore, error) {
	dbDir := filepath.Dir(dbPath)

	// Ensure the database directory exists
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the metadata db
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Ping makes sure the file is actually accessible and the DSN is valid
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	store := &PersistentStore{db: db}

	if err := runMigrations(ctx, store); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return store, nil
}

func (s *PersistentStore) exec(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// SaveRun upserts the run row and replaces its task results
func (s *PersistentStore) SaveRun(ctx context.Context, run *domain.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var dbo runDBO
	dbo.FromDomain(run)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			folder = excluded.folder,
			destination = excluded.destination,
			target = excluded.target,
			status = excluded.status,
			total = excluded.total,
			completed = excluded.completed,
			failed = excluded.failed,
			lost = excluded.lost,
			pruned_count = excluded.pruned_count,
			bytes_moved = excluded.bytes_moved,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			error = excluded.error`,
		dbo.args()...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_results WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear results of run %s: %w", run.ID, err)
	}

	for i, res := range run.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_results (run_id, seq, `+resultColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, res.TaskReference, res.StatusMessage, string(res.Status), res.ExitCode, int64(res.Duration),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result %d of run %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

// GetRun returns the run and its results, nil, nil if there is no such run
func (s *PersistentStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ? LIMIT 1`, id)

	var dbo runDBO
	if err := row.Scan(dbo.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Return nil, nil to indicate "Not found"
		}
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}
	run := dbo.ToDomain()

	rows, err := s.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM task_results WHERE run_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var res resultDBO
		if err := rows.Scan(res.dest()...); err != nil {
			return nil, err
		}
		run.Results = append(run.Results, res.ToDomain())
	}

	return run, rows.Err()
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means no limit.
func (s *PersistentStore) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		var dbo runDBO
		if err := rows.Scan(dbo.dest()...); err != nil {
			return nil, err
		}
		runs = append(runs, dbo.ToDomain())
	}

	return runs, rows.Err()
}

func (s *PersistentStore) Close() error {
	return s.db.Close()
}
