package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phiroict/yt-parallel/internal/domain"
)

// PostgresStore keeps run history in a shared postgres database
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := &PostgresStore{pool: pool}

	if err := runMigrations(ctx, store); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) exec(ctx context.Context, query string) error {
	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *domain.Run) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var dbo runDBO
	dbo.FromDomain(run)

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			folder = EXCLUDED.folder,
			destination = EXCLUDED.destination,
			target = EXCLUDED.target,
			status = EXCLUDED.status,
			total = EXCLUDED.total,
			completed = EXCLUDED.completed,
			failed = EXCLUDED.failed,
			lost = EXCLUDED.lost,
			pruned_count = EXCLUDED.pruned_count,
			bytes_moved = EXCLUDED.bytes_moved,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			error = EXCLUDED.error`,
		dbo.args()...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run %s: %w", run.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM task_results WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("failed to clear results of run %s: %w", run.ID, err)
	}

	if len(run.Results) > 0 {
		rows := make([][]any, len(run.Results))
		for i, res := range run.Results {
			rows[i] = []any{run.ID, i, res.TaskReference, res.StatusMessage, string(res.Status), res.ExitCode, int64(res.Duration)}
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"task_results"},
			[]string{"run_id", "seq", "task_reference", "status_message", "status", "exit_code", "duration_ns"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to insert results of run %s: %w", run.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	var dbo runDBO
	err := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1 LIMIT 1`, id).Scan(dbo.dest()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}
	run := dbo.ToDomain()

	rows, err := s.pool.Query(ctx, `SELECT `+resultColumns+` FROM task_results WHERE run_id = $1 ORDER BY seq ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results of run %s: %w", id, err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.WorkerResult, error) {
		var res resultDBO
		err := row.Scan(res.dest()...)
		return res.ToDomain(), err
	})
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		run.Results = results
	}

	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Run, error) {
		var dbo runDBO
		err := row.Scan(dbo.dest()...)
		return dbo.ToDomain(), err
	})
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
