package store

import (
	"database/sql"
	"time"

	"github.com/phiroict/yt-parallel/internal/domain"
)

// runDBO maps to the runs table. Times are unix nanoseconds so both drivers share one schema.
type runDBO struct {
	ID          string
	Folder      string
	Destination string
	Target      string
	Status      string
	Total       int
	Completed   int
	Failed      int
	Lost        int
	PrunedCount int
	BytesMoved  int64
	StartedAt   int64
	FinishedAt  sql.NullInt64
	Error       string
}

// Mapper: DBO to Domain Run
func (r *runDBO) ToDomain() *domain.Run {
	run := &domain.Run{
		ID:          r.ID,
		Folder:      r.Folder,
		Destination: r.Destination,
		Target:      r.Target,
		Status:      domain.RunStatus(r.Status),
		Total:       r.Total,
		Completed:   r.Completed,
		Failed:      r.Failed,
		Lost:        r.Lost,
		PrunedCount: r.PrunedCount,
		BytesMoved:  r.BytesMoved,
		StartedAt:   time.Unix(0, r.StartedAt),
		Error:       r.Error,
	}

	if r.FinishedAt.Valid {
		run.FinishedAt = time.Unix(0, r.FinishedAt.Int64)
	}

	return run
}

// Mapper: Domain Run to DBO
func (r *runDBO) FromDomain(run *domain.Run) {
	r.ID = run.ID
	r.Folder = run.Folder
	r.Destination = run.Destination
	r.Target = run.Target
	r.Status = string(run.Status)
	r.Total = run.Total
	r.Completed = run.Completed
	r.Failed = run.Failed
	r.Lost = run.Lost
	r.PrunedCount = run.PrunedCount
	r.BytesMoved = run.BytesMoved
	r.StartedAt = run.StartedAt.UnixNano()
	r.FinishedAt = sql.NullInt64{}
	if !run.FinishedAt.IsZero() {
		r.FinishedAt = sql.NullInt64{Int64: run.FinishedAt.UnixNano(), Valid: true}
	}
	r.Error = run.Error
}

// args returns the DBO in the column order of runColumns
func (r *runDBO) args() []any {
	return []any{
		r.ID, r.Folder, r.Destination, r.Target, r.Status,
		r.Total, r.Completed, r.Failed, r.Lost, r.PrunedCount, r.BytesMoved,
		r.StartedAt, r.FinishedAt, r.Error,
	}
}

// dest returns scan targets in the column order of runColumns
func (r *runDBO) dest() []any {
	return []any{
		&r.ID, &r.Folder, &r.Destination, &r.Target, &r.Status,
		&r.Total, &r.Completed, &r.Failed, &r.Lost, &r.PrunedCount, &r.BytesMoved,
		&r.StartedAt, &r.FinishedAt, &r.Error,
	}
}

const runColumns = `id, folder, destination, target, status, total, completed, failed, lost, pruned_count, bytes_moved, started_at, finished_at, error`

const resultColumns = `task_reference, status_message, status, exit_code, duration_ns`

// resultDBO maps to the task_results table
type resultDBO struct {
	TaskReference string
	StatusMessage string
	Status        string
	ExitCode      int
	DurationNS    int64
}

func (r *resultDBO) ToDomain() domain.WorkerResult {
	return domain.WorkerResult{
		TaskReference: r.TaskReference,
		StatusMessage: r.StatusMessage,
		Status:        domain.TaskStatus(r.Status),
		ExitCode:      r.ExitCode,
		Duration:      time.Duration(r.DurationNS),
	}
}

func (r *resultDBO) dest() []any {
	return []any{&r.TaskReference, &r.StatusMessage, &r.Status, &r.ExitCode, &r.DurationNS}
}
