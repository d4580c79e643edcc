package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/phiroict/yt-parallel/internal/domain"
	"github.com/phiroict/yt-parallel/internal/infra/logger"
)

// Dispatcher fans a task list out over a worker pool, one worker per task.
type Dispatcher struct {
	runner              Runner
	logger              *logger.Logger
	maxWorkers          int
	abortOnSpawnFailure bool
}

type DispatcherOption func(*Dispatcher)

// WithMaxWorkers caps how many tools run at once. 0 starts every task immediately.
func WithMaxWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) { d.maxWorkers = n }
}

// WithAbortOnSpawnFailure makes the first tool that cannot be started stop the whole batch
func WithAbortOnSpawnFailure(abort bool) DispatcherOption {
	return func(d *Dispatcher) { d.abortOnSpawnFailure = abort }
}

func NewDispatcher(r Runner, l *logger.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{runner: r, logger: l}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Batch is one dispatched task list: the completion channel plus every worker handle.
type Batch struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	logger  *logger.Logger
	results chan domain.WorkerResult
	handles []*handle
}

// Dispatch starts the workers and returns without waiting for them.
// Drain the batch with Collect, then Join it.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []domain.DownloadTask) *Batch {
	ctx, cancel := context.WithCancelCause(ctx)

	b := &Batch{
		ctx:     ctx,
		cancel:  cancel,
		logger:  d.logger,
		results: make(chan domain.WorkerResult, len(tasks)),
		handles: make([]*handle, len(tasks)),
	}

	for i, task := range tasks {
		b.handles[i] = &handle{id: i + 1, task: task, done: make(chan struct{})}
	}

	p := pool.New()
	if d.maxWorkers > 0 {
		p = p.WithMaxGoroutines(d.maxWorkers)
	}

	// Submitting blocks while the pool is full, so it runs beside the collector
	go func() {
		for _, h := range b.handles {
			d.logger.Info("Processing %s", h.task.URL)
			p.Go(func() {
				defer close(h.done)

				if r := panics.Try(func() { b.results <- d.work(b, h) }); r != nil {
					h.lost = r.AsError()
				}
			})
			d.logger.Debug("Created worker %d for url %s", h.id, h.task.URL)
		}

		// Every worker has returned, no more sends can happen
		p.Wait()
		close(b.results)
	}()

	return b
}

func (d *Dispatcher) work(b *Batch, h *handle) domain.WorkerResult {
	res := domain.WorkerResult{TaskReference: h.task.URL}

	if b.ctx.Err() != nil {
		res.Status = domain.TaskSkipped
		res.StatusMessage = fmt.Sprintf("Skipped %s: %v", h.task.URL, context.Cause(b.ctx))
		return res
	}

	d.logger.Debug("Worker %d starting downloading %s", h.id, h.task.URL)
	started := time.Now()

	out, err := d.runner.Run(b.ctx, h.task)
	res.Duration = time.Since(started)
	res.ExitCode = out.ExitCode

	if err != nil {
		if b.ctx.Err() != nil {
			res.Status = domain.TaskSkipped
			res.StatusMessage = fmt.Sprintf("Skipped %s: %v", h.task.URL, context.Cause(b.ctx))
			return res
		}

		d.logger.Error("Worker %d could not run the download tool for %s: %v", h.id, h.task.URL, err)
		res.Status = domain.TaskFailed
		res.StatusMessage = fmt.Sprintf("Failed %s: %v", h.task.URL, err)

		if d.abortOnSpawnFailure && errors.Is(err, domain.ErrSpawn) {
			b.cancel(err)
		}
		return res
	}

	d.logger.Debug("Worker %d completed downloading %s (exit %d)", h.id, h.task.URL, out.ExitCode)
	if d.logger.Enabled(logger.LevelDebug) {
		d.logger.Debug("Worker %d StdOut: %q", h.id, out.Stdout)
		d.logger.Debug("Worker %d StdErr: %q", h.id, out.Stderr)
	}

	res.Status = domain.TaskCompleted
	res.StatusMessage = fmt.Sprintf("Downloaded %s", h.task.URL)
	return res
}

// Total is the number of dispatched tasks
func (b *Batch) Total() int {
	return len(b.handles)
}

// Collect drains completion notices until every worker has finished, in arrival order.
// progress may be nil.
func (b *Batch) Collect(progress ProgressFunc) []domain.WorkerResult {
	collected := make([]domain.WorkerResult, 0, len(b.handles))

	for res := range b.results {
		collected = append(collected, res)
		if progress != nil {
			progress(len(collected), len(b.handles), res)
		}
	}

	return collected
}

// Join waits on each worker in spawn order. Workers that terminated abnormally
// are logged and returned as lost results; they never stop the join.
func (b *Batch) Join() []domain.WorkerResult {
	var lost []domain.WorkerResult

	for _, h := range b.handles {
		b.logger.Trace("About to join worker %d", h.id)
		<-h.done

		if h.lost != nil {
			b.logger.Error("Could not join worker %d, consider download of %s lost: %v", h.id, h.task.URL, h.lost)
			lost = append(lost, domain.WorkerResult{
				TaskReference: h.task.URL,
				StatusMessage: fmt.Sprintf("Lost %s: %v", h.task.URL, errors.Join(domain.ErrWorkerLost, h.lost)),
				Status:        domain.TaskLost,
				ExitCode:      -1,
			})
			continue
		}

		b.logger.Trace("Joined worker %d", h.id)
	}

	return lost
}

// Err returns the spawn failure that aborted the batch, if any
func (b *Batch) Err() error {
	cause := context.Cause(b.ctx)
	if errors.Is(cause, domain.ErrSpawn) {
		return cause
	}
	return nil
}

// Release frees the batch context once the batch has been joined
func (b *Batch) Release() {
	b.cancel(context.Canceled)
}
