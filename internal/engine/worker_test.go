package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phiroict/yt-parallel/internal/domain"
	"github.com/phiroict/yt-parallel/internal/infra/logger"
)

func makeTasks(n int) []domain.DownloadTask {
	tasks := make([]domain.DownloadTask, n)
	for i := range tasks {
		tasks[i] = domain.NewDownloadTask(fmt.Sprintf("https://youtu.be/v%d", i), "/tmp/run")
	}
	return tasks
}

var okRunner = RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
	return domain.ToolOutput{}, nil
})

func TestDispatchCollectsEveryTask(t *testing.T) {
	const n = 25
	d := NewDispatcher(okRunner, logger.Discard())

	batch := d.Dispatch(context.Background(), makeTasks(n))
	defer batch.Release()

	var last int
	results := batch.Collect(func(count, total int, res domain.WorkerResult) {
		if count != last+1 {
			t.Errorf("progress jumped from %d to %d", last, count)
		}
		if total != n {
			t.Errorf("total = %d, want %d", total, n)
		}
		last = count
	})

	if len(results) != n || last != n {
		t.Fatalf("collected %d results, progress reached %d; want %d", len(results), last, n)
	}

	seen := map[string]bool{}
	for _, res := range results {
		if res.Status != domain.TaskCompleted {
			t.Errorf("%s status = %s, want completed", res.TaskReference, res.Status)
		}
		if res.StatusMessage != "Downloaded "+res.TaskReference {
			t.Errorf("StatusMessage = %q", res.StatusMessage)
		}
		seen[res.TaskReference] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct tasks, got %d", n, len(seen))
	}

	if lost := batch.Join(); len(lost) != 0 {
		t.Errorf("Join() lost %d workers, want 0", len(lost))
	}
	if err := batch.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestDispatchNonZeroExitStillCompletes(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
		return domain.ToolOutput{ExitCode: 1}, nil
	})

	batch := NewDispatcher(runner, logger.Discard()).Dispatch(context.Background(), makeTasks(3))
	defer batch.Release()

	results := batch.Collect(nil)
	batch.Join()

	for _, res := range results {
		if res.Status != domain.TaskCompleted || res.ExitCode != 1 {
			t.Errorf("result = %+v, want completed with exit 1", res)
		}
	}
}

func TestDispatchUnboundedStartsAllAtOnce(t *testing.T) {
	const n = 12
	var running atomic.Int32
	release := make(chan struct{})

	runner := RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
		running.Add(1)
		<-release
		return domain.ToolOutput{}, nil
	})

	batch := NewDispatcher(runner, logger.Discard()).Dispatch(context.Background(), makeTasks(n))
	defer batch.Release()

	deadline := time.After(5 * time.Second)
	for running.Load() < n {
		select {
		case <-deadline:
			close(release)
			t.Fatalf("only %d of %d tasks started", running.Load(), n)
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(release)

	if results := batch.Collect(nil); len(results) != n {
		t.Errorf("collected %d results, want %d", len(results), n)
	}
	batch.Join()
}

func TestDispatchBoundedPool(t *testing.T) {
	const n, limit = 20, 3
	var running, peak atomic.Int32

	runner := RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return domain.ToolOutput{}, nil
	})

	batch := NewDispatcher(runner, logger.Discard(), WithMaxWorkers(limit)).Dispatch(context.Background(), makeTasks(n))
	defer batch.Release()

	if results := batch.Collect(nil); len(results) != n {
		t.Errorf("collected %d results, want %d", len(results), n)
	}
	batch.Join()

	if p := peak.Load(); p > limit {
		t.Errorf("peak concurrency = %d, want at most %d", p, limit)
	}
}

func TestJoinReportsLostWorkers(t *testing.T) {
	tasks := makeTasks(4)
	runner := RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
		if task.URL == tasks[1].URL {
			panic("worker blew up")
		}
		return domain.ToolOutput{}, nil
	})

	batch := NewDispatcher(runner, logger.Discard()).Dispatch(context.Background(), tasks)
	defer batch.Release()

	results := batch.Collect(nil)
	if len(results) != 3 {
		t.Fatalf("collected %d results, want 3", len(results))
	}

	lost := batch.Join()
	if len(lost) != 1 {
		t.Fatalf("Join() lost %d, want 1", len(lost))
	}
	if lost[0].TaskReference != tasks[1].URL || lost[0].Status != domain.TaskLost {
		t.Errorf("lost = %+v", lost[0])
	}
	if err := batch.Err(); err != nil {
		t.Errorf("a lost worker must not fail the batch, Err() = %v", err)
	}
}

func TestSpawnFailureIsPerTaskByDefault(t *testing.T) {
	tasks := makeTasks(5)
	runner := RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
		if task.URL == tasks[2].URL {
			return domain.ToolOutput{ExitCode: -1}, fmt.Errorf("%w: permission denied", domain.ErrSpawn)
		}
		return domain.ToolOutput{}, nil
	})

	batch := NewDispatcher(runner, logger.Discard()).Dispatch(context.Background(), tasks)
	defer batch.Release()

	results := batch.Collect(nil)
	batch.Join()

	run := &domain.Run{}
	run.Tally(results)
	if run.Completed != 4 || run.Failed != 1 {
		t.Errorf("completed %d failed %d, want 4 and 1", run.Completed, run.Failed)
	}
	if err := batch.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestAbortOnSpawnFailure(t *testing.T) {
	tasks := makeTasks(4)
	runner := RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
		if task.URL == tasks[0].URL {
			return domain.ToolOutput{ExitCode: -1}, fmt.Errorf("%w: no such file", domain.ErrSpawn)
		}
		return domain.ToolOutput{}, nil
	})

	d := NewDispatcher(runner, logger.Discard(), WithMaxWorkers(1), WithAbortOnSpawnFailure(true))
	batch := d.Dispatch(context.Background(), tasks)
	defer batch.Release()

	results := batch.Collect(nil)
	batch.Join()

	if len(results) != len(tasks) {
		t.Fatalf("collected %d results, want %d", len(results), len(tasks))
	}

	statuses := map[domain.TaskStatus]int{}
	for _, res := range results {
		statuses[res.Status]++
	}
	if statuses[domain.TaskFailed] != 1 || statuses[domain.TaskSkipped] != 3 {
		t.Errorf("statuses = %v, want 1 failed and 3 skipped", statuses)
	}

	if err := batch.Err(); !errors.Is(err, domain.ErrSpawn) {
		t.Errorf("Err() = %v, want ErrSpawn", err)
	}
}

func TestDispatchCancelledContextSkips(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	runner := RunnerFunc(func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
		calls.Add(1)
		return domain.ToolOutput{}, nil
	})

	batch := NewDispatcher(runner, logger.Discard()).Dispatch(ctx, makeTasks(3))
	defer batch.Release()

	results := batch.Collect(nil)
	batch.Join()

	if calls.Load() != 0 {
		t.Errorf("runner called %d times after cancel", calls.Load())
	}
	for _, res := range results {
		if res.Status != domain.TaskSkipped {
			t.Errorf("status = %s, want skipped", res.Status)
		}
	}
	if err := batch.Err(); err != nil {
		t.Errorf("Err() = %v, cancellation is not a spawn failure", err)
	}
}

func TestDispatchEmpty(t *testing.T) {
	batch := NewDispatcher(okRunner, logger.Discard()).Dispatch(context.Background(), nil)
	defer batch.Release()

	if results := batch.Collect(nil); len(results) != 0 {
		t.Errorf("collected %d results from an empty batch", len(results))
	}
	if lost := batch.Join(); len(lost) != 0 {
		t.Errorf("lost %d from an empty batch", len(lost))
	}
}
