package engine

import (
	"context"

	"github.com/phiroict/yt-parallel/internal/domain"
)

// Runner executes the download tool for a single task and blocks until it exits.
// A non-zero exit is not an error; only failing to start the tool is.
type Runner interface {
	Run(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error)
}

// RunnerFunc adapts a plain function to Runner
type RunnerFunc func(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error)

func (f RunnerFunc) Run(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
	return f(ctx, task)
}

// ProgressFunc is called by the collector for every completion notice, n counting from 1
type ProgressFunc func(n, total int, res domain.WorkerResult)

// handle is the termination handle of one spawned worker
type handle struct {
	id   int
	task domain.DownloadTask
	done chan struct{}
	lost error // set before done is closed
}
