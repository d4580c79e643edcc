package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"time"

	"github.com/phiroict/yt-parallel/internal/domain"
	"github.com/phiroict/yt-parallel/internal/platform"
)

// toolArgs is the fixed argument set passed ahead of every URL
var toolArgs = []string{
	"--sponsorblock-remove", "default",
	"--retries", "infinite",
	"--fragment-retries", "infinite",
	"--buffer-size", "16K",
}

// waitDelay bounds how long a killed tool's children may hold the output pipes
const waitDelay = 3 * time.Second

// ToolRunner runs yt-dlp (or a compatible tool) as a subprocess.
type ToolRunner struct {
	BinaryPath string
}

// NewToolRunner resolves tool in PATH.
// Returns an error wrapping domain.ErrToolUnavailable if it is not found.
func NewToolRunner(tool string) (*ToolRunner, error) {
	path, err := platform.LookupTool(tool)
	if err != nil {
		return nil, err
	}
	return &ToolRunner{BinaryPath: path}, nil
}

// Args returns the full argument list for url, url last
func (r *ToolRunner) Args(url string) []string {
	return append(slices.Clone(toolArgs), url)
}

// Run starts the tool in the task's working directory and captures both output streams.
func (r *ToolRunner) Run(ctx context.Context, task domain.DownloadTask) (domain.ToolOutput, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.BinaryPath, r.Args(task.URL)...)
	cmd.Dir = task.WorkingDirectory
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	out := domain.ToolOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return out, nil
	}

	// Killed on cancel, the download did not finish
	if ctx.Err() != nil {
		out.ExitCode = -1
		return out, fmt.Errorf("download of %s interrupted: %w", task.URL, context.Cause(ctx))
	}

	// The tool ran to completion, only its exit status is bad
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}

	out.ExitCode = -1
	return out, fmt.Errorf("%w %s: %v", domain.ErrSpawn, r.BinaryPath, err)
}
