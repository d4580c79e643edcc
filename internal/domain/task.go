package domain

import "time"

type TaskStatus string

const (
	TaskCompleted TaskStatus = "completed" // The tool ran to exit, whatever its exit code
	TaskFailed    TaskStatus = "failed"    // The tool could not be started
	TaskSkipped   TaskStatus = "skipped"   // Never started because the run was cancelled
	TaskLost      TaskStatus = "lost"      // The worker terminated abnormally
)

// DownloadTask is one URL to fetch into the shared run folder.
type DownloadTask struct {
	URL              string
	WorkingDirectory string
}

// NewDownloadTask binds a URL to the run folder it downloads into
func NewDownloadTask(url, workDir string) DownloadTask {
	return DownloadTask{URL: url, WorkingDirectory: workDir}
}

// WorkerResult is the completion notice a worker sends when its task is done.
type WorkerResult struct {
	TaskReference string        `json:"task_reference"`
	StatusMessage string        `json:"status_message"`
	Status        TaskStatus    `json:"status"`
	ExitCode      int           `json:"exit_code"`
	Duration      time.Duration `json:"duration"`
}

// ToolOutput is what the download tool left behind once it exited
type ToolOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}
