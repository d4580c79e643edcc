package domain

import "time"

type RunStatus string

const (
	RunRunning          RunStatus = "running"
	RunCompleted        RunStatus = "completed"
	RunRelocationFailed RunStatus = "relocation_failed" // Downloads done, folder left in place
	RunFailed           RunStatus = "failed"
)

// Run represents one invocation: a batch of tasks sharing one run folder
type Run struct {
	ID          string    `json:"id"`
	Folder      string    `json:"folder"`
	Destination string    `json:"destination"`
	Target      string    `json:"target,omitempty"`
	Status      RunStatus `json:"status"`

	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Lost      int `json:"lost"`

	PrunedCount int   `json:"pruned_count"`
	BytesMoved  int64 `json:"bytes_moved"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Error      string    `json:"error,omitempty"`

	Results []WorkerResult `json:"results,omitempty"`
}

// Tally counts the results by status into the run totals
func (r *Run) Tally(results []WorkerResult) {
	r.Completed, r.Failed, r.Lost = 0, 0, 0
	for _, res := range results {
		switch res.Status {
		case TaskCompleted:
			r.Completed++
		case TaskLost:
			r.Lost++
		default:
			r.Failed++
		}
	}
}
