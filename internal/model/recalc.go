package model

import "time"

// JobStatus is the lifecycle state of a batch recalculation job.
type JobStatus string

const (
	JobPending             JobStatus = "pending"
	JobRunning             JobStatus = "running"
	JobSuccess             JobStatus = "success"
	JobCompletedWithErrors JobStatus = "completed_with_errors"
	JobError               JobStatus = "error"
)

// Finished reports whether the job has reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == JobSuccess || s == JobCompletedWithErrors || s == JobError
}

// RecalcJob is a snapshot of a batch recalculation job's progress, retrievable
// by job ID while the job runs and after it finishes, until explicitly cleared.
type RecalcJob struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	Progress      int       `json:"progress"` // Securities processed so far
	Total         int       `json:"total"`    // Securities in the universe
	Message       string    `json:"message"`
	FailedSymbols []string  `json:"failedSymbols,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt,omitzero"`
}

// RebuildResult summarizes one security's adjusted-series rebuild.
type RebuildResult struct {
	Symbol     string   `json:"symbol"`
	Rows       int      `json:"rows"`       // Adjusted rows regenerated from raw history
	Applied    int      `json:"applied"`    // Due actions processed in book-close order
	Pending    int      `json:"pending"`    // Future-dated actions skipped
	Unresolved []string `json:"unresolved"` // Actions that fell back to a neutral factor, with reasons
}
