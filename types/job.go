package types

import (
	"time"
)

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobResult is the completion snapshot of an ingestion job.
type JobResult struct {
	Count     int64      `json:"count"`
	Sample    []Record   `json:"sample"`
	Format    FormatKind `json:"format"`
	Delimiter string     `json:"delimiter"`
	BatchID   string     `json:"batchId"`
}

// Job is the externally visible status document of one ingestion request.
// It is mutated only by the worker executing it; pollers always receive
// copies. Progress counters are monotonically non-decreasing and
// current <= total once total is known.
type Job struct {
	ID            string     `json:"id"`
	Status        JobStatus  `json:"status"`
	QueuePosition int        `json:"queuePosition"`
	Progress      int        `json:"progress"`
	Current       int64      `json:"current"`
	Total         int64      `json:"total"`
	Format        FormatKind `json:"format,omitempty"`
	Delimiter     string     `json:"delimiter,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	FailedAt      *time.Time `json:"failedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
	Result        *JobResult `json:"result,omitempty"`
}
