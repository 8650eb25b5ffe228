package core

import (
	"context"
	"time"
)

// Storage defines the persistence layer behind a queue provider.
type Storage interface {
	// Migrate creates the necessary tables or keys.
	Migrate(ctx context.Context) error

	// Job lifecycle
	Enqueue(ctx context.Context, job *Job) error
	Dequeue(ctx context.Context, types []string, workerID string) (*Job, error)
	Complete(ctx context.Context, jobID string, workerID string, result []byte) error
	Fail(ctx context.Context, jobID string, workerID string, errMsg string, retryAt *time.Time) error
	Remove(ctx context.Context, jobID string) error

	// Queries
	GetJob(ctx context.Context, jobID string) (*Job, error)
	CountByStatus(ctx context.Context, status JobStatus) (int64, error)

	// Clear wipes all persisted queue state.
	Clear(ctx context.Context) error
	Close() error
}

// Handler processes one delivered job. Its return is the job's completion:
// a nil error completes the job with result, a non-nil error fails it.
type Handler func(ctx context.Context, job *Job) (any, error)

// JobBuilder configures a job before it is saved.
type JobBuilder interface {
	Attempts(n int) JobBuilder
	Backoff(b Backoff) JobBuilder
	RemoveOnComplete(remove bool) JobBuilder
	Title(title string) JobBuilder
	// Job returns the record as currently configured.
	Job() *Job
	// Save persists the job for delivery.
	Save(ctx context.Context) (*Job, error)
}

// QueueHandle is a live connection to a queue provider.
type QueueHandle interface {
	CreateJob(jobType string, data Data) JobBuilder
	Process(jobType string, concurrency int, h Handler) error
	ShuttingDown() bool
	// Shutdown stops delivery and waits up to timeout for in-flight jobs.
	Shutdown(ctx context.Context, timeout time.Duration) error
	Clear(ctx context.Context) error
}

// Stopper is anything that can be stopped gracefully.
type Stopper interface {
	Stop(ctx context.Context) error
}

// JobFactory creates jobs on a queue. The returned builder is not yet saved.
type JobFactory interface {
	Create(ctx context.Context, jobType string, data Data) (JobBuilder, error)
}
