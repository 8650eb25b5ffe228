package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/security"
)

// jobBuilder configures one job before it is persisted.
type jobBuilder struct {
	queue *Queue
	data  core.Data

	mu    sync.Mutex
	job   *core.Job
	saved bool
}

func (b *jobBuilder) Attempts(n int) core.JobBuilder {
	b.mu.Lock()
	b.job.MaxAttempts = security.ClampAttempts(n)
	b.mu.Unlock()
	return b
}

func (b *jobBuilder) Backoff(bo core.Backoff) core.JobBuilder {
	b.mu.Lock()
	b.job.SetBackoff(bo)
	b.mu.Unlock()
	return b
}

func (b *jobBuilder) RemoveOnComplete(remove bool) core.JobBuilder {
	b.mu.Lock()
	b.job.RemoveOnComplete = remove
	b.mu.Unlock()
	return b
}

func (b *jobBuilder) Title(title string) core.JobBuilder {
	b.mu.Lock()
	b.job.Title = title
	b.mu.Unlock()
	return b
}

func (b *jobBuilder) Job() *core.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.job
}

// Save validates and persists the job. Saving an already saved job returns it unchanged.
func (b *jobBuilder) Save(ctx context.Context) (*core.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.saved {
		return b.job, nil
	}
	if err := security.ValidateJobType(b.job.Type); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(b.data)
	if err != nil {
		return nil, fmt.Errorf("jobs: failed to marshal job data: %w", err)
	}
	if err := security.ValidateJobData(raw); err != nil {
		return nil, err
	}
	b.job.Data = raw

	if err := b.queue.enqueue(ctx, b.job); err != nil {
		return nil, err
	}
	b.saved = true
	return b.job, nil
}

// CreateJob returns a builder for a job of jobType carrying data.
// The job gets one attempt and no backoff until configured otherwise.
func (q *Queue) CreateJob(jobType string, data core.Data) core.JobBuilder {
	if data == nil {
		data = core.Data{}
	}
	return &jobBuilder{
		queue: q,
		data:  data,
		job: &core.Job{
			Type:        jobType,
			Status:      core.StatusInactive,
			MaxAttempts: 1,
			CreatedAt:   time.Now(),
		},
	}
}
