// Package jobctx provides public access to job context for background methods.
package jobctx

import (
	"context"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

type jobContextKey struct{}

// WithJob returns a context carrying the job being processed.
func WithJob(ctx context.Context, job *core.Job) context.Context {
	return context.WithValue(ctx, jobContextKey{}, job)
}

// JobFromContext returns the current Job from context, or nil if not in a job handler.
// Use this to get the job ID for logging or progress tracking.
func JobFromContext(ctx context.Context) *core.Job {
	job, _ := ctx.Value(jobContextKey{}).(*core.Job)
	return job
}

// JobIDFromContext returns the current job ID from context, or empty string if not in a job handler.
func JobIDFromContext(ctx context.Context) string {
	job := JobFromContext(ctx)
	if job == nil {
		return ""
	}
	return job.ID
}

// AttemptFromContext returns the delivery attempt of the current job, or 0 if not in a job handler.
func AttemptFromContext(ctx context.Context) int {
	job := JobFromContext(ctx)
	if job == nil {
		return 0
	}
	return job.Attempt
}
