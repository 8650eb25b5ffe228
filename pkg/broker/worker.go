package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/backoff"
	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/jobctx"
)

// worker fetches jobs of one type and runs up to cap(slots) of them at once.
type worker struct {
	queue   *Queue
	jobType string
	handler core.Handler
	slots   chan struct{}
}

// run polls storage until ctx is cancelled. In-flight jobs keep running
// after cancellation; Shutdown waits for them.
func (w *worker) run(ctx context.Context) {
	q := w.queue
	defer q.inflight.Done()

	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	types := []string{w.jobType}
	for {
		select {
		case <-ctx.Done():
			return
		case w.slots <- struct{}{}:
		}

		job, err := q.storage.Dequeue(ctx, types, q.workerID)
		if err != nil && !errors.Is(err, context.Canceled) {
			q.logger.Error("failed to dequeue", "job_type", w.jobType, "error", err)
		}
		if job == nil {
			<-w.slots
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			continue
		}

		q.inflight.Add(1)
		go func(job *core.Job) {
			defer q.inflight.Done()
			defer func() { <-w.slots }()
			w.processJob(context.WithoutCancel(ctx), job)
		}(job)
	}
}

func (w *worker) processJob(ctx context.Context, job *core.Job) {
	q := w.queue
	start := time.Now()

	q.callStartHooks(ctx, job)
	q.Emit(&core.JobStarted{Job: job, Timestamp: start})

	result, err := w.execute(jobctx.WithJob(ctx, job), job)
	if err != nil {
		w.handleError(ctx, job, err)
		return
	}

	raw, encErr := json.Marshal(result)
	if encErr != nil {
		q.logger.Warn("job result not encodable", "job_id", job.ID, "error", encErr)
		raw = nil
	}

	err = retryWithBackoff(ctx, q.retry, func() error {
		return q.storage.Complete(ctx, job.ID, q.workerID, raw)
	})
	if err != nil {
		q.logger.Error("failed to complete job after retries", "job_id", job.ID, "error", err)
		return
	}
	job.Status = core.StatusComplete
	job.Result = raw

	q.logger.Debug("job completed", "job_id", job.ID, "job_type", job.Type, "duration", time.Since(start))
	q.callCompleteHooks(ctx, job, result)
	q.Emit(&core.JobCompleted{Job: job, Result: result, Duration: time.Since(start), Timestamp: time.Now()})

	if job.RemoveOnComplete {
		w.remove(ctx, job)
	}
}

func (w *worker) execute(ctx context.Context, job *core.Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.handler(ctx, job)
}

func (w *worker) handleError(ctx context.Context, job *core.Job, err error) {
	q := w.queue

	if job.Attempt < job.MaxAttempts {
		delay := backoff.For(job.Backoff()).Delay(job.Attempt)
		retryAt := time.Now().Add(delay)
		w.fail(ctx, job, err, &retryAt)
		job.Status = core.StatusInactive

		q.logger.Info("job failed, retrying",
			"job_id", job.ID, "job_type", job.Type, "attempt", job.Attempt, "retry_in", delay, "error", err)
		q.callRetryHooks(ctx, job, job.Attempt, err)
		q.Emit(&core.JobRetrying{Job: job, Attempt: job.Attempt, Error: err, NextRunAt: retryAt, Timestamp: time.Now()})
		return
	}

	w.fail(ctx, job, err, nil)
	job.Status = core.StatusFailed

	q.logger.Warn("job failed", "job_id", job.ID, "job_type", job.Type, "attempt", job.Attempt, "error", err)
	q.callFailHooks(ctx, job, err)
	q.Emit(&core.JobFailed{Job: job, Error: err, Timestamp: time.Now()})
}

func (w *worker) fail(ctx context.Context, job *core.Job, cause error, retryAt *time.Time) {
	q := w.queue
	job.LastError = cause.Error()
	err := retryWithBackoff(ctx, q.retry, func() error {
		return q.storage.Fail(ctx, job.ID, q.workerID, cause.Error(), retryAt)
	})
	if err != nil {
		q.logger.Error("failed to mark job as failed after retries", "job_id", job.ID, "error", err)
	}
}

func (w *worker) remove(ctx context.Context, job *core.Job) {
	q := w.queue
	err := retryWithBackoff(ctx, q.retry, func() error {
		err := q.storage.Remove(ctx, job.ID)
		if errors.Is(err, core.ErrJobNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		q.logger.Error("failed to remove completed job", "job_id", job.ID, "error", err)
		return
	}
	q.callRemoveHooks(ctx, job.ID, job.Type)
	q.Emit(&core.JobRemoved{JobID: job.ID, Type: job.Type, Timestamp: time.Now()})
}
