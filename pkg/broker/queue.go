package broker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/config"
	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/security"
)

// Queue is a live connection to job storage. It implements core.QueueHandle.
type Queue struct {
	storage  core.Storage
	cfg      config.Config
	logger   *slog.Logger
	workerID string
	retry    RetryConfig

	mu sync.RWMutex

	// Hooks
	onStart    []func(context.Context, *core.Job)
	onComplete []func(context.Context, *core.Job, any)
	onFail     []func(context.Context, *core.Job, error)
	onRetry    []func(context.Context, *core.Job, int, error)
	onRemove   []func(context.Context, string, string)

	eventSubs []chan core.Event

	// Workers
	runCtx    context.Context
	cancelRun context.CancelFunc
	inflight  sync.WaitGroup

	shuttingDown atomic.Bool
	closed       atomic.Bool
}

// NewQueue creates a queue on s using cfg for worker polling.
func NewQueue(s core.Storage, cfg config.Config, opts ...Option) *Queue {
	set := newSettings(opts)
	runCtx, cancel := context.WithCancel(context.Background())
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Queue{
		storage:   s,
		cfg:       cfg.Clone(),
		logger:    set.logger,
		workerID:  set.workerID,
		retry:     set.storageRetry,
		runCtx:    runCtx,
		cancelRun: cancel,
	}
}

// Storage returns the underlying storage.
func (q *Queue) Storage() core.Storage {
	return q.storage
}

// WorkerID returns the id this queue locks jobs with.
func (q *Queue) WorkerID() string {
	return q.workerID
}

func (q *Queue) enqueue(ctx context.Context, job *core.Job) error {
	if q.closed.Load() {
		return core.ErrNoQueue
	}
	err := retryWithBackoff(ctx, q.retry, func() error {
		return q.storage.Enqueue(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("jobs: failed to enqueue: %w", err)
	}
	q.logger.Debug("job enqueued", "job_id", job.ID, "job_type", job.Type)
	q.Emit(&core.JobEnqueued{Job: job, Timestamp: time.Now()})
	return nil
}

// Process starts concurrency workers handling jobs of jobType with h.
// Calling Process again for the same type adds more workers.
func (q *Queue) Process(jobType string, concurrency int, h core.Handler) error {
	if err := security.ValidateJobType(jobType); err != nil {
		return fmt.Errorf("jobs: invalid job type %q: %w", jobType, err)
	}
	if h == nil {
		return fmt.Errorf("jobs: nil handler for %q", jobType)
	}

	w := &worker{
		queue:   q,
		jobType: jobType,
		handler: h,
		slots:   make(chan struct{}, security.ClampConcurrency(concurrency)),
	}

	// The fetch loop joins inflight under mu so Shutdown cannot start waiting first.
	q.mu.Lock()
	if q.shuttingDown.Load() || q.closed.Load() {
		q.mu.Unlock()
		return core.ErrShuttingDown
	}
	if q.runCtx.Err() != nil {
		// restarted after a shutdown that timed out
		q.runCtx, q.cancelRun = context.WithCancel(context.Background())
	}
	runCtx := q.runCtx
	q.inflight.Add(1)
	q.mu.Unlock()

	go w.run(runCtx)

	q.logger.Info("processing jobs", "job_type", jobType, "concurrency", cap(w.slots))
	return nil
}

// ShuttingDown reports whether a shutdown is in progress.
func (q *Queue) ShuttingDown() bool {
	return q.shuttingDown.Load()
}

// Shutdown stops fetching jobs and waits up to timeout for in-flight jobs.
// A timeout of zero waits until ctx ends. On success the storage is closed;
// on failure the queue stays open and Shutdown may be called again.
func (q *Queue) Shutdown(ctx context.Context, timeout time.Duration) error {
	if q.closed.Load() || !q.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	q.mu.Lock()
	q.cancelRun()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(done)
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-done:
	case <-expired:
		q.shuttingDown.Store(false)
		return core.ErrShutdownTimeout
	case <-ctx.Done():
		q.shuttingDown.Store(false)
		return fmt.Errorf("%w: %w", core.ErrShutdownTimeout, ctx.Err())
	}

	q.closed.Store(true)
	q.shuttingDown.Store(false)
	if err := q.storage.Close(); err != nil {
		return fmt.Errorf("jobs: close broker: %w", err)
	}
	q.logger.Info("queue shut down")
	return nil
}

// Clear removes every persisted job.
func (q *Queue) Clear(ctx context.Context) error {
	if q.closed.Load() {
		return core.ErrNoQueue
	}
	return q.storage.Clear(ctx)
}

// OnJobStart registers a callback for when a job starts.
func (q *Queue) OnJobStart(fn func(context.Context, *core.Job)) {
	q.mu.Lock()
	q.onStart = append(q.onStart, fn)
	q.mu.Unlock()
}

// OnJobComplete registers a callback for when a job completes with a result.
func (q *Queue) OnJobComplete(fn func(context.Context, *core.Job, any)) {
	q.mu.Lock()
	q.onComplete = append(q.onComplete, fn)
	q.mu.Unlock()
}

// OnJobFail registers a callback for when a job fails permanently.
func (q *Queue) OnJobFail(fn func(context.Context, *core.Job, error)) {
	q.mu.Lock()
	q.onFail = append(q.onFail, fn)
	q.mu.Unlock()
}

// OnRetry registers a callback for when a failed job is rescheduled.
func (q *Queue) OnRetry(fn func(context.Context, *core.Job, int, error)) {
	q.mu.Lock()
	q.onRetry = append(q.onRetry, fn)
	q.mu.Unlock()
}

// OnJobRemove registers a callback for when a completed job is removed.
// It receives the job id and type.
func (q *Queue) OnJobRemove(fn func(ctx context.Context, jobID, jobType string)) {
	q.mu.Lock()
	q.onRemove = append(q.onRemove, fn)
	q.mu.Unlock()
}

// Events returns a channel receiving queue events.
// The caller must call Unsubscribe when done.
func (q *Queue) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	q.mu.Lock()
	q.eventSubs = append(q.eventSubs, ch)
	q.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel created by Events. The channel is not closed.
func (q *Queue) Unsubscribe(ch <-chan core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, sub := range q.eventSubs {
		if sub == ch {
			q.eventSubs = append(q.eventSubs[:i], q.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit sends e to every subscriber, dropping it for subscribers that are full.
func (q *Queue) Emit(e core.Event) {
	q.mu.RLock()
	subs := make([]chan core.Event, len(q.eventSubs))
	copy(subs, q.eventSubs)
	q.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (q *Queue) callStartHooks(ctx context.Context, job *core.Job) {
	q.mu.RLock()
	hooks := slices.Clone(q.onStart)
	q.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, job)
	}
}

func (q *Queue) callCompleteHooks(ctx context.Context, job *core.Job, result any) {
	q.mu.RLock()
	hooks := slices.Clone(q.onComplete)
	q.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, job, result)
	}
}

func (q *Queue) callFailHooks(ctx context.Context, job *core.Job, err error) {
	q.mu.RLock()
	hooks := slices.Clone(q.onFail)
	q.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, job, err)
	}
}

func (q *Queue) callRetryHooks(ctx context.Context, job *core.Job, attempt int, err error) {
	q.mu.RLock()
	hooks := slices.Clone(q.onRetry)
	q.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, job, attempt, err)
	}
}

func (q *Queue) callRemoveHooks(ctx context.Context, jobID, jobType string) {
	q.mu.RLock()
	hooks := slices.Clone(q.onRemove)
	q.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, jobID, jobType)
	}
}
