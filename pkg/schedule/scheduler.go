package schedule

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Factory creates jobs. *queue.Manager implements it.
type Factory = core.JobFactory

// Scheduler creates jobs on recurring schedules.
type Scheduler struct {
	cron    *cron.Cron
	factory Factory
	logger  *slog.Logger
}

// Option configures a Scheduler.
type Option interface {
	Apply(*Scheduler)
}

type optionFunc func(*Scheduler)

func (f optionFunc) Apply(s *Scheduler) { f(s) }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	})
}

// New creates a Scheduler dispatching through factory. Cron specs use UTC.
func New(factory Factory, opts ...Option) *Scheduler {
	s := &Scheduler{
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt.Apply(s)
	}
	s.cron = cron.New(cron.WithLocation(time.UTC))
	return s
}

// Add dispatches a job of jobType with data on a cron spec.
func (s *Scheduler) Add(spec, jobType string, data core.Data) (cron.EntryID, error) {
	sched, err := Cron(spec)
	if err != nil {
		return 0, err
	}
	return s.AddSchedule(sched, jobType, data), nil
}

// AddSchedule dispatches a job of jobType with data on sched.
func (s *Scheduler) AddSchedule(sched Schedule, jobType string, data core.Data) cron.EntryID {
	return s.cron.Schedule(sched, cron.FuncJob(func() {
		s.dispatch(jobType, data)
	}))
}

// Remove stops dispatching an entry.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.cron.Remove(id)
}

// Len returns the number of entries.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running dispatches or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) dispatch(jobType string, data core.Data) {
	ctx := context.Background()

	// each run gets its own top-level map
	payload := maps.Clone(data)
	if payload == nil {
		payload = core.Data{}
	}

	b, err := s.factory.Create(ctx, jobType, payload)
	if err != nil {
		s.logger.Error("failed to create scheduled job", "job_type", jobType, "error", err)
		return
	}
	job, err := b.Save(ctx)
	if err != nil {
		s.logger.Error("failed to save scheduled job", "job_type", jobType, "error", err)
		return
	}
	s.logger.Debug("scheduled job dispatched", "job_id", job.ID, "job_type", job.Type)
}
