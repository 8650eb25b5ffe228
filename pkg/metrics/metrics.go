// Package metrics exports job outcomes as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Observable is a queue exposing lifecycle hooks. *broker.Queue implements it.
type Observable interface {
	OnJobComplete(fn func(context.Context, *core.Job, any))
	OnJobFail(fn func(context.Context, *core.Job, error))
	OnRetry(fn func(context.Context, *core.Job, int, error))
	OnJobRemove(fn func(ctx context.Context, jobID, jobType string))
}

// Collector counts job outcomes per job type.
type Collector struct {
	Completed *prometheus.CounterVec
	Failed    *prometheus.CounterVec
	Retried   *prometheus.CounterVec
	Removed   *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		Completed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_jobs_completed_total",
				Help: "Total number of jobs completed successfully",
			},
			[]string{"type"},
		),
		Failed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_jobs_failed_total",
				Help: "Total number of jobs failed after their last attempt",
			},
			[]string{"type"},
		),
		Retried: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_jobs_retried_total",
				Help: "Total number of failed attempts rescheduled for retry",
			},
			[]string{"type"},
		),
		Removed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_jobs_removed_total",
				Help: "Total number of completed jobs removed from storage",
			},
			[]string{"type"},
		),
		// 10ms to ~163s
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "model_jobs_duration_seconds",
				Help:    "Time from job start to successful completion",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
			},
			[]string{"type"},
		),
	}
}

// AttachHandle attaches to h when it exposes hooks. Pass it to
// queue.WithHandleHook to keep counting across Stop and a later Init.
func (c *Collector) AttachHandle(h core.QueueHandle) {
	if q, ok := h.(Observable); ok {
		c.Attach(q)
	}
}

// Attach feeds the collector from q's hooks. It binds to q alone; a handle
// created by a later Init is not observed.
func (c *Collector) Attach(q Observable) {
	q.OnJobComplete(func(_ context.Context, job *core.Job, _ any) {
		c.Completed.WithLabelValues(job.Type).Inc()
		if job.StartedAt != nil {
			c.Duration.WithLabelValues(job.Type).Observe(time.Since(*job.StartedAt).Seconds())
		}
	})
	q.OnJobFail(func(_ context.Context, job *core.Job, _ error) {
		c.Failed.WithLabelValues(job.Type).Inc()
	})
	q.OnRetry(func(_ context.Context, job *core.Job, _ int, _ error) {
		c.Retried.WithLabelValues(job.Type).Inc()
	})
	q.OnJobRemove(func(_ context.Context, _ string, jobType string) {
		c.Removed.WithLabelValues(jobType).Inc()
	})
}
