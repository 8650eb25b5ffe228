package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Source is a queue whose events and storage the collector observes.
type Source interface {
	Events() <-chan core.Event
	Unsubscribe(ch <-chan core.Event)
	Storage() core.Storage
}

// Collector turns queue events into Stat rows.
type Collector struct {
	source    Source
	store     *Store
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	counters map[string]*Counters

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Collector.
type Option interface {
	Apply(*Collector)
}

type optionFunc func(*Collector)

func (f optionFunc) Apply(c *Collector) { f(c) }

// WithRetention sets how long rows are kept. Zero disables pruning.
func WithRetention(d time.Duration) Option {
	return optionFunc(func(c *Collector) {
		c.retention = d
	})
}

// WithInterval sets the flush and snapshot period.
func WithInterval(d time.Duration) Option {
	return optionFunc(func(c *Collector) {
		if d > 0 {
			c.interval = d
		}
	})
}

// WithLogger sets the collector's logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	})
}

// NewCollector creates a collector reading from source and writing to store.
func NewCollector(source Source, store *Store, opts ...Option) *Collector {
	c := &Collector{
		source:    source,
		store:     store,
		retention: 7 * 24 * time.Hour,
		interval:  time.Minute,
		logger:    slog.Default(),
		counters:  make(map[string]*Counters),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(c)
		}
	}
	return c
}

// Ready is closed once the collector is subscribed.
func (c *Collector) Ready() <-chan struct{} {
	return c.ready
}

// Run collects until ctx is done, then flushes what is left.
func (c *Collector) Run(ctx context.Context) {
	events := c.source.Events()
	defer c.source.Unsubscribe(events)
	c.readyOnce.Do(func() { close(c.ready) })

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drain(events)
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			c.Flush(flushCtx)
			cancel()
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			c.observe(e)
		case <-ticker.C:
			c.Flush(ctx)
			c.Snapshot(ctx)
			c.prune(ctx)
		}
	}
}

func (c *Collector) drain(events <-chan core.Event) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			c.observe(e)
		default:
			return
		}
	}
}

func (c *Collector) observe(e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := e.(type) {
	case *core.JobCompleted:
		c.countersFor(ev.Job.Type).Completed++
	case *core.JobFailed:
		c.countersFor(ev.Job.Type).Failed++
	case *core.JobRetrying:
		c.countersFor(ev.Job.Type).Retried++
	}
}

func (c *Collector) countersFor(jobType string) *Counters {
	ct, ok := c.counters[jobType]
	if !ok {
		ct = &Counters{}
		c.counters[jobType] = ct
	}
	return ct
}

// Flush writes accumulated counters and resets them.
func (c *Collector) Flush(ctx context.Context) {
	c.mu.Lock()
	batch := c.counters
	c.counters = make(map[string]*Counters)
	c.mu.Unlock()

	now := time.Now()
	for jobType, ct := range batch {
		if ct.IsZero() {
			continue
		}
		if err := c.store.AddCounters(ctx, jobType, now, *ct); err != nil {
			c.logger.Warn("failed to flush job stats", "job_type", jobType, "error", err)
		}
	}
}

// Snapshot records the current queue depth under QueueWide.
func (c *Collector) Snapshot(ctx context.Context) {
	s := c.source.Storage()
	pending, err := s.CountByStatus(ctx, core.StatusInactive)
	if err != nil {
		c.logger.Warn("failed to count pending jobs", "error", err)
		return
	}
	active, err := s.CountByStatus(ctx, core.StatusActive)
	if err != nil {
		c.logger.Warn("failed to count active jobs", "error", err)
		return
	}
	if err := c.store.SnapshotDepth(ctx, QueueWide, time.Now(), pending, active); err != nil {
		c.logger.Warn("failed to snapshot queue depth", "error", err)
	}
}

func (c *Collector) prune(ctx context.Context) {
	if c.retention <= 0 {
		return
	}
	if _, err := c.store.Prune(ctx, time.Now().Add(-c.retention)); err != nil {
		c.logger.Warn("failed to prune job stats", "error", err)
	}
}
