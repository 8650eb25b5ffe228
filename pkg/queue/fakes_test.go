package queue

import (
	"context"
	"sync"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/config"
	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// fakeProvider records queue creation and clears.
type fakeProvider struct {
	mu        sync.Mutex
	created   []config.Config
	cleared   []config.Config
	createErr error
	handles   []*fakeHandle
	// shutdownErr is given to every handle it creates.
	shutdownErr error
	// shutdownGate blocks handle shutdowns until closed, when set.
	shutdownGate chan struct{}
}

func (p *fakeProvider) CreateQueue(_ context.Context, cfg config.Config) (core.QueueHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created = append(p.created, cfg.Clone())
	h := &fakeHandle{shutdownErr: p.shutdownErr, gate: p.shutdownGate, processed: map[string]int{}}
	p.handles = append(p.handles, h)
	return h, nil
}

func (p *fakeProvider) Clear(_ context.Context, cfg config.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared = append(p.cleared, cfg.Clone())
	return nil
}

func (p *fakeProvider) createCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.created)
}

type fakeHandle struct {
	mu           sync.Mutex
	processed    map[string]int
	concurrency  int
	shutdowns    int
	timeouts     []time.Duration
	shuttingDown bool
	cleared      int
	shutdownErr  error
	gate         chan struct{}
	builders     []*fakeBuilder
}

func (h *fakeHandle) CreateJob(jobType string, data core.Data) core.JobBuilder {
	b := &fakeBuilder{job: &core.Job{Type: jobType}, data: data}
	h.mu.Lock()
	h.builders = append(h.builders, b)
	h.mu.Unlock()
	return b
}

func (h *fakeHandle) Process(jobType string, concurrency int, _ core.Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processed[jobType]++
	h.concurrency = concurrency
	return nil
}

func (h *fakeHandle) ShuttingDown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shuttingDown
}

func (h *fakeHandle) Shutdown(_ context.Context, timeout time.Duration) error {
	h.mu.Lock()
	h.shutdowns++
	h.timeouts = append(h.timeouts, timeout)
	h.shuttingDown = true
	gate := h.gate
	h.mu.Unlock()

	if gate != nil {
		<-gate
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.shuttingDown = false
	return h.shutdownErr
}

func (h *fakeHandle) Clear(context.Context) error {
	h.mu.Lock()
	h.cleared++
	h.mu.Unlock()
	return nil
}

type fakeBuilder struct {
	job  *core.Job
	data core.Data
}

func (b *fakeBuilder) Attempts(n int) core.JobBuilder { b.job.MaxAttempts = n; return b }

func (b *fakeBuilder) Backoff(bo core.Backoff) core.JobBuilder { b.job.SetBackoff(bo); return b }

func (b *fakeBuilder) RemoveOnComplete(r bool) core.JobBuilder { b.job.RemoveOnComplete = r; return b }

func (b *fakeBuilder) Title(t string) core.JobBuilder { b.job.Title = t; return b }

func (b *fakeBuilder) Job() *core.Job { return b.job }

func (b *fakeBuilder) Save(context.Context) (*core.Job, error) {
	b.job.ID = "saved"
	return b.job, nil
}

type fakeCoordinator struct {
	mu    sync.Mutex
	armed []core.Stopper
}

func (c *fakeCoordinator) Arm(s core.Stopper) {
	c.mu.Lock()
	c.armed = append(c.armed, s)
	c.mu.Unlock()
}
