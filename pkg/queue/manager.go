package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jdziat/simple-model-jobs/pkg/config"
	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Provider creates queue handles and wipes broker state.
type Provider interface {
	CreateQueue(ctx context.Context, cfg config.Config) (core.QueueHandle, error)
	Clear(ctx context.Context, cfg config.Config) error
}

// State is the lifecycle state of the manager's handle.
type State int

const (
	StateUnset State = iota
	StateInitialized
	StateStarted
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateShuttingDown:
		return "shutting_down"
	}
	return "unset"
}

// Manager owns one queue handle and its configuration. It is safe for concurrent use.
type Manager struct {
	provider    Provider
	processor   core.Handler
	logger      *slog.Logger
	defaults    config.Config
	coordinator Coordinator
	onHandle    []func(core.QueueHandle)

	mu         sync.Mutex
	cfg        config.Config
	handle     core.QueueHandle
	state      State
	processing map[string]struct{}
}

// New creates a Manager that opens queues through provider and
// registers processor for every configured job type on Start.
func New(provider Provider, processor core.Handler, opts ...Option) *Manager {
	m := &Manager{
		provider:   provider,
		processor:  processor,
		logger:     slog.Default(),
		defaults:   config.Defaults(),
		processing: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt.Apply(m)
	}
	m.cfg = m.defaults.Clone()
	return m
}

// Config returns a copy of the effective configuration.
func (m *Manager) Config() config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle returns the live queue handle, or nil before Init.
func (m *Manager) Handle() core.QueueHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Init resolves the configuration and creates the queue handle if none exists.
// With a handle in place it only refreshes the configuration.
func (m *Manager) Init(ctx context.Context, opts ...config.Option) (*Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m, m.initLocked(ctx, opts)
}

func (m *Manager) initLocked(ctx context.Context, opts []config.Option) error {
	cfg := config.Resolve(m.defaults, m.cfg, opts...)
	if m.handle != nil {
		m.cfg = cfg
		return nil
	}

	h, err := m.provider.CreateQueue(ctx, cfg)
	if err != nil {
		return fmt.Errorf("jobs: create queue: %w", err)
	}
	m.cfg = cfg
	m.handle = h
	m.state = StateInitialized
	m.logger.Info("queue initialized", "queue", cfg.Name, "types", cfg.Types)
	for _, fn := range m.onHandle {
		fn(h)
	}
	return nil
}

// Start initializes the manager, registers the processor for every
// configured job type and arms the shutdown coordinator.
func (m *Manager) Start(ctx context.Context, opts ...config.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateShuttingDown {
		return core.ErrShuttingDown
	}
	if err := m.initLocked(ctx, opts); err != nil {
		return err
	}

	for _, jobType := range m.cfg.Types {
		if _, ok := m.processing[jobType]; ok {
			continue
		}
		if err := m.handle.Process(jobType, m.cfg.Concurrency, m.processor); err != nil {
			return fmt.Errorf("jobs: process %q: %w", jobType, err)
		}
		m.processing[jobType] = struct{}{}
	}
	m.state = StateStarted

	if m.coordinator != nil {
		m.coordinator.Arm(m)
	}
	return nil
}

// Stop shuts the handle down within the configured timeout. A stop issued
// while another is in progress returns nil at once. On success the
// configuration returns to the defaults and the handle is dropped; on
// failure both are kept and the next Start registers every job type again,
// since the handle's workers are gone either way.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.handle == nil || m.state == StateShuttingDown || m.handle.ShuttingDown() {
		m.mu.Unlock()
		return nil
	}
	prev := m.state
	h := m.handle
	timeout := m.cfg.Timeout
	m.state = StateShuttingDown
	m.mu.Unlock()

	m.logger.Info("stopping queue", "timeout", timeout)
	err := h.Shutdown(ctx, timeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = prev
		m.processing = make(map[string]struct{})
		m.logger.Error("queue shutdown failed", "error", err)
		return err
	}
	m.handle = nil
	m.cfg = m.defaults.Clone()
	m.state = StateUnset
	m.processing = make(map[string]struct{})
	return nil
}

// Reset is Stop.
func (m *Manager) Reset(ctx context.Context) error {
	return m.Stop(ctx)
}

// Clear wipes the persisted queue state, through the live handle when there is one.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	h := m.handle
	cfg := m.cfg.Clone()
	m.mu.Unlock()

	if h != nil {
		return h.Clear(ctx)
	}
	return m.provider.Clear(ctx, cfg)
}
