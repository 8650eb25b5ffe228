package queue

import (
	"log/slog"

	"github.com/jdziat/simple-model-jobs/pkg/config"
	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Coordinator arms process shutdown handling for a stopper.
// Arm may be called more than once; implementations register only once.
type Coordinator interface {
	Arm(s core.Stopper)
}

// Option configures a Manager.
type Option interface {
	Apply(*Manager)
}

type optionFunc func(*Manager)

func (f optionFunc) Apply(m *Manager) { f(m) }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	})
}

// WithDefaults replaces the environment defaults with cfg.
func WithDefaults(cfg config.Config) Option {
	return optionFunc(func(m *Manager) {
		m.defaults = cfg.Clone()
	})
}

// WithCoordinator arms c when the manager starts.
func WithCoordinator(c Coordinator) Option {
	return optionFunc(func(m *Manager) {
		m.coordinator = c
	})
}

// WithHandleHook calls fn with every handle the manager creates, so
// observers survive a Stop followed by a new Init.
func WithHandleHook(fn func(core.QueueHandle)) Option {
	return optionFunc(func(m *Manager) {
		if fn != nil {
			m.onHandle = append(m.onHandle, fn)
		}
	})
}
