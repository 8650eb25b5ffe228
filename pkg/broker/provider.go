package broker

import (
	"context"
	"fmt"

	"github.com/jdziat/simple-model-jobs/pkg/config"
	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Provider creates queues on the storage named by a configuration's broker URL.
type Provider struct {
	opts []Option
}

// NewProvider creates a Provider. The options apply to every queue it creates.
func NewProvider(opts ...Option) *Provider {
	return &Provider{opts: opts}
}

// CreateQueue connects to cfg.Broker, prepares its schema and returns a live queue.
func (p *Provider) CreateQueue(ctx context.Context, cfg config.Config) (core.QueueHandle, error) {
	s, err := Open(ctx, cfg.Broker, cfg.Prefix)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("jobs: migrate broker: %w", err)
	}
	return NewQueue(s, cfg, p.opts...), nil
}

// Clear wipes the persisted state of the broker named by cfg without a live queue.
func (p *Provider) Clear(ctx context.Context, cfg config.Config) error {
	s, err := Open(ctx, cfg.Broker, cfg.Prefix)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("jobs: migrate broker: %w", err)
	}
	return s.Clear(ctx)
}
