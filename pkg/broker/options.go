package broker

import (
	"log/slog"

	"github.com/google/uuid"
)

type settings struct {
	logger       *slog.Logger
	workerID     string
	storageRetry RetryConfig
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:       slog.Default(),
		workerID:     uuid.New().String(),
		storageRetry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt.apply(&s)
	}
	return s
}

// Option configures a Provider and the queues it creates.
type Option interface {
	apply(*settings)
}

type optionFunc func(*settings)

func (f optionFunc) apply(s *settings) { f(s) }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(s *settings) {
		if l != nil {
			s.logger = l
		}
	})
}

// WithWorkerID sets the id used to lock jobs. Defaults to a random UUID.
func WithWorkerID(id string) Option {
	return optionFunc(func(s *settings) {
		if id != "" {
			s.workerID = id
		}
	})
}

// WithStorageRetry sets how storage writes are retried on transient errors.
func WithStorageRetry(cfg RetryConfig) Option {
	return optionFunc(func(s *settings) {
		if cfg.MaxAttempts > 0 {
			s.storageRetry = cfg
		}
	})
}
