package config

import (
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Option modifies a Config.
type Option interface {
	Apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) Apply(c *Config) { f(c) }

// Name sets the primary queue name.
func Name(name string) Option {
	return optionFunc(func(c *Config) {
		c.Name = name
	})
}

// Types adds job types to process. Types accumulate across sessions.
func Types(types ...string) Option {
	return optionFunc(func(c *Config) {
		c.Types = append(c.Types, types...)
	})
}

// Concurrency sets the number of workers per job type.
func Concurrency(n int) Option {
	return optionFunc(func(c *Config) {
		c.Concurrency = n
	})
}

// Timeout sets the graceful shutdown bound.
func Timeout(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.Timeout = d
	})
}

// Attempts sets the number of deliveries per job.
func Attempts(n int) Option {
	return optionFunc(func(c *Config) {
		c.Attempts = n
	})
}

// Backoff sets the retry delay policy. A zero delay keeps the current one.
func Backoff(kind core.BackoffKind, delay time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.Backoff.Kind = kind
		if delay > 0 {
			c.Backoff.Delay = delay
		}
	})
}

// RemoveOnComplete sets whether completed jobs are deleted.
func RemoveOnComplete(remove bool) Option {
	return optionFunc(func(c *Config) {
		c.RemoveOnComplete = remove
	})
}

// Broker sets the queue provider connection descriptor.
func Broker(url string) Option {
	return optionFunc(func(c *Config) {
		c.Broker = url
	})
}

// Prefix sets the provider key namespace.
func Prefix(prefix string) Option {
	return optionFunc(func(c *Config) {
		c.Prefix = prefix
	})
}

// PollInterval sets how often idle workers poll.
func PollInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.PollInterval = d
	})
}
