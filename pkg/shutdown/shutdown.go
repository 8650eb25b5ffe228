// Package shutdown stops a queue gracefully when the process is told to terminate.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Coordinator runs a stopper once on the first termination signal, then exits
// the process: with status 0 when the stop succeeds, through the fatal
// function otherwise.
type Coordinator struct {
	signals []os.Signal
	exit    func(code int)
	fatal   func(err error)
	logger  *slog.Logger
	notify  func(c chan<- os.Signal, sig ...os.Signal)
	unwatch func(c chan<- os.Signal)

	once sync.Once
	done chan struct{}
}

// Option configures a Coordinator.
type Option interface {
	Apply(*Coordinator)
}

type optionFunc func(*Coordinator)

func (f optionFunc) Apply(c *Coordinator) { f(c) }

// WithSignals sets the signals that trigger shutdown. Default: SIGTERM.
func WithSignals(sigs ...os.Signal) Option {
	return optionFunc(func(c *Coordinator) {
		if len(sigs) > 0 {
			c.signals = sigs
		}
	})
}

// WithExit replaces os.Exit.
func WithExit(fn func(code int)) Option {
	return optionFunc(func(c *Coordinator) {
		if fn != nil {
			c.exit = fn
		}
	})
}

// WithFatal sets what happens when the stop fails. Default: log and exit with status 1.
func WithFatal(fn func(err error)) Option {
	return optionFunc(func(c *Coordinator) {
		if fn != nil {
			c.fatal = fn
		}
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	})
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		signals: []os.Signal{syscall.SIGTERM},
		exit:    os.Exit,
		logger:  slog.Default(),
		notify:  signal.Notify,
		unwatch: signal.Stop,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt.Apply(c)
	}
	if c.fatal == nil {
		c.fatal = func(err error) {
			c.logger.Error("graceful shutdown failed", "error", err)
			c.exit(1)
		}
	}
	return c
}

// Arm registers the signal handler for s. Only the first call has an effect.
func (c *Coordinator) Arm(s core.Stopper) {
	c.once.Do(func() {
		ch := make(chan os.Signal, 1)
		c.notify(ch, c.signals...)
		go c.wait(ch, s)
	})
}

// Done is closed once the coordinator has handled a signal.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) wait(ch chan os.Signal, s core.Stopper) {
	sig := <-ch
	c.unwatch(ch)
	defer close(c.done)

	c.logger.Info("received signal, stopping queue", "signal", sig.String())
	if err := s.Stop(context.Background()); err != nil {
		c.fatal(err)
		return
	}
	c.exit(0)
}
