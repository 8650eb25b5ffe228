package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Processor resolves and invokes the target of each job.
// It holds no per-job state and is safe for concurrent use.
type Processor struct {
	registry core.Registry
	logger   *slog.Logger
}

// Option configures a Processor.
type Option interface {
	Apply(*Processor)
}

type optionFunc func(*Processor)

func (f optionFunc) Apply(p *Processor) { f(p) }

// WithLogger sets the logger used for job outcomes.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	})
}

// New creates a Processor resolving targets through registry.
func New(registry core.Registry, opts ...Option) *Processor {
	p := &Processor{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt.Apply(p)
	}
	return p
}

// Handler returns Process as a core.Handler.
func (p *Processor) Handler() core.Handler {
	return p.Process
}

// Process runs one job. The returned value and error are the job's completion.
func (p *Processor) Process(ctx context.Context, job *core.Job) (any, error) {
	start := time.Now()

	data, err := core.DecodeData(job.Data)
	if err != nil {
		p.logger.Warn("unreadable job data", "job_id", job.ID, "error", err)
		data = core.Data{}
	}

	rc := core.ExtractContext(data)
	result, err := p.route(ctx, rc, core.StripContext(data))

	attrs := []any{
		"job_id", job.ID,
		"job_type", job.Type,
		"model", rc.Model,
		"method", rc.Method,
		"duration", time.Since(start),
	}
	if rc.IsInstance() {
		attrs = append(attrs, "instance_id", rc.InstanceID)
	}
	if err != nil {
		p.logger.Warn("job target failed", append(attrs, "error", err)...)
		return nil, err
	}
	p.logger.Debug("job target completed", attrs...)
	return result, nil
}

func (p *Processor) route(ctx context.Context, rc core.RoutingContext, data core.Data) (any, error) {
	if rc.Model == "" {
		return nil, core.MissingModelName()
	}
	if rc.Method == "" {
		return nil, core.MissingMethodName(rc.Model)
	}

	class, err := p.registry.LookupClass(ctx, rc.Model)
	if err != nil {
		if errors.Is(err, core.ErrModelNotRegistered) {
			return nil, core.MissingModel(rc.Model)
		}
		return nil, core.LookupFailure(rc.Model, err)
	}
	if class == nil {
		return nil, core.MissingModel(rc.Model)
	}

	if !rc.IsInstance() {
		method, ok := class.StaticMethod(rc.Method)
		if !ok || !method.Valid() {
			return nil, core.MissingStaticMethod(rc.Model, rc.Method)
		}
		return invoke(ctx, rc, method, data)
	}

	inst, err := p.registry.LookupInstance(ctx, class, rc.InstanceID)
	if err != nil {
		return nil, core.LookupFailure(rc.Model, err)
	}
	if inst == nil {
		return nil, core.MissingInstance(rc.Model, rc.InstanceID)
	}
	method, ok := inst.InstanceMethod(rc.Method)
	if !ok || !method.Valid() {
		return nil, core.MissingInstanceMethod(rc.Model, rc.Method)
	}
	return invoke(ctx, rc, method, data)
}

// invoke calls method once, converting a panic into a failure.
func invoke(ctx context.Context, rc core.RoutingContext, method core.Method, data core.Data) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = core.TargetMethodFailure(rc.Model, rc.Method, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = method.Invoke(ctx, data)
	if err != nil {
		return nil, core.TargetMethodFailure(rc.Model, rc.Method, err)
	}
	return result, nil
}
