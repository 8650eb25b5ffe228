// Package jobs runs methods of registered models in background workers.
//
// A job names a model, a method and optionally an instance id. Workers load
// the model (and the instance) from a registry and invoke the method with the
// job's data.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages.
//
// Basic usage:
//
//	// Describe models and their background methods
//	users := jobs.NewModel("User", jobs.GormFinder[User](db)).
//		Static("sendEmail", jobs.DataMethod(sendEmail)).
//		Method("recalculate", jobs.NoData(func(ctx context.Context, u *User) (any, error) {
//			return nil, u.Recalculate(ctx)
//		}))
//	reg := jobs.NewRegistry()
//	reg.Register(users)
//
//	// Start workers for every configured job type
//	manager := jobs.New(reg, jobs.WithCoordinator(jobs.NewCoordinator()))
//	if err := manager.Start(ctx, jobs.Broker("redis://127.0.0.1:6379")); err != nil {
//		log.Fatal(err)
//	}
//
//	// Dispatch from anywhere
//	jobs.RunStatic(ctx, manager, "User", "sendEmail", jobs.Data{"to": []string{"a@x.com"}})
//	jobs.RunInstance(ctx, manager, "User", user.ID, "recalculate", nil)
package jobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jdziat/simple-model-jobs/pkg/broker"
	"github.com/jdziat/simple-model-jobs/pkg/config"
	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/jobctx"
	"github.com/jdziat/simple-model-jobs/pkg/metrics"
	"github.com/jdziat/simple-model-jobs/pkg/queue"
	"github.com/jdziat/simple-model-jobs/pkg/registry"
	"github.com/jdziat/simple-model-jobs/pkg/router"
	"github.com/jdziat/simple-model-jobs/pkg/schedule"
	"github.com/jdziat/simple-model-jobs/pkg/security"
	"github.com/jdziat/simple-model-jobs/pkg/shutdown"
	"github.com/jdziat/simple-model-jobs/pkg/storage"
)

type (
	// Job is a unit of work persisted by the queue.
	Job = core.Job

	// JobStatus is the current state of a job.
	JobStatus = core.JobStatus

	// Data is the caller-defined payload of a job.
	Data = core.Data

	// RoutingContext names the model, method and optional instance a job invokes.
	RoutingContext = core.RoutingContext

	// Backoff is a job's retry delay policy.
	Backoff = core.Backoff

	// BackoffKind names a retry delay strategy.
	BackoffKind = core.BackoffKind

	// Method is a background method with an explicit arity.
	Method = core.Method

	// Arity declares whether a method receives job data.
	Arity = core.Arity

	// Class is a registered model.
	Class = core.Class

	// Instance is a loaded model value.
	Instance = core.Instance

	// Registry resolves models and instances.
	Registry = core.Registry

	// Storage is the persistence layer behind a queue.
	Storage = core.Storage

	// Handler processes one delivered job.
	Handler = core.Handler

	// JobBuilder configures a job before it is saved.
	JobBuilder = core.JobBuilder

	// QueueHandle is a live connection to a queue provider.
	QueueHandle = core.QueueHandle

	// Error is a job routing failure.
	Error = core.Error

	// ErrorKind classifies a job routing failure.
	ErrorKind = core.ErrorKind

	// Event is the interface for all queue events.
	Event = core.Event

	// JobEnqueued is emitted when a job is saved.
	JobEnqueued = core.JobEnqueued

	// JobStarted is emitted when a job starts processing.
	JobStarted = core.JobStarted

	// JobCompleted is emitted when a job completes successfully.
	JobCompleted = core.JobCompleted

	// JobFailed is emitted when a job fails permanently.
	JobFailed = core.JobFailed

	// JobRetrying is emitted when a failed job is rescheduled.
	JobRetrying = core.JobRetrying

	// JobRemoved is emitted when a completed job is removed.
	JobRemoved = core.JobRemoved

	// Config is the effective queue configuration.
	Config = config.Config

	// ConfigOption overrides a configuration field.
	ConfigOption = config.Option

	// Manager owns the queue handle and its lifecycle.
	Manager = queue.Manager

	// ManagerOption configures a Manager.
	ManagerOption = queue.Option

	// State is the lifecycle state of a Manager.
	State = queue.State

	// Provider opens queues on a broker URL.
	Provider = broker.Provider

	// Queue is the broker's queue handle.
	Queue = broker.Queue

	// Processor resolves and invokes job targets.
	Processor = router.Processor

	// ModelRegistry is the in-memory Registry implementation.
	ModelRegistry = registry.Registry

	// Coordinator stops a manager on termination signals.
	Coordinator = shutdown.Coordinator

	// Scheduler dispatches recurring jobs.
	Scheduler = schedule.Scheduler

	// Schedule returns the next activation time.
	Schedule = schedule.Schedule

	// Collector exports job outcomes as Prometheus metrics.
	Collector = metrics.Collector

	// GormStorage is the SQL storage backend.
	GormStorage = storage.GormStorage

	// RedisStorage is the Redis storage backend.
	RedisStorage = storage.RedisStorage
)

// Model is a Class backed by values of type T.
type Model[T any] = registry.Model[T]

// Finder loads a *T by id.
type Finder[T any] = registry.Finder[T]

// InstanceMethod is an instance-level method of T.
type InstanceMethod[T any] = registry.InstanceMethod[T]

// ContextKey is the data key holding a job's RoutingContext.
const ContextKey = core.ContextKey

// Status constants
const (
	StatusInactive = core.StatusInactive
	StatusActive   = core.StatusActive
	StatusComplete = core.StatusComplete
	StatusFailed   = core.StatusFailed
)

// Backoff kinds
const (
	BackoffFixed       = core.BackoffFixed
	BackoffExponential = core.BackoffExponential
)

// Arity values
const (
	NoArgs    = core.NoData
	TakesData = core.TakesData
)

// Manager states
const (
	StateUnset        = queue.StateUnset
	StateInitialized  = queue.StateInitialized
	StateStarted      = queue.StateStarted
	StateShuttingDown = queue.StateShuttingDown
)

// Security limits
const (
	MaxJobTypeLength      = security.MaxJobTypeLength
	MaxJobDataSize        = security.MaxJobDataSize
	MaxAttempts           = security.MaxAttempts
	MaxConcurrency        = security.MaxConcurrency
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrModelNotRegistered    = core.ErrModelNotRegistered
	ErrShuttingDown          = core.ErrShuttingDown
	ErrShutdownTimeout       = core.ErrShutdownTimeout
	ErrNoQueue               = core.ErrNoQueue
	ErrUnsupportedBroker     = core.ErrUnsupportedBroker
	ErrJobNotOwned           = core.ErrJobNotOwned
	ErrJobNotFound           = core.ErrJobNotFound
	ErrInvalidJobType        = core.ErrInvalidJobType
	ErrJobTypeTooLong        = core.ErrJobTypeTooLong
	ErrJobDataTooLarge       = core.ErrJobDataTooLarge
	ErrMissingModelName      = core.ErrMissingModelName
	ErrMissingMethodName     = core.ErrMissingMethodName
	ErrMissingModel          = core.ErrMissingModel
	ErrMissingInstance       = core.ErrMissingInstance
	ErrMissingStaticMethod   = core.ErrMissingStaticMethod
	ErrMissingInstanceMethod = core.ErrMissingInstanceMethod
	ErrLookupFailure         = core.ErrLookupFailure
	ErrTargetMethodFailure   = core.ErrTargetMethodFailure
)

// New creates a Manager that opens queues with the default broker provider
// and routes every job through reg.
func New(reg Registry, opts ...ManagerOption) *Manager {
	return queue.New(broker.NewProvider(), router.New(reg).Handler(), opts...)
}

// NewManager creates a Manager from an explicit provider and processor.
func NewManager(provider queue.Provider, processor Handler, opts ...ManagerOption) *Manager {
	return queue.New(provider, processor, opts...)
}

// NewProvider creates the broker provider.
func NewProvider(opts ...broker.Option) *Provider {
	return broker.NewProvider(opts...)
}

// NewProcessor creates a job processor resolving targets through reg.
func NewProcessor(reg Registry, opts ...router.Option) *Processor {
	return router.New(reg, opts...)
}

// NewRegistry creates an empty model registry.
func NewRegistry() *ModelRegistry {
	return registry.New()
}

// NewModel creates a model named name that loads instances with find.
func NewModel[T any](name string, find Finder[T]) *Model[T] {
	return registry.NewModel(name, find)
}

// GormFinder loads T by primary key from db.
func GormFinder[T any](db *gorm.DB) Finder[T] {
	return registry.GormFinder[T](db)
}

// WithData declares an instance method that receives the job data.
func WithData[T any](fn func(ctx context.Context, v *T, data Data) (any, error)) InstanceMethod[T] {
	return registry.WithData(fn)
}

// NoData declares an instance method that takes no job data.
func NoData[T any](fn func(ctx context.Context, v *T) (any, error)) InstanceMethod[T] {
	return registry.NoData(fn)
}

// DataMethod wraps a class-level method that takes the job data.
func DataMethod(fn func(ctx context.Context, data Data) (any, error)) Method {
	return core.DataMethod(fn)
}

// PlainMethod wraps a class-level method that takes no job data.
func PlainMethod(fn func(ctx context.Context) (any, error)) Method {
	return core.PlainMethod(fn)
}

// NewCoordinator creates a shutdown coordinator.
func NewCoordinator(opts ...shutdown.Option) *Coordinator {
	return shutdown.New(opts...)
}

// NewScheduler creates a scheduler dispatching through f.
func NewScheduler(f core.JobFactory, opts ...schedule.Option) *Scheduler {
	return schedule.New(f, opts...)
}

// NewCollector creates job metrics registered on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	return metrics.NewCollector(reg)
}

// NewGormStorage creates a GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	return storage.NewRedisStorage(client, prefix)
}

// Defaults returns the default configuration read from the environment.
func Defaults() Config {
	return config.Defaults()
}

// Resolve merges defaults, the current configuration and overrides.
func Resolve(defaults, current Config, overrides ...ConfigOption) Config {
	return config.Resolve(defaults, current, overrides...)
}

// Manager option functions

// WithLogger sets the manager's logger.
var WithLogger = queue.WithLogger

// WithDefaults replaces the environment defaults.
var WithDefaults = queue.WithDefaults

// WithCoordinator arms a shutdown coordinator on Start.
var WithCoordinator = queue.WithCoordinator

// WithHandleHook observes every queue handle the manager creates.
var WithHandleHook = queue.WithHandleHook

// Configuration option functions

// Name sets the queue name.
func Name(name string) ConfigOption { return config.Name(name) }

// Types adds job types to process.
func Types(types ...string) ConfigOption { return config.Types(types...) }

// Concurrency sets the workers per job type.
func Concurrency(n int) ConfigOption { return config.Concurrency(n) }

// Timeout bounds a graceful shutdown.
func Timeout(d time.Duration) ConfigOption { return config.Timeout(d) }

// Attempts sets deliveries per job.
func Attempts(n int) ConfigOption { return config.Attempts(n) }

// WithBackoff sets the retry delay policy.
func WithBackoff(kind BackoffKind, delay time.Duration) ConfigOption {
	return config.Backoff(kind, delay)
}

// RemoveOnComplete deletes jobs once they complete.
func RemoveOnComplete(remove bool) ConfigOption { return config.RemoveOnComplete(remove) }

// Broker sets the broker URL.
func Broker(url string) ConfigOption { return config.Broker(url) }

// Prefix namespaces broker keys.
func Prefix(prefix string) ConfigOption { return config.Prefix(prefix) }

// PollInterval sets how often idle workers poll.
func PollInterval(d time.Duration) ConfigOption { return config.PollInterval(d) }

// Schedule functions

// Every fires at a fixed interval.
func Every(d time.Duration) Schedule { return schedule.Every(d) }

// Daily fires once a day at hour:minute UTC.
func Daily(hour, minute int) Schedule { return schedule.Daily(hour, minute) }

// Weekly fires once a week on day at hour:minute UTC.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron parses a cron expression.
func Cron(expr string) (Schedule, error) { return schedule.Cron(expr) }

// JobFromContext returns the job being processed, or nil outside a handler.
func JobFromContext(ctx context.Context) *Job {
	return jobctx.JobFromContext(ctx)
}

// JobIDFromContext returns the id of the job being processed.
func JobIDFromContext(ctx context.Context) string {
	return jobctx.JobIDFromContext(ctx)
}

// StatusOf returns the status carried by err, defaulting to 500.
func StatusOf(err error) int {
	return core.StatusOf(err)
}
