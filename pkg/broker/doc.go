// Package broker is the queue provider behind the lifecycle manager.
//
// A Provider opens storage from a broker URL and returns a *Queue, which
// implements core.QueueHandle. Supported URL schemes:
//
//	redis://host:port/db, rediss://...   RedisStorage (go-redis)
//	postgres://..., postgresql://...     GormStorage on PostgreSQL
//	sqlite://path/to/file.db             GormStorage on a SQLite file
//	memory://                            GormStorage on a private in-memory SQLite database
//
// SQL broker URLs accept the pool parameters max_open_conns, max_idle_conns,
// conn_max_lifetime and conn_max_idle_time.
//
// Queue.Process starts workers that poll storage for jobs of one type.
// Failed jobs are rescheduled with the job's backoff policy until their
// attempts run out. Lifecycle changes are reported through hooks
// (OnJobComplete, OnJobFail, OnJobRemove, OnRetry) and the Events stream.
package broker
