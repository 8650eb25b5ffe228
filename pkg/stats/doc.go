// Package stats keeps minute-bucketed job counters in a SQL table.
//
// A Collector subscribes to a queue's event stream, accumulates completed,
// failed and retried counts per job type and flushes them to a Store once a
// minute. It also snapshots queue depth under the QueueWide key and prunes
// rows older than its retention.
package stats
