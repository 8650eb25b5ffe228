// Package queue owns the process-wide queue handle.
//
// A Manager is created with a queue provider and the job processor, then
// initialized, started and stopped by the application:
//
//	m := queue.New(broker.NewProvider(), router.New(reg).Handler(),
//		queue.WithCoordinator(shutdown.New()))
//	if err := m.Start(ctx, config.Concurrency(5)); err != nil {
//		return err
//	}
//
// Init is idempotent: once a handle exists, later calls only refresh the
// configuration. Stop and Reset are the same operation; a successful stop
// restores the default configuration so the next Init starts fresh.
// Create is the job factory; it initializes the manager lazily.
//
// Most users should import the root package github.com/jdziat/simple-model-jobs
// which re-exports Manager and its options.
package queue
