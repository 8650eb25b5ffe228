// Package core provides the fundamental types and interfaces for the jobs package.
//
// This package contains:
//   - RoutingContext and Data, the payload a background method job carries
//   - Job, the persisted job record with GORM annotations
//   - Method, Class, Instance and Registry describing invocable entities
//   - Storage, QueueHandle and JobBuilder describing the queue provider
//   - Event types for queue monitoring
//   - Error kinds reported by the job router
//
// Most users should import the root package github.com/jdziat/simple-model-jobs
// instead of this package directly.
package core
