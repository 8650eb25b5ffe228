// Package config provides the effective queue configuration.
//
// This package includes:
//   - Config: queue name, job types, concurrency, shutdown timeout, retry
//     policy, cleanup flag and broker connection descriptor
//   - Defaults: environment-backed default settings
//   - Option: functional overrides applied on top of a session's settings
//   - Resolve: merges defaults, the current session and overrides
//
// Most users should import the root package github.com/jdziat/simple-model-jobs
// which re-exports these functions.
package config
