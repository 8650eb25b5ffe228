// Package security provides validation, sanitization, and limits for the jobs package.
//
// This package includes:
//   - Input validation for job types and queue names
//   - A size limit on encoded job data
//   - Error message sanitization to prevent sensitive data leakage
//   - Clamping functions to enforce safe limits on attempts and concurrency
//
// Most users should import the root package github.com/jdziat/simple-model-jobs
// which re-exports these functions.
package security
