// Package storage provides storage implementations for job persistence.
//
// This package includes:
//   - GormStorage: a GORM-based implementation supporting SQLite and PostgreSQL
//   - RedisStorage: a go-redis implementation keeping jobs in hashes and sorted sets
//   - Connection pool configuration for GORM databases
//
// The Storage interface is defined in pkg/core and must be implemented
// by any custom storage backend.
package storage
