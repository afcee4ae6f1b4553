// Package store provides the key-value storage used for navigation
// snapshots and history.
//
// Every backend implements KV: string keys, string values, and a Get that
// distinguishes "absent" from a failure. Backends:
//
//   - Memory: in-process map, for tests and ephemeral sessions
//   - SQLite: single-file database with WAL mode and embedded schema
//   - Badger: embedded LSM store, on disk or in memory
//   - Redis: shared store for multi-process deployments
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Failures are returned as *Error carrying the operation and key. Callers
// in this module treat them as "no data available" and log them.
package store
