// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// Two narrow interfaces describe what callers need:
//
//   - SessionStore: lifecycle events for client sessions (opened, closed)
//   - AuditStore: administrative actions such as console stop commands
//
// SQLiteStore implements both on top of modernc.org/sqlite (pure Go, no cgo).
// MockStore is an in-memory implementation for tests.
//
// # Timestamps
//
// Timestamps are stored as fixed-width UTC strings so that ordering and
// range filters can be evaluated by SQLite with plain string comparison.
//
// # Listing
//
// List methods return newest entries first. A zero Limit means 100 and the
// limit is capped at 1000.
package store
