// ABOUTME: Store interface and shared types for the gateway's persistent logs
// ABOUTME: Covers session lifecycle events and the administrative audit log

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidEvent is returned when an event is missing required fields
var ErrInvalidEvent = errors.New("invalid event")

// SessionEventKind is what happened to a session.
type SessionEventKind string

const (
	SessionOpened SessionEventKind = "opened"
	SessionClosed SessionEventKind = "closed"
)

// SessionEvent records one lifecycle transition of a client session.
type SessionEvent struct {
	ID        string           // UUID v4
	Handle    string           // session handle assigned by the gateway
	Kind      SessionEventKind // opened or closed
	Packets   int64            // payloads received from the client; set on close
	CreatedAt time.Time
}

// SessionEventFilter specifies filtering options for listing session events.
type SessionEventFilter struct {
	Handle *string
	Kind   *SessionEventKind
	Since  *time.Time
	Limit  int // max results (default 100, max 1000)
}

// SessionStore persists session lifecycle events.
type SessionStore interface {
	RecordSessionEvent(ctx context.Context, e *SessionEvent) error
	ListSessionEvents(ctx context.Context, f SessionEventFilter) ([]SessionEvent, error)
}

// AuditStore persists administrative actions.
type AuditStore interface {
	AppendAuditLog(ctx context.Context, e *AuditEntry) error
	ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// Store combines every store interface.
type Store interface {
	SessionStore
	AuditStore
	Close() error
}

// normalizeLimit applies default (100) and cap (1000) to a list limit.
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}
