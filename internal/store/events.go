// ABOUTME: Session event log: one row per session open and close
// ABOUTME: Written by the hub, listed by the sessions subcommand

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeFormat is fixed-width so stored timestamps sort lexicographically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// RecordSessionEvent appends a session event.
// Generates ID and CreatedAt if not set.
func (s *SQLiteStore) RecordSessionEvent(ctx context.Context, e *SessionEvent) error {
	if e.Handle == "" {
		return fmt.Errorf("%w: handle is required", ErrInvalidEvent)
	}
	if e.Kind != SessionOpened && e.Kind != SessionClosed {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO session_events (id, handle, kind, packets, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Handle,
		string(e.Kind),
		e.Packets,
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting session event: %w", err)
	}

	s.logger.Debug("recorded session event",
		"handle", e.Handle,
		"kind", e.Kind,
		"packets", e.Packets,
	)
	return nil
}

const sessionEventsQuery = `
	SELECT id, handle, kind, packets, created_at
	FROM session_events
	WHERE (? IS NULL OR handle = ?)
	  AND (? IS NULL OR kind = ?)
	  AND (? IS NULL OR created_at >= ?)
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?
`

// ListSessionEvents returns session events matching the filter.
// Results are returned newest first.
func (s *SQLiteStore) ListSessionEvents(ctx context.Context, f SessionEventFilter) ([]SessionEvent, error) {
	var kindStr, sinceStr *string
	if f.Kind != nil {
		k := string(*f.Kind)
		kindStr = &k
	}
	if f.Since != nil {
		ts := f.Since.UTC().Format(timeFormat)
		sinceStr = &ts
	}

	rows, err := s.db.QueryContext(ctx, sessionEventsQuery,
		f.Handle, f.Handle,
		kindStr, kindStr,
		sinceStr, sinceStr,
		normalizeLimit(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []SessionEvent{}
	for rows.Next() {
		var e SessionEvent
		var kind, ts string
		if err := rows.Scan(&e.ID, &e.Handle, &kind, &e.Packets, &ts); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		e.Kind = SessionEventKind(kind)
		e.CreatedAt, err = time.Parse(timeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session events: %w", err)
	}
	return events, nil
}
