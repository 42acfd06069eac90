// ABOUTME: Tests for audit log store operations
// ABOUTME: Covers Append and List with filtering for the audit_log table

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditStore_Append(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		Actor:  "CONSOLE",
		Action: AuditStopServer,
		Detail: map[string]any{"message": "maintenance"},
	}

	err := store.AppendAuditLog(ctx, entry)
	require.NoError(t, err)

	// Should have generated ID and timestamp
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "maintenance", entries[0].Detail["message"])
}

func TestAuditStore_List_NoFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, action := range []AuditAction{AuditStopServer, AuditDenied, AuditRestartServer} {
		entry := &AuditEntry{
			Actor:     "admin",
			Action:    action,
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.AppendAuditLog(ctx, entry))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// Should be newest first
	assert.Equal(t, AuditRestartServer, entries[0].Action)
}

func TestAuditStore_List_Filters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, actor := range []string{"alice", "bob", "alice"} {
		action := AuditStopServer
		if actor == "bob" {
			action = AuditDenied
		}
		require.NoError(t, store.AppendAuditLog(ctx, &AuditEntry{
			Actor:     actor,
			Action:    action,
			Timestamp: base.Add(time.Duration(i) * 10 * time.Minute),
		}))
	}

	actor := "alice"
	entries, err := store.ListAuditLog(ctx, AuditFilter{Actor: &actor})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	denied := AuditDenied
	entries, err = store.ListAuditLog(ctx, AuditFilter{Action: &denied})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].Actor)

	since := base.Add(15 * time.Minute)
	entries, err = store.ListAuditLog(ctx, AuditFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
