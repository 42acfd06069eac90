// ABOUTME: Tests for the stop command and the command map.
// ABOUTME: Uses fake senders and broadcasters to observe side effects.

package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/synapse-gateway/internal/store"
)

type fakeSender struct {
	name     string
	allowed  bool
	messages []string
}

func (f *fakeSender) Name() string { return f.name }
func (f *fakeSender) HasPermission(p string) bool { return f.allowed && p == PermissionStop }
func (f *fakeSender) SendMessage(m string) { f.messages = append(f.messages, m) }

type fakeBroadcaster struct {
	messages []string
}

func (f *fakeBroadcaster) BroadcastCommandMessage(source Sender, message string) {
	f.messages = append(f.messages, source.Name()+": "+message)
}

type shutdownCall struct {
	restart bool
	message string
}

func newStop() (*Stop, *fakeBroadcaster, *[]shutdownCall, *store.MockStore) {
	var calls []shutdownCall
	b := &fakeBroadcaster{}
	audit := store.NewMockStore()
	return &Stop{
		Shutdown:    func(restart bool, message string) { calls = append(calls, shutdownCall{restart, message}) },
		Broadcaster: b,
		Audit:       audit,
	}, b, &calls, audit
}

func TestStop_Arguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		restart bool
		message string
	}{
		{"no arguments", nil, false, ""},
		{"message only", []string{"maintenance"}, false, "maintenance"},
		{"force alone is a message", []string{"force"}, false, "force"},
		{"force with second argument restarts", []string{"force", "now"}, true, "force"},
		{"second argument without force", []string{"bye", "now"}, false, "bye"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop, b, calls, _ := newStop()
			sender := &fakeSender{name: "alice", allowed: true}

			assert.True(t, stop.Execute(context.Background(), sender, "stop", tt.args))

			require.Len(t, *calls, 1)
			assert.Equal(t, shutdownCall{tt.restart, tt.message}, (*calls)[0])
			assert.Equal(t, []string{"alice: Stopping the server..."}, b.messages)
			assert.Empty(t, sender.messages)
		})
	}
}

func TestStop_PermissionDenied(t *testing.T) {
	stop, b, calls, audit := newStop()
	sender := &fakeSender{name: "mallory"}

	assert.True(t, stop.Execute(context.Background(), sender, "stop", []string{"bye"}))

	assert.Empty(t, *calls)
	assert.Empty(t, b.messages)
	assert.Equal(t, []string{Translate(MsgPermissionDenied)}, sender.messages)

	entries, err := audit.ListAuditLog(context.Background(), store.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.AuditDenied, entries[0].Action)
	assert.Equal(t, "mallory", entries[0].Actor)
}

func TestStop_Audits(t *testing.T) {
	stop, _, _, audit := newStop()
	ctx := context.Background()

	stop.Execute(ctx, Console{}, "stop", []string{"force", "now"})

	entries, err := audit.ListAuditLog(ctx, store.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.AuditRestartServer, entries[0].Action)
	assert.Equal(t, "CONSOLE", entries[0].Actor)
	assert.Equal(t, "force", entries[0].Detail["message"])
}

func TestStop_Metadata(t *testing.T) {
	stop := &Stop{}
	assert.Equal(t, "stop", stop.Name())
	assert.Equal(t, "synapse.command.stop", stop.Permission())
	assert.Equal(t, "/stop [message] [force]", stop.Usage())
	assert.Equal(t, "Stops the server", stop.Description())
}

func TestTranslate_UnknownKey(t *testing.T) {
	assert.Equal(t, "no.such.key", Translate("no.such.key"))
}

func TestMap_Dispatch(t *testing.T) {
	stop, _, calls, _ := newStop()
	m := NewMap()
	m.Register(stop, "shutdown")

	var out bytes.Buffer
	console := Console{Out: &out}
	ctx := context.Background()

	assert.True(t, m.Dispatch(ctx, console, "/STOP maintenance"))
	assert.True(t, m.Dispatch(ctx, console, "  shutdown  "))
	require.Len(t, *calls, 2)
	assert.Equal(t, "maintenance", (*calls)[0].message)
	assert.Equal(t, "", (*calls)[1].message)

	assert.False(t, m.Dispatch(ctx, console, ""))
	assert.False(t, m.Dispatch(ctx, console, "reload"))
	assert.Contains(t, out.String(), Translate(MsgUnknownCommand))

	assert.Equal(t, []string{"stop"}, m.Names())
}
