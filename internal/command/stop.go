// ABOUTME: The stop command: announces the shutdown and asks the process to stop or restart.
// ABOUTME: "stop <message>" stops; "stop force <anything>" restarts.

package command

import (
	"context"
	"log/slog"

	"github.com/2389/synapse-gateway/internal/store"
)

// PermissionStop guards the stop command.
const PermissionStop = "synapse.command.stop"

// ShutdownFunc stops the process. restart asks for the process to come back up.
type ShutdownFunc func(restart bool, message string)

// Stop shuts the server down.
type Stop struct {
	Shutdown    ShutdownFunc
	Broadcaster Broadcaster

	// Audit, when set, records every execution.
	Audit  store.AuditStore
	Logger *slog.Logger
}

func (s *Stop) Name() string { return "stop" }
func (s *Stop) Description() string { return Translate(MsgStopDescription) }
func (s *Stop) Usage() string { return Translate(MsgStopUsage) }
func (s *Stop) Permission() string { return PermissionStop }

// Execute always reports the command as handled, including when the sender
// lacks permission.
//
// The first argument is the shutdown message. Restart is requested only
// when a second argument is present and the first is "force".
func (s *Stop) Execute(ctx context.Context, sender Sender, alias string, args []string) bool {
	if !TestPermission(s, sender) {
		s.audit(ctx, sender, store.AuditDenied, "")
		return true
	}

	message := ""
	if len(args) > 0 {
		message = args[0]
	}

	restart := false
	if len(args) > 1 && args[0] == "force" {
		restart = true
	}

	if s.Broadcaster != nil {
		s.Broadcaster.BroadcastCommandMessage(sender, Translate(MsgStopStart))
	}

	action := store.AuditStopServer
	if restart {
		action = store.AuditRestartServer
	}
	s.audit(ctx, sender, action, message)

	if s.Shutdown != nil {
		s.Shutdown(restart, message)
	}
	return true
}

func (s *Stop) audit(ctx context.Context, sender Sender, action store.AuditAction, message string) {
	if s.Audit == nil {
		return
	}
	entry := &store.AuditEntry{
		Actor:  sender.Name(),
		Action: action,
		Target: "server",
		Detail: map[string]any{"message": message},
	}
	if err := s.Audit.AppendAuditLog(ctx, entry); err != nil {
		logger := s.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to audit command", "command", s.Name(), "actor", sender.Name(), "error", err)
	}
}
