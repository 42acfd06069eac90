// ABOUTME: Main-logic side of the gateway: polls the worker's queues and dispatches to a Handler.
// ABOUTME: Tracks open sessions, records their lifecycle and offers Send and Close by handle.

package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/synapse-gateway/internal/metrics"
	"github.com/2389/synapse-gateway/internal/session"
	"github.com/2389/synapse-gateway/internal/store"
	"github.com/2389/synapse-gateway/internal/synlib"
)

// ErrSessionNotFound is returned when a handle does not name an open session.
var ErrSessionNotFound = errors.New("session not found")

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = 10 * time.Millisecond

// Gateway is the part of the worker the hub polls.
type Gateway interface {
	Packets() *synlib.PacketChannels
	Sessions() *synlib.SessionTracker
	State() synlib.State
	Done() <-chan struct{}
}

// Handler receives session events on the hub goroutine.
type Handler interface {
	OnOpen(h *Hub, handle string)
	OnPacket(h *Hub, handle string, data []byte)
	OnClose(h *Hub, handle string)
}

// Options configures a Hub.
type Options struct {
	PollInterval time.Duration

	// Store, when set, receives one event per session open and close.
	Store store.SessionStore

	// OnTick is called after every poll with the worker state.
	OnTick func(synlib.State)

	Logger *slog.Logger
}

// SessionInfo describes an open session as seen by main logic.
type SessionInfo struct {
	Handle   string
	OpenedAt time.Time
	Packets  int64
}

// Hub owns the main-logic view of the sessions.
type Hub struct {
	gw      Gateway
	handler Handler
	opts    Options
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*SessionInfo
}

// New creates a hub. Call Run to start polling.
func New(gw Gateway, handler Handler, opts Options) *Hub {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		gw:       gw,
		handler:  handler,
		opts:     opts,
		logger:   logger.With("component", "hub"),
		sessions: make(map[string]*SessionInfo),
	}
}

// Run polls until ctx is cancelled or the worker exits. After the worker
// exits a final poll picks up the close notifications of its shutdown.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.gw.Done():
			h.Poll(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			h.Poll(ctx)
		}
	}
}

// Poll drains every queue once.
//
// Close notifications are taken first and applied last: a session's
// payloads are all queued before its close notification, so they are
// dispatched before OnClose.
func (h *Hub) Poll(ctx context.Context) {
	sessions := h.gw.Sessions()

	var closed []string
	for {
		handle, ok := sessions.PollClosed()
		if !ok {
			break
		}
		closed = append(closed, handle)
	}

	h.drainOpened(ctx)

	packets := h.gw.Packets()
	for {
		payload, ok := packets.PollFromGateway()
		if !ok {
			break
		}
		h.dispatch(ctx, payload)
	}

	for _, handle := range closed {
		h.closed(ctx, handle)
	}

	state := h.gw.State()
	metrics.GatewayState.Set(float64(state))
	if h.opts.OnTick != nil {
		h.opts.OnTick(state)
	}
}

func (h *Hub) drainOpened(ctx context.Context) {
	sessions := h.gw.Sessions()
	for {
		handle, ok := sessions.PollOpened()
		if !ok {
			return
		}
		h.opened(ctx, handle)
	}
}

func (h *Hub) opened(ctx context.Context, handle string) {
	h.mu.Lock()
	if _, exists := h.sessions[handle]; exists {
		h.mu.Unlock()
		h.logger.Warn("duplicate open notification", "handle", handle)
		return
	}
	h.sessions[handle] = &SessionInfo{Handle: handle, OpenedAt: time.Now()}
	active := len(h.sessions)
	h.mu.Unlock()

	metrics.ActiveSessions.Set(float64(active))
	h.record(ctx, &store.SessionEvent{Handle: handle, Kind: store.SessionOpened})
	h.logger.Debug("session opened", "handle", handle, "active", active)
	h.handler.OnOpen(h, handle)
}

func (h *Hub) dispatch(ctx context.Context, payload []byte) {
	env, err := session.DecodeEnvelope(payload)
	if err != nil {
		h.logger.Warn("dropping malformed payload", "error", err)
		return
	}

	if !h.count(env.Handle) {
		// The open notification may have been queued after our drain.
		h.drainOpened(ctx)
		if !h.count(env.Handle) {
			h.logger.Debug("dropping payload for unknown session", "handle", env.Handle)
			return
		}
	}
	h.handler.OnPacket(h, env.Handle, env.Data)
}

// count bumps the packet counter of an open session.
func (h *Hub) count(handle string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	info, ok := h.sessions[handle]
	if ok {
		info.Packets++
	}
	return ok
}

func (h *Hub) closed(ctx context.Context, handle string) {
	h.mu.Lock()
	info, ok := h.sessions[handle]
	if ok {
		delete(h.sessions, handle)
	}
	active := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		h.logger.Debug("close notification for unknown session", "handle", handle)
		return
	}

	metrics.ActiveSessions.Set(float64(active))
	h.record(ctx, &store.SessionEvent{Handle: handle, Kind: store.SessionClosed, Packets: info.Packets})
	h.logger.Debug("session closed", "handle", handle, "packets", info.Packets, "active", active)
	h.handler.OnClose(h, handle)
}

func (h *Hub) record(ctx context.Context, e *store.SessionEvent) {
	if h.opts.Store == nil {
		return
	}
	if err := h.opts.Store.RecordSessionEvent(ctx, e); err != nil {
		h.logger.Warn("failed to record session event", "handle", e.Handle, "kind", e.Kind, "error", err)
	}
}

// Send queues data for the session. Unknown handles queue nothing.
func (h *Hub) Send(handle string, data []byte) error {
	if !h.isOpen(handle) {
		return ErrSessionNotFound
	}
	payload, err := session.EncodeEnvelope(session.Envelope{Handle: handle, Data: data})
	if err != nil {
		return err
	}
	h.gw.Packets().SendToGateway(payload)
	return nil
}

// Close asks the worker to terminate the session. The session stays listed
// until its close notification arrives. Unknown handles queue nothing.
func (h *Hub) Close(handle string) error {
	if !h.isOpen(handle) {
		return ErrSessionNotFound
	}
	h.gw.Sessions().RequestClose(handle)
	return nil
}

func (h *Hub) isOpen(handle string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[handle]
	return ok
}

// Sessions returns a snapshot of the open sessions.
func (h *Hub) Sessions() []SessionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]SessionInfo, 0, len(h.sessions))
	for _, info := range h.sessions {
		out = append(out, *info)
	}
	return out
}

// Broadcast sends data to every open session and returns how many were sent.
func (h *Hub) Broadcast(data []byte) int {
	sent := 0
	for _, info := range h.Sessions() {
		if h.Send(info.Handle, data) == nil {
			sent++
		}
	}
	return sent
}
