// ABOUTME: Directional queue sets shared between the gateway worker and main logic.
// ABOUTME: PacketChannels carry payloads; SessionTracker carries session open/close events.

package synlib

import "github.com/2389/synapse-gateway/internal/queue"

// PacketChannels carries opaque payloads in both directions. Payloads are never
// inspected or copied; callers must not mutate a slice after sending it.
type PacketChannels struct {
	toGateway   *queue.Queue[[]byte]
	fromGateway *queue.Queue[[]byte]
}

func newPacketChannels() *PacketChannels {
	return &PacketChannels{
		toGateway:   queue.New[[]byte](),
		fromGateway: queue.New[[]byte](),
	}
}

// SendToGateway queues a payload from main logic for the gateway worker.
func (p *PacketChannels) SendToGateway(payload []byte) {
	p.toGateway.Push(payload)
}

// PollFromGateway returns the oldest payload the gateway produced, if any.
func (p *PacketChannels) PollFromGateway() ([]byte, bool) {
	return p.fromGateway.Pop()
}

// PollToGateway returns the oldest payload main logic queued, if any.
func (p *PacketChannels) PollToGateway() ([]byte, bool) {
	return p.toGateway.Pop()
}

// SendFromGateway queues a payload from the gateway worker for main logic.
func (p *PacketChannels) SendFromGateway(payload []byte) {
	p.fromGateway.Push(payload)
}

// Pending returns the number of queued payloads in each direction.
func (p *PacketChannels) Pending() (toGateway, fromGateway int) {
	return p.toGateway.Len(), p.fromGateway.Len()
}

// SessionTracker carries session lifecycle notifications.
//
// The tracker does no deduplication. Whoever consumes a close request or close
// notification must treat an unknown or already-closed handle as a no-op.
type SessionTracker struct {
	opened        *queue.Queue[string]
	closeRequests *queue.Queue[string]
	closed        *queue.Queue[string]
}

func newSessionTracker() *SessionTracker {
	return &SessionTracker{
		opened:        queue.New[string](),
		closeRequests: queue.New[string](),
		closed:        queue.New[string](),
	}
}

// NotifyOpened is called by the gateway once per newly established session.
func (t *SessionTracker) NotifyOpened(handle string) {
	t.opened.Push(handle)
}

// PollOpened returns the oldest unconsumed open notification.
func (t *SessionTracker) PollOpened() (string, bool) {
	return t.opened.Pop()
}

// RequestClose asks the gateway to terminate a session.
func (t *SessionTracker) RequestClose(handle string) {
	t.closeRequests.Push(handle)
}

// PollCloseRequest returns the oldest close request from main logic.
func (t *SessionTracker) PollCloseRequest() (string, bool) {
	return t.closeRequests.Pop()
}

// PendingCloseRequests returns the number of close requests not yet consumed.
func (t *SessionTracker) PendingCloseRequests() int {
	return t.closeRequests.Len()
}

// NotifyClosed is called by the gateway when a session has been terminated,
// whether main logic asked for it or the peer went away.
func (t *SessionTracker) NotifyClosed(handle string) {
	t.closed.Push(handle)
}

// PollClosed returns the oldest unconsumed close notification.
func (t *SessionTracker) PollClosed() (string, bool) {
	return t.closed.Pop()
}
