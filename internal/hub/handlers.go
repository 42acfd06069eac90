// ABOUTME: Stock handlers for the hub.
// ABOUTME: Echo returns every payload to its sender; Funcs adapts plain functions.

package hub

// Echo writes every payload back to the session it came from.
type Echo struct{}

func (Echo) OnOpen(h *Hub, handle string) {}

func (Echo) OnPacket(h *Hub, handle string, data []byte) {
	_ = h.Send(handle, data)
}

func (Echo) OnClose(h *Hub, handle string) {}

// Funcs adapts optional callbacks to a Handler. Nil fields are skipped.
type Funcs struct {
	Open   func(h *Hub, handle string)
	Packet func(h *Hub, handle string, data []byte)
	Close  func(h *Hub, handle string)
}

func (f Funcs) OnOpen(h *Hub, handle string) {
	if f.Open != nil {
		f.Open(h, handle)
	}
}

func (f Funcs) OnPacket(h *Hub, handle string, data []byte) {
	if f.Packet != nil {
		f.Packet(h, handle, data)
	}
}

func (f Funcs) OnClose(h *Hub, handle string) {
	if f.Close != nil {
		f.Close(h, handle)
	}
}
