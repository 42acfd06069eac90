// Package hub is the main-logic side of the gateway.
//
// The gateway worker (package synlib) owns sockets and never calls back into
// the rest of the process. Instead it pushes notifications onto queues. A Hub
// polls those queues on a fixed interval and turns them into calls on a
// Handler:
//
//	PollClosed ──┐ (taken first, applied last)
//	PollOpened ──┼──> Handler.OnOpen
//	PollFromGateway ─> Handler.OnPacket
//	             └──> Handler.OnClose
//
// Handlers run on the hub goroutine and may call Send, Close and Broadcast,
// which push onto the worker's inbound queues. Send and Close refuse handles
// the hub does not consider open.
//
// When a SessionStore is configured every open and close is recorded along
// with the number of payloads the session delivered.
package hub
