// Package session is the default socket collaborator of the gateway worker.
//
// # Overview
//
// Manager binds a TCP socket and runs on the synlib worker goroutine. It:
//
//   - accepts connections and gives each a fresh UUID handle
//   - announces each new session on the session-opened queue
//   - reads length-prefixed frames and forwards them as Envelopes on the
//     from-gateway packet queue
//   - drains the to-gateway packet queue and writes each Envelope's data to
//     its session; payloads for unknown handles are dropped
//   - drains close requests; closing an unknown handle is a no-op
//   - emits exactly one close notification per session, whoever closed it
//
// The run loop checks the gateway's shutdown flag every TickInterval. On
// shutdown the listener and every open session are closed.
//
// # Wire format
//
//	+----------------+----------------------+
//	| length (u32 BE)| payload (length bytes)|
//	+----------------+----------------------+
//
// Payloads are opaque. Frames above MaxFrameSize close the session.
package session
