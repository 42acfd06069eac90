// Package synlib is the cross-goroutine network gateway.
//
// # Overview
//
// A Server is an isolated worker that owns a socket listener and a session
// manager. It exchanges opaque payloads with main application logic only
// through five queues and a lifecycle state:
//
//	main logic                         gateway worker
//	----------                         --------------
//	Packets().SendToGateway   ───────▶ Packets().PollToGateway
//	Packets().PollFromGateway ◀─────── Packets().SendFromGateway
//	Sessions().PollOpened     ◀─────── Sessions().NotifyOpened
//	Sessions().RequestClose   ───────▶ Sessions().PollCloseRequest
//	Sessions().PollClosed     ◀─────── Sessions().NotifyClosed
//
// Nothing blocks. Each side polls the queues it consumes once per cycle.
//
// # Lifecycle
//
//	Starting ──▶ Running ──▶ ShuttingDown ──▶ Stopped
//	                 │
//	                 └──────────────────────▶ Crashed
//
// New validates the port and starts the worker immediately. RequestShutdown
// only flips the state; the session manager polls IsShutdown and returns. If
// the run loop returns without a shutdown request the worker is Crashed and a
// single emergency line is logged.
//
// # Faults
//
// ErrorReporter turns faults raised on the worker into a debug summary line
// plus one debug line per call frame. A panic escaping the session manager is
// logged through Logger.LogException and ends the run loop.
//
// # Usage
//
//	srv, err := synlib.New(synlib.Options{
//	    Port:            19132,
//	    NewCollaborator: session.Factory(logger, session.Options{}),
//	}, synlib.NewSlogLogger(logger), app)
//	if err != nil {
//	    return err
//	}
//	defer srv.Quit()
package synlib
