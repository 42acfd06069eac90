// ABOUTME: Default session manager run on the gateway worker: accept loop plus per-session readers.
// ABOUTME: Translates sockets into envelopes and lifecycle notifications on the gateway queues.

package session

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/synapse-gateway/internal/dedupe"
	"github.com/2389/synapse-gateway/internal/metrics"
	"github.com/2389/synapse-gateway/internal/synlib"
)

// Options tunes the session manager. Zero values select defaults.
type Options struct {
	// TickInterval is how often the outbound queues are drained and the
	// shutdown flag is checked.
	TickInterval time.Duration
	WriteTimeout time.Duration
	MaxFrameSize int

	// Logger receives structured session logs. When nil the worker logger's
	// slog handler is used if it has one.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = 10 * time.Millisecond
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = DefaultMaxFrameSize
	}
	return o
}

// maxAcceptFailures is how many consecutive accept errors end the run loop.
const maxAcceptFailures = 10

// faultWindow is how long an identical fault report is suppressed.
const faultWindow = 5 * time.Second

// conn is one client session. Only the Run goroutine touches the session map;
// reader goroutines report back through channels.
type conn struct {
	handle string
	nc     net.Conn
	opened time.Time
}

// Manager owns the socket and every client session.
type Manager struct {
	socket *Socket
	logger *slog.Logger
	opts   Options
	gw     synlib.Gateway
	faults *dedupe.Cache[string]

	sessions map[string]*conn
	accepted chan net.Conn
	ended    chan string
	quit     chan struct{}
	done     chan struct{}
	readers  sync.WaitGroup
}

// Factory returns a constructor suitable for synlib.Options.NewCollaborator.
func Factory(opts Options) synlib.NewCollaboratorFunc {
	return func(logger synlib.Logger, port int, iface string) (synlib.Collaborator, error) {
		return New(logger, port, iface, opts)
	}
}

// New binds the socket. The manager starts accepting once Run is called.
func New(logger synlib.Logger, port int, iface string, opts Options) (*Manager, error) {
	opts = opts.withDefaults()

	slogger := opts.Logger
	if slogger == nil {
		if sl, ok := logger.(interface{ Slog() *slog.Logger }); ok {
			slogger = sl.Slog()
		} else {
			slogger = slog.Default()
		}
	}

	socket, err := Listen(iface, port)
	if err != nil {
		return nil, err
	}

	return &Manager{
		socket:   socket,
		logger:   slogger.With("component", "session-manager"),
		opts:     opts,
		faults:   dedupe.New[string](faultWindow, 64),
		sessions: make(map[string]*conn),
		accepted: make(chan net.Conn),
		ended:    make(chan string),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Addr returns the address the socket is bound to.
func (m *Manager) Addr() net.Addr {
	return m.socket.Addr()
}

// Run serves sessions until g reports shutdown or the listener fails.
func (m *Manager) Run(g synlib.Gateway) error {
	m.gw = g
	m.logger.Info("session manager listening", "addr", m.socket.Addr().String())

	acceptErr := make(chan error, 1)
	go m.acceptLoop(acceptErr)
	defer m.shutdown()

	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	for !g.IsShutdown() {
		select {
		case nc := <-m.accepted:
			m.open(nc)
		case handle := <-m.ended:
			m.finish(handle, "remote")
		case err := <-acceptErr:
			return fmt.Errorf("accepting connections: %w", err)
		case <-ticker.C:
			m.flush()
		}
	}

	// Deliver whatever main logic queued before asking us to stop.
	m.flush()
	return nil
}

func (m *Manager) acceptLoop(errCh chan<- error) {
	defer close(m.done)

	failures := 0
	for {
		nc, err := m.socket.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			failures++
			m.report(synlib.SeverityWarning, fmt.Sprintf("accept failed: %v", err))
			if failures >= maxAcceptFailures {
				errCh <- err
				return
			}
			time.Sleep(time.Duration(failures) * 10 * time.Millisecond)
			continue
		}
		failures = 0

		select {
		case m.accepted <- nc:
		case <-m.quit:
			_ = nc.Close()
			return
		}
	}
}

// open registers a new session and announces it before its reader starts,
// so the open notification always precedes the session's first payload.
func (m *Manager) open(nc net.Conn) {
	c := &conn{
		handle: uuid.NewString(),
		nc:     nc,
		opened: time.Now(),
	}
	m.sessions[c.handle] = c

	metrics.SessionsOpened.Inc()
	m.gw.Sessions().NotifyOpened(c.handle)
	m.logger.Debug("session opened",
		"handle", c.handle,
		"remote_addr", nc.RemoteAddr().String(),
		"total_sessions", len(m.sessions),
	)

	m.readers.Add(1)
	go m.readLoop(c)
}

func (m *Manager) readLoop(c *conn) {
	defer m.readers.Done()
	defer func() {
		if r := recover(); r != nil {
			m.gw.Reporter().Recover(r)
		}
		select {
		case m.ended <- c.handle:
		case <-m.quit:
		}
	}()

	reader := bufio.NewReader(c.nc)
	for {
		data, err := ReadFrame(reader, m.opts.MaxFrameSize)
		if err != nil {
			if errors.Is(err, ErrFrameTooLarge) {
				m.gw.Reporter().Report(synlib.SeverityWarning, fmt.Sprintf("session %s: %v", c.handle, err))
			}
			return
		}

		payload, err := EncodeEnvelope(Envelope{Handle: c.handle, Data: data})
		if err != nil {
			m.gw.Reporter().Report(synlib.SeverityError, err.Error())
			return
		}
		metrics.PacketsReceived.Inc()
		m.gw.Packets().SendFromGateway(payload)
	}
}

// flush delivers outbound payloads, then close requests, so a final message
// queued before a close request still reaches the client. Each pass handles at
// most what was queued when it started; later items wait for the next tick.
func (m *Manager) flush() {
	packets := m.gw.Packets()
	n, _ := packets.Pending()
	for ; n > 0; n-- {
		payload, ok := packets.PollToGateway()
		if !ok {
			break
		}
		m.deliver(payload)
	}

	sessions := m.gw.Sessions()
	for n = sessions.PendingCloseRequests(); n > 0; n-- {
		handle, ok := sessions.PollCloseRequest()
		if !ok {
			break
		}
		m.finish(handle, "requested")
	}
}

func (m *Manager) deliver(payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		metrics.PacketsDropped.WithLabelValues("malformed").Inc()
		m.report(synlib.SeverityNotice, fmt.Sprintf("dropping outbound payload: %v", err))
		return
	}

	c, ok := m.sessions[env.Handle]
	if !ok {
		metrics.PacketsDropped.WithLabelValues("unknown_session").Inc()
		m.logger.Debug("dropping payload for unknown session", "handle", env.Handle)
		return
	}

	_ = c.nc.SetWriteDeadline(time.Now().Add(m.opts.WriteTimeout))
	if err := WriteFrame(c.nc, env.Data); err != nil {
		metrics.PacketsDropped.WithLabelValues("write_error").Inc()
		m.logger.Debug("write failed", "handle", env.Handle, "error", err)
		m.finish(env.Handle, "write_error")
		return
	}
	metrics.PacketsSent.Inc()
}

// finish closes a session and emits exactly one close notification for it.
// Unknown or already-closed handles are ignored.
func (m *Manager) finish(handle, reason string) {
	c, ok := m.sessions[handle]
	if !ok {
		return
	}
	delete(m.sessions, handle)
	_ = c.nc.Close()

	metrics.SessionsClosed.WithLabelValues(reason).Inc()
	m.gw.Sessions().NotifyClosed(handle)
	m.logger.Debug("session closed",
		"handle", handle,
		"reason", reason,
		"duration", time.Since(c.opened).Round(time.Millisecond),
		"total_sessions", len(m.sessions),
	)
}

// report raises a fault unless the same message was reported within
// faultWindow. The fault is located at report's caller.
func (m *Manager) report(severity synlib.Severity, message string) {
	if m.faults.Seen(message) {
		m.logger.Debug("suppressed repeated fault", "severity", severity.String(), "message", message)
		return
	}
	_, file, line, _ := runtime.Caller(1)
	m.gw.Reporter().ReportFault(synlib.Fault{
		Severity: severity,
		Message:  message,
		File:     file,
		Line:     line,
	})
}

func (m *Manager) shutdown() {
	close(m.quit)
	_ = m.socket.Close()

	for handle := range m.sessions {
		m.finish(handle, "shutdown")
	}

	<-m.done
	m.readers.Wait()
	m.logger.Info("session manager stopped")
}
