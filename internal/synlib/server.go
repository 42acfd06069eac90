// ABOUTME: The gateway worker: owns the queues and runs the session manager on its own goroutine.
// ABOUTME: Implements the cooperative shutdown and crash-detection state machine.

package synlib

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Version of the gateway worker.
const Version = "0.1.0"

// Identity is the fixed diagnostic name of the worker.
const Identity = "SynapseServer"

// DefaultInterface is the bind address used when Options.Interface is empty.
const DefaultInterface = "0.0.0.0"

// Gateway is the worker-side view handed to the session manager.
type Gateway interface {
	IsShutdown() bool
	Packets() *PacketChannels
	Sessions() *SessionTracker
	Reporter() *ErrorReporter
	Logger() Logger
}

// Collaborator owns the socket listener and the session loop. Run must
// observe g.IsShutdown() at bounded intervals and return promptly once it
// reports true.
type Collaborator interface {
	Run(g Gateway) error
}

// NewCollaboratorFunc builds the session manager on the worker goroutine.
type NewCollaboratorFunc func(logger Logger, port int, iface string) (Collaborator, error)

// Options configures a Server.
type Options struct {
	Interface string
	Port      int

	// Root is the installation root used to shorten paths in fault traces.
	Root string

	NewCollaborator NewCollaboratorFunc
}

// Server is the isolated gateway worker. It starts running as soon as New
// returns. The queues and the lifecycle state are the only things it shares
// with the rest of the process.
type Server struct {
	iface  string
	port   int
	logger Logger
	facade any

	packets  *PacketChannels
	sessions *SessionTracker
	reporter *ErrorReporter

	newCollaborator NewCollaboratorFunc

	mu    sync.Mutex // serializes state transitions
	state atomic.Int32

	done chan struct{}
}

// New validates opts, allocates the queues and starts the worker goroutine.
// facade is an opaque handle returned by Server() and never interpreted.
func New(opts Options, logger Logger, facade any) (*Server, error) {
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, &ConfigurationError{Field: "port", Value: opts.Port, Err: ErrInvalidPort}
	}
	if opts.NewCollaborator == nil {
		return nil, &ConfigurationError{Field: "collaborator", Value: nil, Err: ErrNoCollaborator}
	}
	if logger == nil {
		logger = NewSlogLogger(nil)
	}

	iface := opts.Interface
	if iface == "" {
		iface = DefaultInterface
	}

	s := &Server{
		iface:           iface,
		port:            opts.Port,
		logger:          logger,
		facade:          facade,
		packets:         newPacketChannels(),
		sessions:        newSessionTracker(),
		reporter:        NewErrorReporter(logger, opts.Root),
		newCollaborator: opts.NewCollaborator,
		done:            make(chan struct{}),
	}
	s.state.Store(int32(StateStarting))

	go s.run()
	return s, nil
}

// run is the worker entry point. Deferred calls form the fault boundary:
// a panic is logged, then the exit hook settles the terminal state.
func (s *Server) run() {
	defer close(s.done)
	defer s.exit()
	defer func() {
		if r := recover(); r != nil {
			s.logger.LogException(&PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	s.advance(StateRunning)

	collaborator, err := s.newCollaborator(s.logger, s.port, s.iface)
	if err != nil {
		s.logger.LogException(fmt.Errorf("starting session manager on %s:%d: %w", s.iface, s.port, err))
		return
	}
	if err := collaborator.Run(s); err != nil {
		s.logger.LogException(err)
	}
}

func (s *Server) exit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.reporter.OnThreadExit(s.State())
	s.state.Store(int32(next))
}

// advance moves the state forward; backward or post-terminal moves are ignored.
func (s *Server) advance(next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.State().canAdvance(next) {
		return false
	}
	s.state.Store(int32(next))
	return true
}

// RequestShutdown asks the worker to stop. It only flips the state; the
// session manager notices on its next iteration. Safe to call any number of
// times from any goroutine.
func (s *Server) RequestShutdown() {
	s.advance(StateShuttingDown)
}

// IsShutdown reports whether shutdown was requested or the worker has exited.
func (s *Server) IsShutdown() bool {
	return s.State().shutdown()
}

// Quit requests shutdown and waits for the worker to exit.
func (s *Server) Quit() State {
	s.RequestShutdown()
	<-s.done
	return s.State()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Done is closed once the worker has reached a terminal state.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Identity returns the worker's diagnostic name.
func (s *Server) Identity() string {
	return Identity
}

// Server returns the opaque facade passed to New.
func (s *Server) Server() any {
	return s.facade
}

func (s *Server) Port() int {
	return s.port
}

func (s *Server) Interface() string {
	return s.iface
}

func (s *Server) Logger() Logger {
	return s.logger
}

// Packets returns the payload queues.
func (s *Server) Packets() *PacketChannels {
	return s.packets
}

// Sessions returns the session lifecycle queues.
func (s *Server) Sessions() *SessionTracker {
	return s.sessions
}

// Reporter returns the worker's fault reporter.
func (s *Server) Reporter() *ErrorReporter {
	return s.reporter
}
