// ABOUTME: Tests for the gateway worker's construction, lifecycle and crash detection.
// ABOUTME: Uses fake collaborators in place of the socket session manager.

package synlib

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, s *Server) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit")
	}
}

func TestNew_PortValidation(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"zero", 0, true},
		{"above range", 65536, true},
		{"negative", -1, true},
		{"lowest", 1, false},
		{"highest", 65535, false},
		{"typical", 25565, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			srv, err := New(Options{Port: tt.port, NewCollaborator: runWith(untilShutdown)}, logger, nil)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, srv)
				assert.True(t, errors.Is(err, ErrInvalidPort))

				var cfgErr *ConfigurationError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "port", cfgErr.Field)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, StateStopped, srv.Quit())
			assert.Empty(t, logger.emergencyLines())
		})
	}
}

func TestNew_RequiresCollaborator(t *testing.T) {
	srv, err := New(Options{Port: 19132}, &recordingLogger{}, nil)
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.True(t, errors.Is(err, ErrNoCollaborator))
}

func TestNew_Defaults(t *testing.T) {
	facade := &struct{ name string }{name: "main"}
	var gotPort int
	var gotIface string

	factory := func(_ Logger, port int, iface string) (Collaborator, error) {
		gotPort, gotIface = port, iface
		return collaboratorFunc(untilShutdown), nil
	}

	srv, err := New(Options{Port: 19132, NewCollaborator: factory}, &recordingLogger{}, facade)
	require.NoError(t, err)
	defer srv.Quit()

	assert.Equal(t, "SynapseServer", srv.Identity())
	assert.Equal(t, DefaultInterface, srv.Interface())
	assert.Equal(t, 19132, srv.Port())
	assert.Same(t, facade, srv.Server())
	assert.NotNil(t, srv.Packets())
	assert.NotNil(t, srv.Sessions())
	assert.NotNil(t, srv.Reporter())

	require.Eventually(t, func() bool { return srv.State() == StateRunning }, time.Second, time.Millisecond)
	assert.Equal(t, 19132, gotPort)
	assert.Equal(t, "0.0.0.0", gotIface)
}

func TestRequestShutdown_Idempotent(t *testing.T) {
	logger := &recordingLogger{}
	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(untilShutdown)}, logger, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.State() == StateRunning }, time.Second, time.Millisecond)

	assert.False(t, srv.IsShutdown())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.RequestShutdown()
			assert.True(t, srv.IsShutdown())
		}()
	}
	wg.Wait()

	waitDone(t, srv)
	assert.True(t, srv.IsShutdown())
	assert.Equal(t, StateStopped, srv.State())

	// Requests after the worker stopped do not change anything.
	srv.RequestShutdown()
	assert.Equal(t, StateStopped, srv.State())
	assert.Empty(t, logger.emergencyLines())
}

func TestRequestShutdown_WhileCollaboratorStarting(t *testing.T) {
	release := make(chan struct{})
	factory := func(Logger, int, string) (Collaborator, error) {
		<-release
		return collaboratorFunc(untilShutdown), nil
	}

	logger := &recordingLogger{}
	srv, err := New(Options{Port: 19132, NewCollaborator: factory}, logger, nil)
	require.NoError(t, err)

	srv.RequestShutdown()
	assert.True(t, srv.IsShutdown())
	close(release)

	waitDone(t, srv)
	assert.Equal(t, StateStopped, srv.State())
	assert.Empty(t, logger.emergencyLines())
}

func TestRun_ReturnWithoutShutdown_Crashes(t *testing.T) {
	logger := &recordingLogger{}
	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(func(Gateway) error { return nil })}, logger, nil)
	require.NoError(t, err)

	waitDone(t, srv)

	assert.Equal(t, StateCrashed, srv.State())
	assert.True(t, srv.IsShutdown())
	assert.Equal(t, []string{"SynLib crashed!"}, logger.emergencyLines())
	assert.Empty(t, logger.errors())

	// A crashed worker never moves again.
	srv.RequestShutdown()
	assert.Equal(t, StateCrashed, srv.State())
}

func TestRun_CollaboratorError(t *testing.T) {
	boom := errors.New("socket exploded")
	logger := &recordingLogger{}
	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(func(Gateway) error { return boom })}, logger, nil)
	require.NoError(t, err)

	waitDone(t, srv)

	assert.Equal(t, StateCrashed, srv.State())
	require.Len(t, logger.errors(), 1)
	assert.ErrorIs(t, logger.errors()[0], boom)
	assert.Len(t, logger.emergencyLines(), 1)
}

func TestRun_CollaboratorConstructionError(t *testing.T) {
	bindErr := errors.New("address in use")
	factory := func(Logger, int, string) (Collaborator, error) { return nil, bindErr }

	logger := &recordingLogger{}
	srv, err := New(Options{Port: 19132, NewCollaborator: factory}, logger, nil)
	require.NoError(t, err)

	waitDone(t, srv)

	assert.Equal(t, StateCrashed, srv.State())
	require.Len(t, logger.errors(), 1)
	assert.ErrorIs(t, logger.errors()[0], bindErr)
}

func TestRun_PanicIsContained(t *testing.T) {
	logger := &recordingLogger{}
	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(func(Gateway) error { panic("nil session") })}, logger, nil)
	require.NoError(t, err)

	waitDone(t, srv)

	assert.Equal(t, StateCrashed, srv.State())
	require.Len(t, logger.errors(), 1)

	var perr *PanicError
	require.ErrorAs(t, logger.errors()[0], &perr)
	assert.Equal(t, "nil session", perr.Value)
	assert.NotEmpty(t, perr.Stack)
	assert.Len(t, logger.emergencyLines(), 1)
}

func TestRun_FaultAfterShutdownIsNotACrash(t *testing.T) {
	logger := &recordingLogger{}
	run := func(g Gateway) error {
		for !g.IsShutdown() {
			time.Sleep(time.Millisecond)
		}
		return errors.New("listener closed")
	}
	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(run)}, logger, nil)
	require.NoError(t, err)

	assert.Equal(t, StateStopped, srv.Quit())
	assert.Len(t, logger.errors(), 1)
	assert.Empty(t, logger.emergencyLines())
}

func TestServer_PacketRoundTrip(t *testing.T) {
	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(untilShutdown)}, &recordingLogger{}, nil)
	require.NoError(t, err)
	defer srv.Quit()

	srv.Packets().SendToGateway([]byte{0x01, 0x02})

	got, ok := srv.Packets().PollToGateway()
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02}, got)

	_, ok = srv.Packets().PollToGateway()
	assert.False(t, ok)
}

func TestServer_EchoThroughWorker(t *testing.T) {
	echo := func(g Gateway) error {
		for !g.IsShutdown() {
			if p, ok := g.Packets().PollToGateway(); ok {
				g.Packets().SendFromGateway(append([]byte("echo:"), p...))
			}
			if h, ok := g.Sessions().PollCloseRequest(); ok {
				g.Sessions().NotifyClosed(h)
			}
			time.Sleep(time.Millisecond)
		}
		return nil
	}

	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(echo)}, &recordingLogger{}, nil)
	require.NoError(t, err)
	defer srv.Quit()

	srv.Packets().SendToGateway([]byte("hi"))
	srv.Sessions().RequestClose("session-1")

	var reply []byte
	require.Eventually(t, func() bool {
		var ok bool
		reply, ok = srv.Packets().PollFromGateway()
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, []byte("echo:hi"), reply)

	var closed string
	require.Eventually(t, func() bool {
		var ok bool
		closed, ok = srv.Sessions().PollClosed()
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, "session-1", closed)
}

func TestServer_QueuesOutliveWorker(t *testing.T) {
	run := func(g Gateway) error {
		g.Sessions().NotifyOpened("late")
		return nil
	}
	srv, err := New(Options{Port: 19132, NewCollaborator: runWith(run)}, &recordingLogger{}, nil)
	require.NoError(t, err)
	waitDone(t, srv)

	handle, ok := srv.Sessions().PollOpened()
	require.True(t, ok)
	assert.Equal(t, "late", handle)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "shutting_down", StateShuttingDown.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "crashed", StateCrashed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestState_OnlyMovesForward(t *testing.T) {
	assert.True(t, StateStarting.canAdvance(StateRunning))
	assert.True(t, StateStarting.canAdvance(StateShuttingDown))
	assert.False(t, StateShuttingDown.canAdvance(StateRunning))
	assert.False(t, StateStopped.canAdvance(StateCrashed))
	assert.False(t, StateCrashed.canAdvance(StateStopped))
	assert.False(t, StateRunning.canAdvance(StateRunning))
}
