// ABOUTME: Tests for the serve wiring helpers
// ABOUTME: Covers hub shutdown ordering on signals and metrics listener release

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/synapse-gateway/internal/config"
	"github.com/2389/synapse-gateway/internal/hub"
	"github.com/2389/synapse-gateway/internal/session"
	"github.com/2389/synapse-gateway/internal/store"
	"github.com/2389/synapse-gateway/internal/synlib"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestStartHub_RecordsClosesAfterCancel(t *testing.T) {
	_, portStr, err := net.SplitHostPort(freeAddr(t))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	srv, err := synlib.New(synlib.Options{
		Interface:       "127.0.0.1",
		Port:            port,
		NewCollaborator: session.Factory(session.Options{Logger: discardLogger()}),
	}, synlib.NewSlogLogger(discardLogger()), nil)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Quit() })

	st := store.NewMockStore()
	h := hub.New(srv, hub.Echo{}, hub.Options{
		PollInterval: 5 * time.Millisecond,
		Store:        st,
		Logger:       discardLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := startHub(ctx, h)

	var client net.Conn
	require.Eventually(t, func() bool {
		client, err = net.Dial("tcp", net.JoinHostPort("127.0.0.1", portStr))
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	defer client.Close()
	require.Eventually(t, func() bool { return len(h.Sessions()) == 1 },
		2*time.Second, time.Millisecond)

	// A signal cancels the serve context before the worker is stopped.
	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, synlib.StateStopped, srv.Quit())

	select {
	case <-hubDone:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after the worker exited")
	}

	assert.Empty(t, h.Sessions())
	kind := store.SessionClosed
	closed, err := st.ListSessionEvents(context.Background(), store.SessionEventFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, closed, 1)
}

func TestStartMetrics_ReleasesListener(t *testing.T) {
	addr := freeAddr(t)
	cfg := config.MetricsConfig{Enabled: true, Addr: addr, Path: "/metrics"}

	ctx, cancel := context.WithCancel(context.Background())
	done := startMetrics(ctx, cfg, discardLogger())

	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		c.Close()
		return true
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(6 * time.Second):
		t.Fatal("metrics server did not stop")
	}

	// The address is free again for the next serve run.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, ln.Close())
}
