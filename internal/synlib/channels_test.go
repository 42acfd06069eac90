// ABOUTME: Tests for the payload and session lifecycle queues.
// ABOUTME: Directions are independent and nothing is deduplicated.

package synlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketChannels_Directions(t *testing.T) {
	p := newPacketChannels()

	p.SendToGateway([]byte("in"))
	p.SendFromGateway([]byte("out"))

	toGateway, fromGateway := p.Pending()
	assert.Equal(t, 1, toGateway)
	assert.Equal(t, 1, fromGateway)

	got, ok := p.PollToGateway()
	require.True(t, ok)
	assert.Equal(t, []byte("in"), got)

	got, ok = p.PollFromGateway()
	require.True(t, ok)
	assert.Equal(t, []byte("out"), got)

	_, ok = p.PollToGateway()
	assert.False(t, ok)
	_, ok = p.PollFromGateway()
	assert.False(t, ok)
}

func TestSessionTracker_NoDeduplication(t *testing.T) {
	tr := newSessionTracker()

	tr.RequestClose("a")
	tr.RequestClose("a")
	tr.NotifyClosed("b")
	tr.NotifyOpened("c")
	assert.Equal(t, 2, tr.PendingCloseRequests())

	first, ok := tr.PollCloseRequest()
	require.True(t, ok)
	second, ok := tr.PollCloseRequest()
	require.True(t, ok)
	assert.Equal(t, "a", first)
	assert.Equal(t, "a", second)

	_, ok = tr.PollCloseRequest()
	assert.False(t, ok)
	assert.Zero(t, tr.PendingCloseRequests())

	closed, ok := tr.PollClosed()
	require.True(t, ok)
	assert.Equal(t, "b", closed)

	opened, ok := tr.PollOpened()
	require.True(t, ok)
	assert.Equal(t, "c", opened)
}
