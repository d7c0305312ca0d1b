package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBareConnection(id string) *Connection {
	return &Connection{ID: id, Send: make(chan []byte, 1)}
}

func TestHubBindAndBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	a := newBareConnection("a")
	b := newBareConnection("b")
	h.Register(a)
	h.Register(b)
	h.BindSession(a, "s1")
	h.BindSession(b, "s2")

	assert.True(t, h.HasActiveConnections("s1"))
	assert.Equal(t, 2, h.ConnectionCount())

	h.Broadcast("s1", []byte("x"))

	select {
	case got := <-a.Send:
		assert.Equal(t, "x", string(got))
	case <-time.After(time.Second):
		t.Fatal("broadcast not delivered")
	}
	assert.Empty(t, b.Send)
}

func TestHubRebindMovesConnection(t *testing.T) {
	h := NewHub()
	a := newBareConnection("a")
	h.Register(a)

	h.BindSession(a, "s1")
	h.BindSession(a, "s2")

	assert.False(t, h.HasActiveConnections("s1"))
	assert.True(t, h.HasActiveConnections("s2"))
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	h := NewHub()
	a := newBareConnection("a")
	h.Register(a)
	h.BindSession(a, "s1")

	h.Unregister(a)
	h.Unregister(a)

	assert.False(t, h.HasActiveConnections("s1"))
	assert.ErrorIs(t, h.SendToConnection(a, []byte("x")), ErrConnectionClosed)
}

func TestHubSendBufferFull(t *testing.T) {
	h := NewHub()
	a := newBareConnection("a")
	h.Register(a)

	require.NoError(t, h.SendToConnection(a, []byte("1")))
	assert.ErrorIs(t, h.SendToConnection(a, []byte("2")), ErrBufferFull)
}

func TestHubRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	a := newBareConnection("a")
	h.Register(a)

	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, ok := <-a.Send
	assert.False(t, ok)
	assert.Equal(t, 0, h.ConnectionCount())

	// Broadcasts after shutdown must not block.
	h.Broadcast("s1", []byte("x"))
}
