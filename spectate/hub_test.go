package spectate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHubDropsForSlowClients(t *testing.T) {
	h := NewHub()
	slow := &client{send: make(chan []byte, 1)}
	fast := &client{send: make(chan []byte, 4)}
	h.register(slow)
	h.register(fast)
	require.Equal(t, 2, h.Len())

	h.Broadcast(wsMessage{Type: "a"})
	h.Broadcast(wsMessage{Type: "b"})
	require.Len(t, slow.send, 1)
	require.Len(t, fast.send, 2)
	require.JSONEq(t, `{"type":"a"}`, string(<-slow.send))

	h.unregister(slow)
	h.unregister(slow)
	_, open := <-slow.send
	require.False(t, open)
	require.Equal(t, 1, h.Len())

	h.Close()
	require.Zero(t, h.Len())
	<-fast.send
	<-fast.send
	_, open = <-fast.send
	require.False(t, open)
}

func TestHubSendAfterClose(t *testing.T) {
	h := NewHub()
	c := &client{send: make(chan []byte, 4)}
	require.True(t, h.register(c))

	h.send(c, wsMessage{Type: "snapshot"})
	require.JSONEq(t, `{"type":"snapshot"}`, string(<-c.send))

	h.Close()
	require.NotPanics(t, func() { h.send(c, wsMessage{Type: "snapshot"}) })
	_, open := <-c.send
	require.False(t, open)

	h.unregister(c)
	require.NotPanics(t, func() { h.send(c, wsMessage{Type: "snapshot"}) })

	late := &client{send: make(chan []byte, 4)}
	require.False(t, h.register(late), "Closed hub should refuse new clients")
	h.send(late, wsMessage{Type: "snapshot"})
	require.Empty(t, late.send)
	require.Zero(t, h.Len())
}
