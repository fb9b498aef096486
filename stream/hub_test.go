package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Step   int     `json:"step"`
	Reward float64 `json:"reward"`
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	s := httptest.NewServer(hub)
	defer s.Close()
	defer hub.Close()

	first := dial(t, s.URL)
	second := dial(t, s.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(frame{Step: 3, Reward: 0.05}))
	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		var got frame
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, frame{Step: 3, Reward: 0.05}, got)
	}
}

func TestHubSendsLastFrameOnConnect(t *testing.T) {
	hub := NewHub(nil)
	s := httptest.NewServer(hub)
	defer s.Close()
	defer hub.Close()

	require.NoError(t, hub.Broadcast(frame{Step: 7}))

	conn := dial(t, s.URL)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 7, got.Step)
}

func TestHubClientDisconnect(t *testing.T) {
	hub := NewHub(nil)
	s := httptest.NewServer(hub)
	defer s.Close()
	defer hub.Close()

	conn := dial(t, s.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(nil)
	s := httptest.NewServer(hub)
	defer s.Close()

	conn := dial(t, s.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	hub.Close()
	assert.Zero(t, hub.Clients())
	assert.ErrorIs(t, hub.Broadcast(frame{}), ErrClosed)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
