package rtclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// drainConn keeps the server side alive until the peer disconnects
func drainConn(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// newTestServer upgrades connections and hands them to fn
func newTestServer(t *testing.T, fn func(conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fn(conn)
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectSendsTokenAndDispatchesEvents(t *testing.T) {
	tokens := make(chan string, 1)
	received := make(chan json.RawMessage, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteJSON(Envelope{Event: "notification", Data: json.RawMessage(`{"content":"hi"}`)})
		drainConn(conn)
	}))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	c := New(wsURL, "secret-token", Options{MaxRetries: 1, RetryDelay: 10 * time.Millisecond})
	c.On("notification", func(data json.RawMessage) {
		received <- data
	})
	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "secret-token", <-tokens)
	select {
	case data := <-received:
		assert.JSONEq(t, `{"content":"hi"}`, string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}
	assert.True(t, c.IsConnected())
}

func TestSendWritesEnvelope(t *testing.T) {
	frames := make(chan Envelope, 1)
	_, wsURL := newTestServer(t, func(conn *websocket.Conn) {
		var env Envelope
		if err := conn.ReadJSON(&env); err == nil {
			frames <- env
		}
		drainConn(conn)
	})

	c := New(wsURL, "tok", Options{MaxRetries: 1, RetryDelay: 10 * time.Millisecond})
	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Send("message:send", map[string]string{"receiver_id": "u2", "content": "hi"}))

	select {
	case env := <-frames:
		assert.Equal(t, "message:send", env.Event)
		assert.JSONEq(t, `{"receiver_id":"u2","content":"hi"}`, string(env.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestSendFailsWhenDisconnected(t *testing.T) {
	c := New("ws://127.0.0.1:0/ws", "tok", Options{MaxRetries: 1, RetryDelay: 10 * time.Millisecond})
	assert.EqualError(t, c.Send("x", nil), "not connected")
}

func TestCloseUnregistersHandlers(t *testing.T) {
	_, wsURL := newTestServer(t, drainConn)

	var calls atomic.Int32
	c := New(wsURL, "tok", Options{MaxRetries: 1, RetryDelay: 10 * time.Millisecond})
	c.On("notification", func(json.RawMessage) { calls.Add(1) })
	require.NoError(t, c.Connect())

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())

	// a closed client refuses to dial again
	assert.Error(t, c.Connect())
	assert.Zero(t, calls.Load())
}

func TestReconnectAfterDrop(t *testing.T) {
	var conns atomic.Int32
	_, wsURL := newTestServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if n == 1 {
			// drop the first connection immediately
			_ = conn.Close()
			return
		}
		drainConn(conn)
	})

	c := New(wsURL, "tok", Options{MaxRetries: 3, RetryDelay: 20 * time.Millisecond})
	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Close() })

	assert.Eventually(t, func() bool {
		return conns.Load() >= 2 && c.IsConnected()
	}, 3*time.Second, 20*time.Millisecond, "client should redial after the drop")
}
