package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"backend/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(cache.NewMemoryPresence(), zap.NewNop().Sugar())
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func connect(t *testing.T, h *Hub, userID string) *Client {
	t.Helper()
	c := &Client{Hub: h, Send: make(chan []byte, 16), UserID: userID}
	h.register <- c
	return c
}

func recvEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Envelope{}
	}
}

func drainUntil(t *testing.T, c *Client, event string) Envelope {
	t.Helper()
	for i := 0; i < 20; i++ {
		env := recvEvent(t, c)
		if env.Event == event {
			return env
		}
	}
	t.Fatalf("event %q never arrived", event)
	return Envelope{}
}

// waitRoster consumes events until an online-users roster with exactly the
// given members arrives. Registering N clients produces N broadcasts, so
// waiting for the final membership drains every pending roster frame.
func waitRoster(t *testing.T, c *Client, want []string) {
	t.Helper()
	for i := 0; i < 20; i++ {
		env := drainUntil(t, c, EventOnlineUsers)
		var p OnlineUsersPayload
		require.NoError(t, json.Unmarshal(env.Data, &p))
		if len(p.Users) == len(want) {
			assert.Equal(t, want, p.Users)
			return
		}
	}
	t.Fatalf("roster %v never arrived", want)
}

func TestConnectBroadcastsRoster(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h, "alice")
	waitRoster(t, alice, []string{"alice"})

	_ = connect(t, h, "bob")
	waitRoster(t, alice, []string{"alice", "bob"})
}

func TestSendToUserRoutesOnlyToTarget(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h, "alice")
	bob := connect(t, h, "bob")
	waitRoster(t, alice, []string{"alice", "bob"})
	waitRoster(t, bob, []string{"alice", "bob"})

	h.SendToUser("bob", EventNotification, map[string]string{"id": "n1"})

	env := recvEvent(t, bob)
	assert.Equal(t, EventNotification, env.Event)
	assert.Empty(t, alice.Send)
}

func TestSendToUserReachesAllConnectionsOfUser(t *testing.T) {
	h := newTestHub(t)
	first := connect(t, h, "alice")
	second := connect(t, h, "alice")
	drainUntil(t, first, EventOnlineUsers)
	drainUntil(t, second, EventOnlineUsers)

	h.SendToUser("alice", EventMessageReceive, map[string]string{"id": "m1"})

	assert.Equal(t, EventMessageReceive, drainUntil(t, first, EventMessageReceive).Event)
	assert.Equal(t, EventMessageReceive, drainUntil(t, second, EventMessageReceive).Event)
}

func TestHiddenUserExcludedFromRoster(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h, "alice")
	bob := connect(t, h, "bob")
	waitRoster(t, alice, []string{"alice", "bob"})

	raw, _ := json.Marshal(ToggleVisibilityPayload{Hidden: true})
	h.handleEvent(bob, Envelope{Event: EventToggleVisibility, Data: raw})

	env := drainUntil(t, alice, EventVisibilityState)
	var vis VisibilityStatePayload
	require.NoError(t, json.Unmarshal(env.Data, &vis))
	assert.Equal(t, "bob", vis.UserID)
	assert.True(t, vis.Hidden)

	waitRoster(t, alice, []string{"alice"})

	// Toggling back restores the user to the roster
	raw, _ = json.Marshal(ToggleVisibilityPayload{Hidden: false})
	h.handleEvent(bob, Envelope{Event: EventToggleVisibility, Data: raw})
	waitRoster(t, alice, []string{"alice", "bob"})
}

func TestMalformedPayloadDropped(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h, "alice")
	waitRoster(t, alice, []string{"alice"})

	// Unknown event and undecodable payload must not panic or emit anything
	h.handleEvent(alice, Envelope{Event: "no:such:event"})
	h.handleEvent(alice, Envelope{Event: EventToggleVisibility, Data: json.RawMessage(`{"hidden":"not-a-bool"}`)})

	assert.Empty(t, alice.Send)
}

func TestGetOnlineUsersRepliesOnlyToRequester(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h, "alice")
	bob := connect(t, h, "bob")
	waitRoster(t, alice, []string{"alice", "bob"})
	waitRoster(t, bob, []string{"alice", "bob"})

	h.handleEvent(alice, Envelope{Event: EventGetOnlineUsers})

	env := drainUntil(t, alice, EventOnlineUsers)
	var p OnlineUsersPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.ElementsMatch(t, []string{"alice", "bob"}, p.Users)
	assert.Empty(t, bob.Send)
}

func TestDisconnectRemovesFromRoster(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h, "alice")
	bob := connect(t, h, "bob")
	waitRoster(t, alice, []string{"alice", "bob"})

	h.unregister <- bob
	waitRoster(t, alice, []string{"alice"})
}
