package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"backend/internal/cache"
	"backend/internal/model"

	"go.uber.org/zap"
)

// ChatHandler executes chat mutations arriving over the socket. Implemented
// by the chat service, which persists and emits the resulting events itself
// so the socket and REST paths converge on identical deliveries. Injected
// after construction to break the wiring cycle between hub and services.
type ChatHandler interface {
	SendMessage(ctx context.Context, senderID, receiverID, content, attachment string) error
	MarkRead(ctx context.Context, readerID, messageID string) error
	DeleteMessage(ctx context.Context, userID, messageID string) error
}

// Hub maintains the set of active clients keyed by user id and routes
// presence, chat, and notification events between them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]bool // userID -> connections
	presence cache.PresenceStore
	chat     ChatHandler
	log      *zap.SugaredLogger

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub initializes a hub with the given presence store
func NewHub(presence cache.PresenceStore, log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		presence:   presence,
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetChatHandler wires the chat service in. Must be called before Run.
func (h *Hub) SetChatHandler(chat ChatHandler) {
	h.chat = chat
}

// Run starts the core dispatch loop for connection lifecycle events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]bool)
				h.clients[client.UserID] = conns
			}
			conns[client] = true
			h.mu.Unlock()
			h.log.Infow("websocket client connected", "user_id", client.UserID)
			h.broadcastOnlineUsers()
		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.Send)
					if len(conns) == 0 {
						delete(h.clients, client.UserID)
					}
					h.log.Infow("websocket client disconnected", "user_id", client.UserID)
				}
			}
			h.mu.Unlock()
			h.broadcastOnlineUsers()
		case <-h.done:
			return
		}
	}
}

// Stop terminates the dispatch loop
func (h *Hub) Stop() {
	close(h.done)
}

// OnlineUsers returns the ids of connected users who have not hidden their
// presence, sorted for stable rosters.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	visible := ids[:0]
	for _, id := range ids {
		hidden, err := h.presence.IsHidden(context.Background(), id)
		if err != nil {
			h.log.Warnw("presence lookup failed", "user_id", id, "error", err)
			continue
		}
		if !hidden {
			visible = append(visible, id)
		}
	}
	sort.Strings(visible)
	return visible
}

// SendToUser delivers an event to every open connection of one user.
// A full send buffer drops the connection rather than blocking the caller.
func (h *Hub) SendToUser(userID, event string, data interface{}) {
	payload, err := json.Marshal(NewEnvelope(event, data))
	if err != nil {
		h.log.Warnw("failed to marshal event", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[userID]
	for client := range conns {
		select {
		case client.Send <- payload:
		default:
			close(client.Send)
			delete(conns, client)
		}
	}
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

// Broadcast delivers an event to every connected client
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(NewEnvelope(event, data))
	if err != nil {
		h.log.Warnw("failed to marshal event", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for client := range conns {
			select {
			case client.Send <- payload:
			default:
				close(client.Send)
				delete(conns, client)
			}
		}
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// PushNotification signals the owning user that a new notification exists.
// The REST list remains the source of truth; the payload carries the row so
// clients can invalidate or merge.
func (h *Hub) PushNotification(n *model.Notification) {
	h.SendToUser(n.UserID.String(), EventNotification, n)
}

func (h *Hub) broadcastOnlineUsers() {
	h.Broadcast(EventOnlineUsers, OnlineUsersPayload{Users: h.OnlineUsers()})
}

// handleEvent dispatches one inbound envelope from a client. Runs on the
// client's read goroutine; hub state is guarded by the mutex.
func (h *Hub) handleEvent(client *Client, env Envelope) {
	ctx := context.Background()

	switch env.Event {
	case EventIdentify:
		// Identity is established at upgrade time from the JWT; the
		// explicit event is accepted for protocol compatibility.

	case EventGetOnlineUsers:
		h.SendToUser(client.UserID, EventOnlineUsers, OnlineUsersPayload{Users: h.OnlineUsers()})

	case EventToggleVisibility:
		var p ToggleVisibilityPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.warnMalformed(client, env.Event, err)
			return
		}
		if err := h.presence.SetHidden(ctx, client.UserID, p.Hidden); err != nil {
			h.log.Errorw("failed to persist visibility", "user_id", client.UserID, "error", err)
			h.sendError(client, "could not update visibility")
			return
		}
		h.Broadcast(EventVisibilityState, VisibilityStatePayload{UserID: client.UserID, Hidden: p.Hidden})
		h.broadcastOnlineUsers()

	case EventMessageSend:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.warnMalformed(client, env.Event, err)
			return
		}
		if err := h.chat.SendMessage(ctx, client.UserID, p.ReceiverID, p.Content, p.Attachment); err != nil {
			h.sendError(client, err.Error())
		}

	case EventMessageRead:
		var p ReadMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.warnMalformed(client, env.Event, err)
			return
		}
		if err := h.chat.MarkRead(ctx, client.UserID, p.MessageID); err != nil {
			h.sendError(client, err.Error())
		}

	case EventMessageDelete:
		var p DeleteMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.warnMalformed(client, env.Event, err)
			return
		}
		if err := h.chat.DeleteMessage(ctx, client.UserID, p.MessageID); err != nil {
			h.sendError(client, err.Error())
		}

	default:
		h.log.Warnw("unknown websocket event dropped", "event", env.Event, "user_id", client.UserID)
	}
}

// warnMalformed logs and drops a payload that cannot be decoded. Dropping
// preserves delivery invariants at the cost of the payload; treat repeated
// occurrences as a data-quality alarm.
func (h *Hub) warnMalformed(client *Client, event string, err error) {
	h.log.Warnw("malformed websocket payload dropped", "event", event, "user_id", client.UserID, "error", err)
}

func (h *Hub) sendError(client *Client, msg string) {
	h.SendToUser(client.UserID, EventError, ErrorPayload{Message: msg})
}
