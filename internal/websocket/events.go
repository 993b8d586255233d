package websocket

import "encoding/json"

// Event names carried on the wire, both directions
const (
	EventIdentify         = "identify"
	EventGetOnlineUsers   = "chat:getOnlineUsers"
	EventOnlineUsers      = "chat:onlineUsers"
	EventToggleVisibility = "chat:toggleVisibility"
	EventVisibilityState  = "chat:visibilityState"
	EventMessageSend      = "message:send"
	EventMessageSent      = "message:sent" // ack to the sender carrying the persisted id
	EventMessageReceive   = "message:receive"
	EventMessageRead      = "message:read"
	EventMessageDelete    = "message:delete"
	EventMessageDeleted   = "message:deleted"
	EventNotification     = "notification"
	EventError            = "error"
)

// Envelope is the framing for every websocket event
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope. Marshal failures fall back to
// an empty payload; event types are plain structs so this does not happen in
// practice.
func NewEnvelope(event string, data interface{}) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = nil
	}
	return Envelope{Event: event, Data: raw}
}

// Inbound payloads

type SendMessagePayload struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	Attachment string `json:"attachment,omitempty"`
}

type ReadMessagePayload struct {
	MessageID string `json:"message_id"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"message_id"`
}

type ToggleVisibilityPayload struct {
	Hidden bool `json:"hidden"`
}

// Outbound payloads

type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

type VisibilityStatePayload struct {
	UserID string `json:"user_id"`
	Hidden bool   `json:"hidden"`
}

type ReadReceiptPayload struct {
	MessageID string `json:"message_id"`
	ReaderID  string `json:"reader_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
