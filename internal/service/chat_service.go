package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type SendChatMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
	Attachment string `json:"attachment"`
}

type ChatMessageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	Attachment string `json:"attachment,omitempty"`
	IsRead     bool   `json:"is_read"`
	IsDeleted  bool   `json:"is_deleted"`
	CreatedAt  string `json:"created_at"`
}

type ConversationResponse struct {
	PeerID        string `json:"peer_id"`
	LastMessageAt string `json:"last_message_at"`
	UnreadCount   int64  `json:"unread_count"`
}

// --- Interface ---

// ChatService persists direct messages and emits the matching socket events.
// It backs both the REST endpoints and the websocket hub, so a message sent
// over either path produces the same id and the same deliveries.
type ChatService interface {
	Send(ctx context.Context, senderID string, req SendChatMessageRequest) (*ChatMessageResponse, error)
	Read(ctx context.Context, readerID, messageID string) (*ChatMessageResponse, error)
	Delete(ctx context.Context, userID, messageID string) (*ChatMessageResponse, error)
	Conversations(ctx context.Context, userID string) ([]ConversationResponse, error)
	Messages(ctx context.Context, userID, peerID string, page, limit int) ([]ChatMessageResponse, int64, error)

	// websocket.ChatHandler
	SendMessage(ctx context.Context, senderID, receiverID, content, attachment string) error
	MarkRead(ctx context.Context, readerID, messageID string) error
	DeleteMessage(ctx context.Context, userID, messageID string) error
}

type chatService struct {
	repo     repository.ChatRepository
	userRepo repository.UserRepository
	hub      *ws.Hub
}

func NewChatService(repo repository.ChatRepository, userRepo repository.UserRepository, hub *ws.Hub) ChatService {
	return &chatService{repo: repo, userRepo: userRepo, hub: hub}
}

func toChatMessageResponse(m *model.ChatMessage) *ChatMessageResponse {
	return &ChatMessageResponse{
		ID:         m.ID.String(),
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Content:    m.Content,
		Attachment: m.Attachment,
		IsRead:     m.IsRead,
		IsDeleted:  m.IsDeleted,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (s *chatService) Send(ctx context.Context, senderID string, req SendChatMessageRequest) (*ChatMessageResponse, error) {
	msg, err := s.send(ctx, senderID, req.ReceiverID, req.Content, req.Attachment)
	if err != nil {
		return nil, err
	}
	return toChatMessageResponse(msg), nil
}

func (s *chatService) send(ctx context.Context, senderID, receiverID, content, attachment string) (*model.ChatMessage, error) {
	sender, err := uuid.Parse(senderID)
	if err != nil {
		return nil, errors.New("invalid sender id")
	}
	receiver, err := uuid.Parse(receiverID)
	if err != nil {
		return nil, errors.New("invalid receiver id")
	}
	if sender == receiver {
		return nil, errors.New("cannot message yourself")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("message content is empty")
	}

	peer, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, errors.New("receiver not found")
	}
	if !peer.IsActive {
		return nil, errors.New("receiver is deactivated")
	}

	msg := &model.ChatMessage{
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Attachment: attachment,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	// Ack to the sender first so optimistic appends resolve against the
	// persisted id, then deliver to the peer.
	s.hub.SendToUser(senderID, ws.EventMessageSent, toChatMessageResponse(msg))
	s.hub.SendToUser(receiverID, ws.EventMessageReceive, toChatMessageResponse(msg))
	return msg, nil
}

func (s *chatService) Read(ctx context.Context, readerID, messageID string) (*ChatMessageResponse, error) {
	msg, err := s.markRead(ctx, readerID, messageID)
	if err != nil {
		return nil, err
	}
	return toChatMessageResponse(msg), nil
}

func (s *chatService) markRead(ctx context.Context, readerID, messageID string) (*model.ChatMessage, error) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return nil, errors.New("invalid message id")
	}
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("message not found")
	}
	// Only the receiver acknowledges a message
	if msg.ReceiverID.String() != readerID {
		return nil, errors.New("message not addressed to caller")
	}
	if msg.IsRead {
		return msg, nil
	}

	msg.IsRead = true
	if err := s.repo.Update(ctx, msg); err != nil {
		return nil, err
	}

	// Propagate the receipt to the original sender
	s.hub.SendToUser(msg.SenderID.String(), ws.EventMessageRead, ws.ReadReceiptPayload{
		MessageID: msg.ID.String(),
		ReaderID:  readerID,
	})
	return msg, nil
}

func (s *chatService) Delete(ctx context.Context, userID, messageID string) (*ChatMessageResponse, error) {
	msg, err := s.deleteMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	return toChatMessageResponse(msg), nil
}

// deleteMessage soft-deletes: the row survives with a placeholder so the
// conversation keeps its shape and the audit trail stays intact.
func (s *chatService) deleteMessage(ctx context.Context, userID, messageID string) (*model.ChatMessage, error) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return nil, errors.New("invalid message id")
	}
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("message not found")
	}
	if msg.SenderID.String() != userID {
		return nil, errors.New("only the sender can delete a message")
	}
	if msg.IsDeleted {
		return msg, nil
	}

	msg.IsDeleted = true
	msg.Content = model.DeletedMessagePlaceholder
	msg.Attachment = ""
	if err := s.repo.Update(ctx, msg); err != nil {
		return nil, err
	}

	// Both parties see the placeholder
	s.hub.SendToUser(msg.SenderID.String(), ws.EventMessageDeleted, toChatMessageResponse(msg))
	s.hub.SendToUser(msg.ReceiverID.String(), ws.EventMessageDeleted, toChatMessageResponse(msg))
	return msg, nil
}

// Conversations lists peers sorted most-recent-first with unread-first
// tie-break: any conversation with unread messages ranks above all fully
// read ones.
func (s *chatService) Conversations(ctx context.Context, userID string) ([]ConversationResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	rows, err := s.repo.Conversations(ctx, id)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		iUnread := rows[i].UnreadCount > 0
		jUnread := rows[j].UnreadCount > 0
		if iUnread != jUnread {
			return iUnread
		}
		return rows[i].LastMessageAt.After(rows[j].LastMessageAt)
	})

	responses := make([]ConversationResponse, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, ConversationResponse{
			PeerID:        r.PeerID.String(),
			LastMessageAt: r.LastMessageAt.Format(time.RFC3339Nano),
			UnreadCount:   r.UnreadCount,
		})
	}
	return responses, nil
}

func (s *chatService) Messages(ctx context.Context, userID, peerID string, page, limit int) ([]ChatMessageResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, errors.New("invalid user id")
	}
	pid, err := uuid.Parse(peerID)
	if err != nil {
		return nil, 0, errors.New("invalid peer id")
	}

	msgs, total, err := s.repo.ListBetween(ctx, uid, pid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		responses = append(responses, *toChatMessageResponse(&msgs[i]))
	}
	return responses, total, nil
}

// --- websocket.ChatHandler ---

func (s *chatService) SendMessage(ctx context.Context, senderID, receiverID, content, attachment string) error {
	_, err := s.send(ctx, senderID, receiverID, content, attachment)
	return err
}

func (s *chatService) MarkRead(ctx context.Context, readerID, messageID string) error {
	_, err := s.markRead(ctx, readerID, messageID)
	return err
}

func (s *chatService) DeleteMessage(ctx context.Context, userID, messageID string) error {
	_, err := s.deleteMessage(ctx, userID, messageID)
	return err
}
