package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/cache"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memChatRepo struct {
	messages      map[uuid.UUID]*model.ChatMessage
	conversations []repository.ConversationRow
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{messages: map[uuid.UUID]*model.ChatMessage{}}
}

func (r *memChatRepo) Create(_ context.Context, msg *model.ChatMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *memChatRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ChatMessage, error) {
	msg, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *msg
	return &copied, nil
}

func (r *memChatRepo) Update(_ context.Context, msg *model.ChatMessage) error {
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *memChatRepo) ListBetween(_ context.Context, a, b uuid.UUID, _, _ int) ([]model.ChatMessage, int64, error) {
	var out []model.ChatMessage
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memChatRepo) Conversations(_ context.Context, _ uuid.UUID) ([]repository.ConversationRow, error) {
	return r.conversations, nil
}

type stubUserRepo struct {
	repository.UserRepository
	users map[string]*model.User
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func newChatFixture() (ChatService, *memChatRepo, string, string) {
	sender := uuid.New()
	receiver := uuid.New()
	users := &stubUserRepo{users: map[string]*model.User{
		sender.String():   {ID: sender, Username: "alice", IsActive: true},
		receiver.String(): {ID: receiver, Username: "bob", IsActive: true},
	}}
	repo := newMemChatRepo()
	hub := ws.NewHub(cache.NewMemoryPresence(), zap.NewNop().Sugar())
	svc := NewChatService(repo, users, hub)
	return svc, repo, sender.String(), receiver.String()
}

func TestSendRejectsSelfMessage(t *testing.T) {
	svc, _, sender, _ := newChatFixture()

	_, err := svc.Send(context.Background(), sender, SendChatMessageRequest{
		ReceiverID: sender,
		Content:    "hello me",
	})
	assert.EqualError(t, err, "cannot message yourself")
}

func TestSendRejectsEmptyContent(t *testing.T) {
	svc, _, sender, receiver := newChatFixture()

	_, err := svc.Send(context.Background(), sender, SendChatMessageRequest{
		ReceiverID: receiver,
		Content:    "   ",
	})
	assert.EqualError(t, err, "message content is empty")
}

func TestSendRejectsDeactivatedReceiver(t *testing.T) {
	sender := uuid.New()
	receiver := uuid.New()
	users := &stubUserRepo{users: map[string]*model.User{
		sender.String():   {ID: sender, IsActive: true},
		receiver.String(): {ID: receiver, IsActive: false},
	}}
	hub := ws.NewHub(cache.NewMemoryPresence(), zap.NewNop().Sugar())
	svc := NewChatService(newMemChatRepo(), users, hub)

	_, err := svc.Send(context.Background(), sender.String(), SendChatMessageRequest{
		ReceiverID: receiver.String(),
		Content:    "hi",
	})
	assert.EqualError(t, err, "receiver is deactivated")
}

func TestMarkReadOnlyByReceiver(t *testing.T) {
	svc, _, sender, receiver := newChatFixture()

	msg, err := svc.Send(context.Background(), sender, SendChatMessageRequest{
		ReceiverID: receiver,
		Content:    "hi",
	})
	require.NoError(t, err)

	_, err = svc.Read(context.Background(), sender, msg.ID)
	assert.EqualError(t, err, "message not addressed to caller")

	read, err := svc.Read(context.Background(), receiver, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	// repeated reads are idempotent
	again, err := svc.Read(context.Background(), receiver, msg.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead)
}

func TestDeleteReplacesContentWithPlaceholder(t *testing.T) {
	svc, repo, sender, receiver := newChatFixture()

	msg, err := svc.Send(context.Background(), sender, SendChatMessageRequest{
		ReceiverID: receiver,
		Content:    "secret",
		Attachment: "https://files.local/x.pdf",
	})
	require.NoError(t, err)

	// only the sender may delete
	_, err = svc.Delete(context.Background(), receiver, msg.ID)
	assert.EqualError(t, err, "only the sender can delete a message")

	deleted, err := svc.Delete(context.Background(), sender, msg.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, model.DeletedMessagePlaceholder, deleted.Content)
	assert.Empty(t, deleted.Attachment)

	// the row survives
	id, err := uuid.Parse(msg.ID)
	require.NoError(t, err)
	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.DeletedMessagePlaceholder, stored.Content)
}

func TestConversationsUnreadFirstThenMostRecent(t *testing.T) {
	svc, repo, sender, _ := newChatFixture()

	now := time.Now()
	readOld := repository.ConversationRow{PeerID: uuid.New(), LastMessageAt: now.Add(-2 * time.Hour)}
	readNew := repository.ConversationRow{PeerID: uuid.New(), LastMessageAt: now}
	unreadOld := repository.ConversationRow{PeerID: uuid.New(), LastMessageAt: now.Add(-3 * time.Hour), UnreadCount: 2}
	unreadNew := repository.ConversationRow{PeerID: uuid.New(), LastMessageAt: now.Add(-time.Hour), UnreadCount: 1}
	repo.conversations = []repository.ConversationRow{readNew, unreadOld, readOld, unreadNew}

	list, err := svc.Conversations(context.Background(), sender)
	require.NoError(t, err)
	require.Len(t, list, 4)

	want := []string{
		unreadNew.PeerID.String(),
		unreadOld.PeerID.String(),
		readNew.PeerID.String(),
		readOld.PeerID.String(),
	}
	got := make([]string, 0, len(list))
	for _, c := range list {
		got = append(got, c.PeerID)
	}
	assert.Equal(t, want, got)
}
