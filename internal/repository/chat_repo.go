package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRow summarizes one peer conversation for the sidebar list
type ConversationRow struct {
	PeerID        uuid.UUID `json:"peer_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
}

type ChatRepository interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ChatMessage, error)
	Update(ctx context.Context, msg *model.ChatMessage) error
	ListBetween(ctx context.Context, a, b uuid.UUID, page, limit int) ([]model.ChatMessage, int64, error)
	Conversations(ctx context.Context, userID uuid.UUID) ([]ConversationRow, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	return GetDB(ctx, r.db).Create(msg).Error
}

func (r *chatRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	if err := GetDB(ctx, r.db).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepository) Update(ctx context.Context, msg *model.ChatMessage) error {
	return GetDB(ctx, r.db).Save(msg).Error
}

// ListBetween returns messages of one conversation ordered by creation time
// ascending, oldest first, paged from the end so the newest page is page 1.
func (r *chatRepository) ListBetween(ctx context.Context, a, b uuid.UUID, page, limit int) ([]model.ChatMessage, int64, error) {
	db := GetDB(ctx, r.db)
	pair := db.Model(&model.ChatMessage{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a)

	var total int64
	if err := pair.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []model.ChatMessage
	offset := (page - 1) * limit
	err := db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}

	// Reverse into display order (createdAt ascending)
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, total, nil
}

// Conversations lists each peer the user has exchanged messages with, the
// time of the latest exchange, and how many of the peer's messages are
// still unread. Sorting (unread first, then most recent) happens in the
// service so the rule stays testable.
func (r *chatRepository) Conversations(ctx context.Context, userID uuid.UUID) ([]ConversationRow, error) {
	var rows []ConversationRow
	err := GetDB(ctx, r.db).Raw(`
		SELECT peer_id,
		       MAX(created_at) AS last_message_at,
		       COUNT(*) FILTER (WHERE receiver_id = @uid AND is_read = false AND is_deleted = false) AS unread_count
		FROM (
			SELECT CASE WHEN sender_id = @uid THEN receiver_id ELSE sender_id END AS peer_id,
			       sender_id, receiver_id, is_read, is_deleted, created_at
			FROM chat_messages
			WHERE sender_id = @uid OR receiver_id = @uid
		) conv
		GROUP BY peer_id
	`, map[string]interface{}{"uid": userID}).Scan(&rows).Error
	return rows, err
}
