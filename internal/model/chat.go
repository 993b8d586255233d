package model

import (
	"time"

	"github.com/google/uuid"
)

// DeletedMessagePlaceholder replaces the content of a soft-deleted chat message.
// The row itself is kept for the audit trail.
const DeletedMessagePlaceholder = "This message has been deleted"

// ChatMessage is one direct message between two users
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_pair" json:"sender_id"`
	Sender     User      `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_pair" json:"receiver_id"`
	Receiver   User      `gorm:"foreignKey:ReceiverID" json:"-"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Attachment string    `gorm:"type:varchar(512)" json:"attachment,omitempty"`
	IsRead     bool      `gorm:"default:false;not null;index" json:"is_read"`
	IsDeleted  bool      `gorm:"default:false;not null" json:"is_deleted"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
