package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a per-user notice, optionally scheduled for later delivery.
// A null ScheduledAt means it was sent immediately on creation.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"-"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Link        string     `gorm:"type:varchar(512)" json:"link,omitempty"`
	IsRead      bool       `gorm:"default:false;not null;index" json:"is_read"`
	Archived    bool       `gorm:"default:false;not null" json:"archived"`
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// Pending reports whether the notification is scheduled but not yet dispatched.
// Only pending notifications may be deleted by an administrator.
func (n Notification) Pending() bool {
	return n.ScheduledAt != nil && n.SentAt == nil
}
