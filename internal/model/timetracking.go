package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkSession tracks one span of working time.
// A null EndedAt marks the session as active; at most one active session
// exists per user at a time.
type WorkSession struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	StartedAt time.Time  `gorm:"not null;index" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Breaks    []Break    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;" json:"breaks"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Duration returns elapsed working time net of completed breaks.
// For an active session it measures up to now.
func (s WorkSession) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	d := end.Sub(s.StartedAt)
	for _, b := range s.Breaks {
		d -= b.Duration(end)
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Break nests inside a work session the same way the session nests in a day:
// started, optionally ended, derived duration.
type Break struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"session_id"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func (b Break) Duration(now time.Time) time.Duration {
	end := now
	if b.EndedAt != nil {
		end = *b.EndedAt
	}
	d := end.Sub(b.StartedAt)
	if d < 0 {
		d = 0
	}
	return d
}

// WorkEntry logs minutes spent against a production step
type WorkEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	StepID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"step_id"`
	Step      ProductionStep `gorm:"foreignKey:StepID" json:"-"`
	Minutes   int            `gorm:"type:int;not null" json:"minutes"`
	Note      string         `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
