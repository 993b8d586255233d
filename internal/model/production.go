package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guide status constants
const (
	GuideStatusDraft     = "DRAFT"
	GuideStatusActive    = "ACTIVE"
	GuideStatusCompleted = "COMPLETED"
	GuideStatusArchived  = "ARCHIVED"
)

// ProductionGuide is a workflow document with ordered steps
type ProductionGuide struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Status      string           `gorm:"type:varchar(20);default:'DRAFT';not null;index" json:"status"`
	CreatedByID *uuid.UUID       `gorm:"type:uuid;index" json:"created_by_id"`
	CreatedBy   *User            `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Steps       []ProductionStep `gorm:"foreignKey:GuideID;constraint:OnDelete:CASCADE;" json:"steps"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductionStep is one ordered step inside a guide
type ProductionStep struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GuideID      uuid.UUID `gorm:"type:uuid;not null;index" json:"guide_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Instructions string    `gorm:"type:text" json:"instructions"`
	Position     int       `gorm:"type:int;not null" json:"position"`
	Done         bool      `gorm:"default:false;not null" json:"done"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
