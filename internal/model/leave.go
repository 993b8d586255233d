package model

import (
	"time"

	"github.com/google/uuid"
)

// Leave request status constants
const (
	LeaveStatusPending  = "PENDING"
	LeaveStatusApproved = "APPROVED"
	LeaveStatusRejected = "REJECTED"
)

// Leave type constants
const (
	LeaveTypeVacation = "VACATION"
	LeaveTypeSick     = "SICK"
	LeaveTypeUnpaid   = "UNPAID"
)

// LeaveRequest is an absence request awaiting review
type LeaveRequest struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User       `gorm:"foreignKey:UserID" json:"-"`
	Type         string     `gorm:"type:varchar(20);not null" json:"type"`
	StartDate    time.Time  `gorm:"not null" json:"start_date"`
	EndDate      time.Time  `gorm:"not null" json:"end_date"`
	Reason       string     `gorm:"type:text" json:"reason,omitempty"`
	Status       string     `gorm:"type:varchar(20);default:'PENDING';not null;index" json:"status"`
	ReviewerID   *uuid.UUID `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ReviewerNote string     `gorm:"type:text" json:"reviewer_note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
