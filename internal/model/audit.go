package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateUser = "CREATE_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionDeleteUser = "DEACTIVATE_USER"

	ActionCreateRole      = "CREATE_ROLE"
	ActionUpdateRole      = "UPDATE_ROLE"
	ActionDeleteRole      = "DELETE_ROLE"
	ActionSetRoleGrants   = "SET_ROLE_GRANTS"
	ActionAssignUserRoles = "ASSIGN_USER_ROLES"

	ActionCreateGuide = "CREATE_GUIDE"
	ActionUpdateGuide = "UPDATE_GUIDE"
	ActionDeleteGuide = "DELETE_GUIDE"

	ActionCreateItem       = "CREATE_INVENTORY_ITEM"
	ActionUpdateItem       = "UPDATE_INVENTORY_ITEM"
	ActionDeleteItem       = "DELETE_INVENTORY_ITEM"
	ActionRecordMovement   = "RECORD_INVENTORY_MOVEMENT"
	ActionApproveLeave     = "APPROVE_LEAVE"
	ActionRejectLeave      = "REJECT_LEAVE"
	ActionDeleteScheduled  = "DELETE_SCHEDULED_NOTIFICATION"
	ActionDeleteChatResult = "DELETE_CHAT_MESSAGE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
