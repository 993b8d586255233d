package model

import (
	"time"

	"github.com/google/uuid"
)

// Access levels for a permission grant
const (
	AccessLevelBasic  = 1
	AccessLevelManage = 2
	AccessLevelMax    = 3
)

// Role represents a named bundle of leveled permission grants
type Role struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	IsSystem    bool             `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Grants      []RolePermission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE;" json:"grants"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Permission is one (module, action) pair from the global catalog
type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Module      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_permissions_module_action;index" json:"module"`
	Action      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_permissions_module_action" json:"action"`
	Description string    `gorm:"type:varchar(255);not null" json:"description"`
}

// Key returns the "module.action" lookup form used by permission maps
func (p Permission) Key() string {
	return p.Module + "." + p.Action
}

// RolePermission grants a role one permission at a given level.
// At most one row exists per (role, permission) pair.
type RolePermission struct {
	RoleID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"role_id"`
	PermissionID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"permission_id"`
	Permission   Permission `gorm:"foreignKey:PermissionID" json:"permission"`
	Value        int        `gorm:"type:int;not null;default:1" json:"value"` // 1 basic, 2 manage, 3 max
}
