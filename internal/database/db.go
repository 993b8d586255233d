package database

import (
	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.RolePermission{},
		&model.Notification{},
		&model.ChatMessage{},
		&model.WorkSession{},
		&model.Break{},
		&model.WorkEntry{},
		&model.ProductionGuide{},
		&model.ProductionStep{},
		&model.InventoryItem{},
		&model.InventoryMovement{},
		&model.LeaveRequest{},
		&model.AuditLog{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
