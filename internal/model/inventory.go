package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Movement direction constants
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// InventoryItem represents a stocked material or product
type InventoryItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity  int             `gorm:"type:int;default:0;not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// InventoryMovement records a stock change strictly, with the resulting level
type InventoryMovement struct {
	ID            uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"item_id"`
	Item          InventoryItem `gorm:"foreignKey:ItemID" json:"-"`
	Direction     string        `gorm:"type:varchar(10);not null" json:"direction"` // IN, OUT
	Quantity      int           `gorm:"type:int;not null" json:"quantity"`
	QuantityAfter int           `gorm:"type:int;not null" json:"quantity_after"`
	Reason        string        `gorm:"type:varchar(255)" json:"reason,omitempty"`
	CreatedByID   *uuid.UUID    `gorm:"type:uuid;index" json:"created_by_id"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
}
