package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func forUpdateClause() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}

type InventoryRepository interface {
	CreateItem(ctx context.Context, item *model.InventoryItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	GetItemForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	GetItemBySKU(ctx context.Context, sku string) (*model.InventoryItem, error)
	ListItems(ctx context.Context, page, limit int) ([]model.InventoryItem, int64, error)
	UpdateItem(ctx context.Context, item *model.InventoryItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	CreateMovement(ctx context.Context, m *model.InventoryMovement) error
	ListMovements(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.InventoryMovement, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) CreateItem(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *inventoryRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemForUpdate locks the row; call inside RunInTx when adjusting stock
func (r *inventoryRepository) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := GetDB(ctx, r.db).
		Clauses(forUpdateClause()).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) GetItemBySKU(ctx context.Context, sku string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).First(&item, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) ListItems(ctx context.Context, page, limit int) ([]model.InventoryItem, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.InventoryItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.InventoryItem
	offset := (page - 1) * limit
	err := db.Order("sku asc").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *inventoryRepository) UpdateItem(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *inventoryRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.InventoryItem{}).Error
}

func (r *inventoryRepository) CreateMovement(ctx context.Context, m *model.InventoryMovement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *inventoryRepository) ListMovements(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.InventoryMovement, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.InventoryMovement{})
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []model.InventoryMovement
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
