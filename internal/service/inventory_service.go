package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateItemRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
	UnitCost string `json:"unit_cost" binding:"required"`
}

type UpdateItemRequest struct {
	Name     string `json:"name"`
	UnitCost string `json:"unit_cost"`
}

type RecordMovementRequest struct {
	Direction string `json:"direction" binding:"required,oneof=IN OUT"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reason    string `json:"reason"`
}

type ItemResponse struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitCost  string `json:"unit_cost"`
	CreatedAt string `json:"created_at"`
}

type MovementResponse struct {
	ID            string `json:"id"`
	ItemID        string `json:"item_id"`
	Direction     string `json:"direction"`
	Quantity      int    `json:"quantity"`
	QuantityAfter int    `json:"quantity_after"`
	Reason        string `json:"reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

type InventoryService interface {
	CreateItem(ctx context.Context, actorID string, req CreateItemRequest) (*ItemResponse, error)
	GetItem(ctx context.Context, id string) (*ItemResponse, error)
	ListItems(ctx context.Context, page, limit int) ([]ItemResponse, int64, error)
	UpdateItem(ctx context.Context, actorID, id string, req UpdateItemRequest) (*ItemResponse, error)
	DeleteItem(ctx context.Context, actorID, id string) error
	RecordMovement(ctx context.Context, actorID, itemID string, req RecordMovementRequest) (*MovementResponse, error)
	ListMovements(ctx context.Context, itemID string, page, limit int) ([]MovementResponse, int64, error)
}

type inventoryService struct {
	repo      repository.InventoryRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewInventoryService(repo repository.InventoryRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) InventoryService {
	return &inventoryService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func toItemResponse(item *model.InventoryItem) *ItemResponse {
	return &ItemResponse{
		ID:        item.ID.String(),
		SKU:       item.SKU,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitCost:  item.UnitCost.StringFixed(2),
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
	}
}

func toMovementResponse(m *model.InventoryMovement) *MovementResponse {
	return &MovementResponse{
		ID:            m.ID.String(),
		ItemID:        m.ItemID.String(),
		Direction:     m.Direction,
		Quantity:      m.Quantity,
		QuantityAfter: m.QuantityAfter,
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
}

func (s *inventoryService) CreateItem(ctx context.Context, actorID string, req CreateItemRequest) (*ItemResponse, error) {
	cost, err := decimal.NewFromString(req.UnitCost)
	if err != nil || cost.IsNegative() {
		return nil, errors.New("invalid unit cost")
	}
	if _, err := s.repo.GetItemBySKU(ctx, req.SKU); err == nil {
		return nil, errors.New("sku already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item := &model.InventoryItem{
		SKU:      req.SKU,
		Name:     req.Name,
		Quantity: req.Quantity,
		UnitCost: cost,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logAudit(ctx, actorID, model.ActionCreateItem, item.ID.String(), item.SKU, req)
	return toItemResponse(item), nil
}

func (s *inventoryService) GetItem(ctx context.Context, id string) (*ItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid item id")
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, errors.New("item not found")
	}
	return toItemResponse(item), nil
}

func (s *inventoryService) ListItems(ctx context.Context, page, limit int) ([]ItemResponse, int64, error) {
	items, total, err := s.repo.ListItems(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *toItemResponse(&items[i]))
	}
	return responses, total, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, actorID, id string, req UpdateItemRequest) (*ItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid item id")
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, errors.New("item not found")
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.UnitCost != "" {
		cost, err := decimal.NewFromString(req.UnitCost)
		if err != nil || cost.IsNegative() {
			return nil, errors.New("invalid unit cost")
		}
		item.UnitCost = cost
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logAudit(ctx, actorID, model.ActionUpdateItem, id, item.SKU, req)
	return toItemResponse(item), nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, actorID, id string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid item id")
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return errors.New("item not found")
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.logAudit(ctx, actorID, model.ActionDeleteItem, id, item.SKU, nil)
	return nil
}

// RecordMovement adjusts stock inside a transaction with the item row locked.
// OUT movements that would drive stock negative are rejected.
func (s *inventoryService) RecordMovement(ctx context.Context, actorID, itemID string, req RecordMovementRequest) (*MovementResponse, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, errors.New("invalid item id")
	}

	var movement *model.InventoryMovement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.repo.GetItemForUpdate(txCtx, id)
		if err != nil {
			return errors.New("item not found")
		}

		after := item.Quantity
		switch req.Direction {
		case model.MovementIn:
			after += req.Quantity
		case model.MovementOut:
			after -= req.Quantity
			if after < 0 {
				return errors.New("insufficient stock")
			}
		default:
			return errors.New("invalid direction")
		}

		item.Quantity = after
		if err := s.repo.UpdateItem(txCtx, item); err != nil {
			return err
		}

		movement = &model.InventoryMovement{
			ItemID:        item.ID,
			Direction:     req.Direction,
			Quantity:      req.Quantity,
			QuantityAfter: after,
			Reason:        req.Reason,
		}
		if actor, err := uuid.Parse(actorID); err == nil {
			movement.CreatedByID = &actor
		}
		return s.repo.CreateMovement(txCtx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, actorID, model.ActionRecordMovement, movement.ID.String(), itemID, req)
	return toMovementResponse(movement), nil
}

func (s *inventoryService) ListMovements(ctx context.Context, itemID string, page, limit int) ([]MovementResponse, int64, error) {
	var filter *uuid.UUID
	if itemID != "" {
		id, err := uuid.Parse(itemID)
		if err != nil {
			return nil, 0, errors.New("invalid item id")
		}
		filter = &id
	}

	movements, total, err := s.repo.ListMovements(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, *toMovementResponse(&movements[i]))
	}
	return responses, total, nil
}

func (s *inventoryService) logAudit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if actor, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &actor
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			entry.Details = string(raw)
		}
	}
	_ = s.auditRepo.Log(ctx, entry)
}
