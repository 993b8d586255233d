package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memInventoryRepo struct {
	items     map[uuid.UUID]*model.InventoryItem
	movements []*model.InventoryMovement
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{items: map[uuid.UUID]*model.InventoryItem{}}
}

func (r *memInventoryRepo) CreateItem(_ context.Context, item *model.InventoryItem) error {
	item.ID = uuid.New()
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memInventoryRepo) GetItem(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *memInventoryRepo) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	return r.GetItem(ctx, id)
}

func (r *memInventoryRepo) GetItemBySKU(_ context.Context, sku string) (*model.InventoryItem, error) {
	for _, item := range r.items {
		if item.SKU == sku {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memInventoryRepo) ListItems(_ context.Context, _, _ int) ([]model.InventoryItem, int64, error) {
	var out []model.InventoryItem
	for _, item := range r.items {
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *memInventoryRepo) UpdateItem(_ context.Context, item *model.InventoryItem) error {
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memInventoryRepo) DeleteItem(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *memInventoryRepo) CreateMovement(_ context.Context, m *model.InventoryMovement) error {
	m.ID = uuid.New()
	copied := *m
	r.movements = append(r.movements, &copied)
	return nil
}

func (r *memInventoryRepo) ListMovements(_ context.Context, itemID *uuid.UUID, _, _ int) ([]model.InventoryMovement, int64, error) {
	var out []model.InventoryMovement
	for _, m := range r.movements {
		if itemID == nil || m.ItemID == *itemID {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func newInventoryFixture(t *testing.T) (InventoryService, *memInventoryRepo, string, string) {
	t.Helper()
	repo := newMemInventoryRepo()
	svc := NewInventoryService(repo, nil, noopTxManager{})
	actor := uuid.NewString()

	item, err := svc.CreateItem(context.Background(), actor, CreateItemRequest{
		SKU:      "SKU-001",
		Name:     "Widget",
		Quantity: 10,
		UnitCost: "4.50",
	})
	require.NoError(t, err)
	return svc, repo, actor, item.ID
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	svc, _, actor, _ := newInventoryFixture(t)

	_, err := svc.CreateItem(context.Background(), actor, CreateItemRequest{
		SKU:      "SKU-001",
		Name:     "Other widget",
		UnitCost: "1.00",
	})
	assert.EqualError(t, err, "sku already exists")
}

func TestCreateItemRejectsBadCost(t *testing.T) {
	svc, _, actor, _ := newInventoryFixture(t)

	_, err := svc.CreateItem(context.Background(), actor, CreateItemRequest{
		SKU: "SKU-002", Name: "x", UnitCost: "not-a-number",
	})
	assert.EqualError(t, err, "invalid unit cost")

	_, err = svc.CreateItem(context.Background(), actor, CreateItemRequest{
		SKU: "SKU-003", Name: "x", UnitCost: "-1.00",
	})
	assert.EqualError(t, err, "invalid unit cost")
}

func TestRecordMovementAdjustsStock(t *testing.T) {
	svc, _, actor, itemID := newInventoryFixture(t)

	in, err := svc.RecordMovement(context.Background(), actor, itemID, RecordMovementRequest{
		Direction: model.MovementIn,
		Quantity:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, in.QuantityAfter)

	out, err := svc.RecordMovement(context.Background(), actor, itemID, RecordMovementRequest{
		Direction: model.MovementOut,
		Quantity:  12,
		Reason:    "production run",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.QuantityAfter)

	item, err := svc.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
}

func TestRecordMovementRejectsNegativeStock(t *testing.T) {
	svc, repo, actor, itemID := newInventoryFixture(t)

	_, err := svc.RecordMovement(context.Background(), actor, itemID, RecordMovementRequest{
		Direction: model.MovementOut,
		Quantity:  11,
	})
	assert.EqualError(t, err, "insufficient stock")

	// stock untouched, no movement row written
	item, err := svc.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
	assert.Empty(t, repo.movements)
}

func TestRecordMovementUnknownItem(t *testing.T) {
	svc, _, actor, _ := newInventoryFixture(t)

	_, err := svc.RecordMovement(context.Background(), actor, uuid.NewString(), RecordMovementRequest{
		Direction: model.MovementIn,
		Quantity:  1,
	})
	assert.EqualError(t, err, "item not found")
}
