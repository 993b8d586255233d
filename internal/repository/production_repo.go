package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductionRepository interface {
	CreateGuide(ctx context.Context, g *model.ProductionGuide) error
	GetGuide(ctx context.Context, id uuid.UUID) (*model.ProductionGuide, error)
	ListGuides(ctx context.Context, status string, page, limit int) ([]model.ProductionGuide, int64, error)
	UpdateGuide(ctx context.Context, g *model.ProductionGuide) error
	DeleteGuide(ctx context.Context, id uuid.UUID) error
	CreateStep(ctx context.Context, s *model.ProductionStep) error
	GetStep(ctx context.Context, id uuid.UUID) (*model.ProductionStep, error)
	UpdateStep(ctx context.Context, s *model.ProductionStep) error
	DeleteStep(ctx context.Context, id uuid.UUID) error
	NextStepPosition(ctx context.Context, guideID uuid.UUID) (int, error)
}

type productionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) ProductionRepository {
	return &productionRepository{db: db}
}

func (r *productionRepository) CreateGuide(ctx context.Context, g *model.ProductionGuide) error {
	return GetDB(ctx, r.db).Create(g).Error
}

func (r *productionRepository) GetGuide(ctx context.Context, id uuid.UUID) (*model.ProductionGuide, error) {
	var g model.ProductionGuide
	err := GetDB(ctx, r.db).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("production_steps.position asc")
		}).
		First(&g, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *productionRepository) ListGuides(ctx context.Context, status string, page, limit int) ([]model.ProductionGuide, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.ProductionGuide{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var guides []model.ProductionGuide
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&guides).Error
	if err != nil {
		return nil, 0, err
	}
	return guides, total, nil
}

func (r *productionRepository) UpdateGuide(ctx context.Context, g *model.ProductionGuide) error {
	return GetDB(ctx, r.db).Save(g).Error
}

func (r *productionRepository) DeleteGuide(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ProductionGuide{}).Error
}

func (r *productionRepository) CreateStep(ctx context.Context, s *model.ProductionStep) error {
	return GetDB(ctx, r.db).Create(s).Error
}

func (r *productionRepository) GetStep(ctx context.Context, id uuid.UUID) (*model.ProductionStep, error) {
	var s model.ProductionStep
	if err := GetDB(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *productionRepository) UpdateStep(ctx context.Context, s *model.ProductionStep) error {
	return GetDB(ctx, r.db).Save(s).Error
}

func (r *productionRepository) DeleteStep(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ProductionStep{}).Error
}

// NextStepPosition returns one past the highest position in the guide
func (r *productionRepository) NextStepPosition(ctx context.Context, guideID uuid.UUID) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.ProductionStep{}).
		Where("guide_id = ?", guideID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max + 1, err
}
