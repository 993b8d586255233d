package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeaveRepository interface {
	Create(ctx context.Context, req *model.LeaveRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.LeaveRequest, error)
	Update(ctx context.Context, req *model.LeaveRequest) error
	List(ctx context.Context, userID *uuid.UUID, status string, page, limit int) ([]model.LeaveRequest, int64, error)
}

type leaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) LeaveRepository {
	return &leaveRepository{db: db}
}

func (r *leaveRepository) Create(ctx context.Context, req *model.LeaveRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *leaveRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LeaveRequest, error) {
	var req model.LeaveRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *leaveRepository) Update(ctx context.Context, req *model.LeaveRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *leaveRepository) List(ctx context.Context, userID *uuid.UUID, status string, page, limit int) ([]model.LeaveRequest, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.LeaveRequest{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []model.LeaveRequest
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
