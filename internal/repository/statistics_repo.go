package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type GuideStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type StatisticsRepository interface {
	CountActiveUsers(ctx context.Context) (int64, error)
	CountOpenSessions(ctx context.Context) (int64, error)
	CountPendingLeave(ctx context.Context) (int64, error)
	CountItems(ctx context.Context) (int64, error)
	TotalStockValue(ctx context.Context) (string, error)
	GuidesByStatus(ctx context.Context) ([]GuideStatusCount, error)
	CountMessagesSince(ctx context.Context, since time.Time) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountActiveUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *statisticsRepository) CountOpenSessions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WorkSession{}).Where("ended_at IS NULL").Count(&count).Error
	return count, err
}

func (r *statisticsRepository) CountPendingLeave(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LeaveRequest{}).Where("status = ?", model.LeaveStatusPending).Count(&count).Error
	return count, err
}

func (r *statisticsRepository) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.InventoryItem{}).Count(&count).Error
	return count, err
}

func (r *statisticsRepository) TotalStockValue(ctx context.Context) (string, error) {
	var result struct {
		Value string
	}
	err := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Select("COALESCE(CAST(SUM(quantity * unit_cost) AS TEXT), '0') as value").
		Scan(&result).Error
	return result.Value, err
}

func (r *statisticsRepository) GuidesByStatus(ctx context.Context) ([]GuideStatusCount, error) {
	var counts []GuideStatusCount
	err := r.db.WithContext(ctx).Model(&model.ProductionGuide{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *statisticsRepository) CountMessagesSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatMessage{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *statisticsRepository) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ? AND archived = ? AND sent_at IS NOT NULL", userID, false, false).
		Count(&count).Error
	return count, err
}
