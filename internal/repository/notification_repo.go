package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Archive(ctx context.Context, userID, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DuePending(ctx context.Context, now time.Time) ([]model.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	if err := GetDB(ctx, r.db).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForUser excludes archived and not-yet-dispatched scheduled rows; a
// scheduled notification becomes visible once it is sent.
func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.Notification{}).
		Where("user_id = ? AND archived = false", userID).
		Where("scheduled_at IS NULL OR sent_at IS NOT NULL")
	if unreadOnly {
		query = query.Where("is_read = false")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Notification
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return r.ownedUpdate(ctx, userID, id, map[string]interface{}{"is_read": true})
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
}

func (r *notificationRepository) Archive(ctx context.Context, userID, id uuid.UUID) error {
	return r.ownedUpdate(ctx, userID, id, map[string]interface{}{"archived": true})
}

func (r *notificationRepository) ownedUpdate(ctx context.Context, userID, id uuid.UUID, values map[string]interface{}) error {
	result := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Notification{}).Error
}

// DuePending returns scheduled notifications whose time has come
func (r *notificationRepository) DuePending(ctx context.Context, now time.Time) ([]model.Notification, error) {
	var items []model.Notification
	err := GetDB(ctx, r.db).
		Where("scheduled_at IS NOT NULL AND sent_at IS NULL AND scheduled_at <= ?", now).
		Order("scheduled_at asc").
		Find(&items).Error
	return items, err
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("sent_at", at).Error
}
