package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimeTrackingRepository interface {
	CreateSession(ctx context.Context, s *model.WorkSession) error
	UpdateSession(ctx context.Context, s *model.WorkSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.WorkSession, error)
	ActiveSession(ctx context.Context, userID uuid.UUID) (*model.WorkSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WorkSession, int64, error)
	CreateBreak(ctx context.Context, b *model.Break) error
	UpdateBreak(ctx context.Context, b *model.Break) error
	OpenBreak(ctx context.Context, sessionID uuid.UUID) (*model.Break, error)
	CreateWorkEntry(ctx context.Context, e *model.WorkEntry) error
	ListWorkEntries(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WorkEntry, int64, error)
}

type timeTrackingRepository struct {
	db *gorm.DB
}

func NewTimeTrackingRepository(db *gorm.DB) TimeTrackingRepository {
	return &timeTrackingRepository{db: db}
}

func (r *timeTrackingRepository) CreateSession(ctx context.Context, s *model.WorkSession) error {
	return GetDB(ctx, r.db).Create(s).Error
}

func (r *timeTrackingRepository) UpdateSession(ctx context.Context, s *model.WorkSession) error {
	return GetDB(ctx, r.db).Save(s).Error
}

func (r *timeTrackingRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.WorkSession, error) {
	var s model.WorkSession
	if err := GetDB(ctx, r.db).Preload("Breaks").First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveSession returns the single open session of a user, or ErrRecordNotFound
func (r *timeTrackingRepository) ActiveSession(ctx context.Context, userID uuid.UUID) (*model.WorkSession, error) {
	var s model.WorkSession
	err := GetDB(ctx, r.db).
		Preload("Breaks").
		Where("user_id = ? AND ended_at IS NULL", userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *timeTrackingRepository) ListSessions(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WorkSession, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.WorkSession{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []model.WorkSession
	offset := (page - 1) * limit
	err := db.Preload("Breaks").
		Where("user_id = ?", userID).
		Order("started_at desc").
		Offset(offset).Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *timeTrackingRepository) CreateBreak(ctx context.Context, b *model.Break) error {
	return GetDB(ctx, r.db).Create(b).Error
}

func (r *timeTrackingRepository) UpdateBreak(ctx context.Context, b *model.Break) error {
	return GetDB(ctx, r.db).Save(b).Error
}

// OpenBreak returns the unfinished break of a session, or ErrRecordNotFound
func (r *timeTrackingRepository) OpenBreak(ctx context.Context, sessionID uuid.UUID) (*model.Break, error) {
	var b model.Break
	err := GetDB(ctx, r.db).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *timeTrackingRepository) CreateWorkEntry(ctx context.Context, e *model.WorkEntry) error {
	return GetDB(ctx, r.db).Create(e).Error
}

func (r *timeTrackingRepository) ListWorkEntries(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WorkEntry, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.WorkEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.WorkEntry
	offset := (page - 1) * limit
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
