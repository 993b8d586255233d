package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateNotificationRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Content     string `json:"content" binding:"required"`
	Link        string `json:"link"`
	ScheduledAt string `json:"scheduled_at"` // RFC3339; empty = send immediately
}

type NotificationResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Content     string `json:"content"`
	Link        string `json:"link,omitempty"`
	IsRead      bool   `json:"is_read"`
	Archived    bool   `json:"archived"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
	SentAt      string `json:"sent_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type NotificationService interface {
	Create(ctx context.Context, req CreateNotificationRequest) (*NotificationResponse, error)
	Notify(ctx context.Context, userID uuid.UUID, content, link string) error
	List(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Archive(ctx context.Context, userID, id string) error
	DeleteScheduled(ctx context.Context, actorID, id string) error
	RunScheduler(ctx context.Context, interval time.Duration)
}

type notificationService struct {
	repo      repository.NotificationRepository
	auditRepo repository.AuditRepository
	hub       *ws.Hub
	log       *zap.SugaredLogger
}

func NewNotificationService(repo repository.NotificationRepository, auditRepo repository.AuditRepository, hub *ws.Hub, log *zap.SugaredLogger) NotificationService {
	return &notificationService{repo: repo, auditRepo: auditRepo, hub: hub, log: log}
}

func toNotificationResponse(n *model.Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Content:   n.Content,
		Link:      n.Link,
		IsRead:    n.IsRead,
		Archived:  n.Archived,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.ScheduledAt != nil {
		resp.ScheduledAt = n.ScheduledAt.Format(time.RFC3339)
	}
	if n.SentAt != nil {
		resp.SentAt = n.SentAt.Format(time.RFC3339)
	}
	return resp
}

// Create makes a notification on behalf of an administrator. Without a
// schedule it is dispatched immediately; with one, the scheduler loop picks
// it up when due.
func (s *notificationService) Create(ctx context.Context, req CreateNotificationRequest) (*NotificationResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	n := &model.Notification{
		UserID:  userID,
		Content: req.Content,
		Link:    req.Link,
	}

	if req.ScheduledAt != "" {
		at, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return nil, errors.New("scheduled_at must be RFC3339")
		}
		if at.Before(time.Now()) {
			return nil, errors.New("scheduled_at is in the past")
		}
		n.ScheduledAt = &at
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if n.ScheduledAt == nil {
		now := time.Now()
		if err := s.repo.MarkSent(ctx, n.ID, now); err != nil {
			return nil, err
		}
		n.SentAt = &now
		s.hub.PushNotification(n)
	}

	return toNotificationResponse(n), nil
}

// Notify creates and immediately dispatches a system notification. Used by
// other services (leave approval, production assignment) as their push side.
func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, content, link string) error {
	now := time.Now()
	n := &model.Notification{
		UserID:  userID,
		Content: content,
		Link:    link,
		SentAt:  &now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.hub.PushNotification(n)
	return nil
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, errors.New("invalid user id")
	}

	items, total, err := s.repo.ListForUser(ctx, id, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]NotificationResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *toNotificationResponse(&items[i]))
	}
	return responses, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	uid, nid, err := parseOwnerAndID(userID, id)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, uid, nid)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return errors.New("invalid user id")
	}
	return s.repo.MarkAllRead(ctx, uid)
}

func (s *notificationService) Archive(ctx context.Context, userID, id string) error {
	uid, nid, err := parseOwnerAndID(userID, id)
	if err != nil {
		return err
	}
	return s.repo.Archive(ctx, uid, nid)
}

// DeleteScheduled removes a notification only while it is still pending;
// anything already dispatched stays in the owner's history.
func (s *notificationService) DeleteScheduled(ctx context.Context, actorID, id string) error {
	nid, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid notification id")
	}
	n, err := s.repo.GetByID(ctx, nid)
	if err != nil {
		return errors.New("notification not found")
	}
	if !n.Pending() {
		return errors.New("only scheduled notifications can be deleted")
	}
	if err := s.repo.Delete(ctx, nid); err != nil {
		return err
	}

	if s.auditRepo != nil {
		entry := &model.AuditLog{Action: model.ActionDeleteScheduled, EntityID: id}
		if actor, err := uuid.Parse(actorID); err == nil {
			entry.UserID = &actor
		}
		_ = s.auditRepo.Log(ctx, entry)
	}
	return nil
}

// RunScheduler dispatches due scheduled notifications until ctx is done.
// Runs as a single goroutine started from main.
func (s *notificationService) RunScheduler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

func (s *notificationService) dispatchDue(ctx context.Context) {
	due, err := s.repo.DuePending(ctx, time.Now())
	if err != nil {
		s.log.Errorw("failed to query due notifications", "error", err)
		return
	}
	for i := range due {
		n := due[i]
		now := time.Now()
		if err := s.repo.MarkSent(ctx, n.ID, now); err != nil {
			s.log.Errorw("failed to mark notification sent", "id", n.ID, "error", err)
			continue
		}
		n.SentAt = &now
		s.hub.PushNotification(&n)
		s.log.Infow("dispatched scheduled notification", "id", n.ID, "user_id", n.UserID)
	}
}

func parseOwnerAndID(userID, id string) (uuid.UUID, uuid.UUID, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid user id")
	}
	nid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid notification id")
	}
	return uid, nid, nil
}
