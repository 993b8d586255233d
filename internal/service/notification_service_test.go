package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/cache"
	"backend/internal/model"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memNotificationRepo struct {
	rows map[uuid.UUID]*model.Notification
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{rows: map[uuid.UUID]*model.Notification{}}
}

func (r *memNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	copied := *n
	r.rows[n.ID] = &copied
	return nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	n, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *n
	return &copied, nil
}

func (r *memNotificationRepo) ListForUser(_ context.Context, userID uuid.UUID, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range r.rows {
		if n.UserID != userID || n.Archived {
			continue
		}
		if n.ScheduledAt != nil && n.SentAt == nil {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	n, ok := r.rows[id]
	if !ok || n.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	return nil
}

func (r *memNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range r.rows {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *memNotificationRepo) Archive(_ context.Context, userID, id uuid.UUID) error {
	n, ok := r.rows[id]
	if !ok || n.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	n.Archived = true
	return nil
}

func (r *memNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func (r *memNotificationRepo) DuePending(_ context.Context, now time.Time) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range r.rows {
		if n.ScheduledAt != nil && n.SentAt == nil && !n.ScheduledAt.After(now) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	n, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.SentAt = &at
	return nil
}

func newNotificationFixture() (NotificationService, *memNotificationRepo) {
	repo := newMemNotificationRepo()
	hub := ws.NewHub(cache.NewMemoryPresence(), zap.NewNop().Sugar())
	svc := NewNotificationService(repo, nil, hub, zap.NewNop().Sugar())
	return svc, repo
}

func TestCreateImmediateNotificationIsSent(t *testing.T) {
	svc, _ := newNotificationFixture()
	owner := uuid.New()

	n, err := svc.Create(context.Background(), CreateNotificationRequest{
		UserID:  owner.String(),
		Content: "maintenance window tonight",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.SentAt)

	list, total, err := svc.List(context.Background(), owner.String(), false, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
}

func TestCreateScheduledNotificationStaysHidden(t *testing.T) {
	svc, _ := newNotificationFixture()
	owner := uuid.New()

	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	n, err := svc.Create(context.Background(), CreateNotificationRequest{
		UserID:      owner.String(),
		Content:     "shift change reminder",
		ScheduledAt: future,
	})
	require.NoError(t, err)
	assert.Empty(t, n.SentAt)

	// not visible to the owner until dispatched
	_, total, err := svc.List(context.Background(), owner.String(), false, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateRejectsPastSchedule(t *testing.T) {
	svc, _ := newNotificationFixture()

	past := time.Now().Add(-time.Minute).Format(time.RFC3339)
	_, err := svc.Create(context.Background(), CreateNotificationRequest{
		UserID:      uuid.NewString(),
		Content:     "x",
		ScheduledAt: past,
	})
	assert.EqualError(t, err, "scheduled_at is in the past")
}

func TestDeleteScheduledOnlyWhilePending(t *testing.T) {
	svc, _ := newNotificationFixture()
	owner := uuid.New()
	actor := uuid.NewString()

	sent, err := svc.Create(context.Background(), CreateNotificationRequest{
		UserID:  owner.String(),
		Content: "already out",
	})
	require.NoError(t, err)
	err = svc.DeleteScheduled(context.Background(), actor, sent.ID)
	assert.EqualError(t, err, "only scheduled notifications can be deleted")

	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	pending, err := svc.Create(context.Background(), CreateNotificationRequest{
		UserID:      owner.String(),
		Content:     "still pending",
		ScheduledAt: future,
	})
	require.NoError(t, err)
	assert.NoError(t, svc.DeleteScheduled(context.Background(), actor, pending.ID))
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, repo := newNotificationFixture()
	owner := uuid.New()
	stranger := uuid.New()

	n, err := svc.Create(context.Background(), CreateNotificationRequest{
		UserID:  owner.String(),
		Content: "hello",
	})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), stranger.String(), n.ID)
	assert.Error(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), owner.String(), n.ID))
	id, err := uuid.Parse(n.ID)
	require.NoError(t, err)
	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
}
