package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// noopTxManager runs the function directly, without a database
type noopTxManager struct{}

func (noopTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type memTimeTrackingRepo struct {
	sessions map[uuid.UUID]*model.WorkSession
	breaks   map[uuid.UUID]*model.Break
	entries  []*model.WorkEntry
}

func newMemTimeTrackingRepo() *memTimeTrackingRepo {
	return &memTimeTrackingRepo{
		sessions: map[uuid.UUID]*model.WorkSession{},
		breaks:   map[uuid.UUID]*model.Break{},
	}
}

func (r *memTimeTrackingRepo) CreateSession(_ context.Context, s *model.WorkSession) error {
	s.ID = uuid.New()
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *memTimeTrackingRepo) UpdateSession(_ context.Context, s *model.WorkSession) error {
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *memTimeTrackingRepo) GetSession(_ context.Context, id uuid.UUID) (*model.WorkSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	copied.Breaks = nil
	for _, b := range r.breaks {
		if b.SessionID == id {
			copied.Breaks = append(copied.Breaks, *b)
		}
	}
	return &copied, nil
}

func (r *memTimeTrackingRepo) ActiveSession(ctx context.Context, userID uuid.UUID) (*model.WorkSession, error) {
	for id, s := range r.sessions {
		if s.UserID == userID && s.EndedAt == nil {
			return r.GetSession(ctx, id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memTimeTrackingRepo) ListSessions(_ context.Context, userID uuid.UUID, _, _ int) ([]model.WorkSession, int64, error) {
	var out []model.WorkSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memTimeTrackingRepo) CreateBreak(_ context.Context, b *model.Break) error {
	b.ID = uuid.New()
	copied := *b
	r.breaks[b.ID] = &copied
	return nil
}

func (r *memTimeTrackingRepo) UpdateBreak(_ context.Context, b *model.Break) error {
	copied := *b
	r.breaks[b.ID] = &copied
	return nil
}

func (r *memTimeTrackingRepo) OpenBreak(_ context.Context, sessionID uuid.UUID) (*model.Break, error) {
	for _, b := range r.breaks {
		if b.SessionID == sessionID && b.EndedAt == nil {
			copied := *b
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memTimeTrackingRepo) CreateWorkEntry(_ context.Context, e *model.WorkEntry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	copied := *e
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *memTimeTrackingRepo) ListWorkEntries(_ context.Context, userID uuid.UUID, _, _ int) ([]model.WorkEntry, int64, error) {
	var out []model.WorkEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func newTimeTrackingFixture() (TimeTrackingService, *memTimeTrackingRepo, string) {
	repo := newMemTimeTrackingRepo()
	svc := NewTimeTrackingService(repo, nil, noopTxManager{})
	return svc, repo, uuid.NewString()
}

func TestStartSessionRejectsSecondActive(t *testing.T) {
	svc, _, userID := newTimeTrackingFixture()

	first, err := svc.StartSession(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, first.Active)

	_, err = svc.StartSession(context.Background(), userID)
	assert.EqualError(t, err, "a session is already active")
}

func TestStartSessionAllowedAfterEnding(t *testing.T) {
	svc, _, userID := newTimeTrackingFixture()

	_, err := svc.StartSession(context.Background(), userID)
	require.NoError(t, err)
	_, err = svc.EndSession(context.Background(), userID)
	require.NoError(t, err)

	second, err := svc.StartSession(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, second.Active)
}

func TestEndSessionClosesOpenBreak(t *testing.T) {
	svc, repo, userID := newTimeTrackingFixture()

	_, err := svc.StartSession(context.Background(), userID)
	require.NoError(t, err)
	_, err = svc.StartBreak(context.Background(), userID)
	require.NoError(t, err)

	ended, err := svc.EndSession(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, ended.Active)
	require.Len(t, ended.Breaks, 1)
	assert.NotEmpty(t, ended.Breaks[0].EndedAt, "break must close with the session")

	// the break instant matches the session end instant
	for _, b := range repo.breaks {
		require.NotNil(t, b.EndedAt)
		sessionID, err := uuid.Parse(ended.ID)
		require.NoError(t, err)
		session := repo.sessions[sessionID]
		require.NotNil(t, session.EndedAt)
		assert.WithinDuration(t, *session.EndedAt, *b.EndedAt, time.Second)
	}
}

func TestStartBreakRequiresActiveSession(t *testing.T) {
	svc, _, userID := newTimeTrackingFixture()

	_, err := svc.StartBreak(context.Background(), userID)
	assert.EqualError(t, err, "no active session")
}

func TestStartBreakRejectsSecondOpenBreak(t *testing.T) {
	svc, _, userID := newTimeTrackingFixture()

	_, err := svc.StartSession(context.Background(), userID)
	require.NoError(t, err)
	_, err = svc.StartBreak(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.StartBreak(context.Background(), userID)
	assert.EqualError(t, err, "a break is already open")
}

func TestEndBreakWithoutOpenBreak(t *testing.T) {
	svc, _, userID := newTimeTrackingFixture()

	_, err := svc.StartSession(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.EndBreak(context.Background(), userID)
	assert.EqualError(t, err, "no open break")
}

func TestActiveSessionNotFound(t *testing.T) {
	svc, _, userID := newTimeTrackingFixture()

	_, err := svc.ActiveSession(context.Background(), userID)
	assert.EqualError(t, err, "no active session")
}

func TestSessionsAreIndependentPerUser(t *testing.T) {
	svc, _, alice := newTimeTrackingFixture()
	bob := uuid.NewString()

	_, err := svc.StartSession(context.Background(), alice)
	require.NoError(t, err)

	// bob starting is unaffected by alice's open session
	_, err = svc.StartSession(context.Background(), bob)
	require.NoError(t, err)

	active, err := svc.ActiveSession(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, bob, active.UserID)
}
