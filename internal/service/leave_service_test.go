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

type memLeaveRepo struct {
	requests map[uuid.UUID]*model.LeaveRequest
}

func newMemLeaveRepo() *memLeaveRepo {
	return &memLeaveRepo{requests: map[uuid.UUID]*model.LeaveRequest{}}
}

func (r *memLeaveRepo) Create(_ context.Context, req *model.LeaveRequest) error {
	req.ID = uuid.New()
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *memLeaveRepo) GetByID(_ context.Context, id uuid.UUID) (*model.LeaveRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *memLeaveRepo) Update(_ context.Context, req *model.LeaveRequest) error {
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *memLeaveRepo) List(_ context.Context, userID *uuid.UUID, status string, _, _ int) ([]model.LeaveRequest, int64, error) {
	var out []model.LeaveRequest
	for _, req := range r.requests {
		if userID != nil && req.UserID != *userID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

type notifyCall struct {
	userID  uuid.UUID
	content string
	link    string
}

// stubNotifier records Notify calls; the rest of the interface stays unused
type stubNotifier struct {
	NotificationService
	calls []notifyCall
}

func (s *stubNotifier) Notify(_ context.Context, userID uuid.UUID, content, link string) error {
	s.calls = append(s.calls, notifyCall{userID: userID, content: content, link: link})
	return nil
}

func newLeaveFixture(t *testing.T) (LeaveService, *stubNotifier, string, string) {
	t.Helper()
	notifier := &stubNotifier{}
	svc := NewLeaveService(newMemLeaveRepo(), nil, notifier)

	requester := uuid.NewString()
	leave, err := svc.Request(context.Background(), requester, CreateLeaveRequest{
		Type:      model.LeaveTypeVacation,
		StartDate: "2026-09-07",
		EndDate:   "2026-09-11",
		Reason:    "family trip",
	})
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusPending, leave.Status)
	return svc, notifier, requester, leave.ID
}

func TestRequestValidatesDates(t *testing.T) {
	svc := NewLeaveService(newMemLeaveRepo(), nil, nil)
	userID := uuid.NewString()

	_, err := svc.Request(context.Background(), userID, CreateLeaveRequest{
		Type: model.LeaveTypeSick, StartDate: "07.09.2026", EndDate: "2026-09-11",
	})
	assert.EqualError(t, err, "invalid start date, expected YYYY-MM-DD")

	_, err = svc.Request(context.Background(), userID, CreateLeaveRequest{
		Type: model.LeaveTypeSick, StartDate: "2026-09-11", EndDate: "2026-09-07",
	})
	assert.EqualError(t, err, "end date before start date")
}

func TestApproveNotifiesRequester(t *testing.T) {
	svc, notifier, requester, leaveID := newLeaveFixture(t)
	reviewer := uuid.NewString()

	approved, err := svc.Approve(context.Background(), reviewer, leaveID, ReviewLeaveRequest{Note: "enjoy"})
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApproved, approved.Status)
	assert.Equal(t, reviewer, approved.ReviewerID)
	assert.Equal(t, "enjoy", approved.ReviewerNote)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, requester, notifier.calls[0].userID.String())
	assert.Contains(t, notifier.calls[0].content, "approved")
	assert.Equal(t, "/leave/"+leaveID, notifier.calls[0].link)
}

func TestRejectNotifiesRequester(t *testing.T) {
	svc, notifier, _, leaveID := newLeaveFixture(t)

	rejected, err := svc.Reject(context.Background(), uuid.NewString(), leaveID, ReviewLeaveRequest{Note: "short-staffed"})
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusRejected, rejected.Status)

	require.Len(t, notifier.calls, 1)
	assert.Contains(t, notifier.calls[0].content, "rejected")
}

func TestReviewRejectsDoubleReview(t *testing.T) {
	svc, _, _, leaveID := newLeaveFixture(t)
	reviewer := uuid.NewString()

	_, err := svc.Approve(context.Background(), reviewer, leaveID, ReviewLeaveRequest{})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), reviewer, leaveID, ReviewLeaveRequest{})
	assert.EqualError(t, err, "request already reviewed")
}

func TestReviewRejectsSelfReview(t *testing.T) {
	svc, _, requester, leaveID := newLeaveFixture(t)

	_, err := svc.Approve(context.Background(), requester, leaveID, ReviewLeaveRequest{})
	assert.EqualError(t, err, "cannot review your own request")
}
