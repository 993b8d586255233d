package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateLeaveRequest struct {
	Type      string `json:"type" binding:"required,oneof=VACATION SICK UNPAID"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

type ReviewLeaveRequest struct {
	Note string `json:"note"`
}

type LeaveResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Type         string `json:"type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status"`
	ReviewerID   string `json:"reviewer_id,omitempty"`
	ReviewerNote string `json:"reviewer_note,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// --- Interface ---

type LeaveService interface {
	Request(ctx context.Context, userID string, req CreateLeaveRequest) (*LeaveResponse, error)
	ListOwn(ctx context.Context, userID string, status string, page, limit int) ([]LeaveResponse, int64, error)
	ListAll(ctx context.Context, status string, page, limit int) ([]LeaveResponse, int64, error)
	Approve(ctx context.Context, reviewerID, id string, req ReviewLeaveRequest) (*LeaveResponse, error)
	Reject(ctx context.Context, reviewerID, id string, req ReviewLeaveRequest) (*LeaveResponse, error)
}

type leaveService struct {
	repo          repository.LeaveRepository
	auditRepo     repository.AuditRepository
	notifications NotificationService
}

func NewLeaveService(repo repository.LeaveRepository, auditRepo repository.AuditRepository, notifications NotificationService) LeaveService {
	return &leaveService{repo: repo, auditRepo: auditRepo, notifications: notifications}
}

const leaveDateLayout = "2006-01-02"

func toLeaveResponse(r *model.LeaveRequest) *LeaveResponse {
	resp := &LeaveResponse{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		Type:         r.Type,
		StartDate:    r.StartDate.Format(leaveDateLayout),
		EndDate:      r.EndDate.Format(leaveDateLayout),
		Reason:       r.Reason,
		Status:       r.Status,
		ReviewerNote: r.ReviewerNote,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReviewerID != nil {
		resp.ReviewerID = r.ReviewerID.String()
	}
	return resp
}

func (s *leaveService) Request(ctx context.Context, userID string, req CreateLeaveRequest) (*LeaveResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}
	start, err := time.Parse(leaveDateLayout, req.StartDate)
	if err != nil {
		return nil, errors.New("invalid start date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(leaveDateLayout, req.EndDate)
	if err != nil {
		return nil, errors.New("invalid end date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, errors.New("end date before start date")
	}

	leave := &model.LeaveRequest{
		UserID:    uid,
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Status:    model.LeaveStatusPending,
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, err
	}
	return toLeaveResponse(leave), nil
}

func (s *leaveService) ListOwn(ctx context.Context, userID string, status string, page, limit int) ([]LeaveResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, errors.New("invalid user id")
	}
	return s.list(ctx, &uid, status, page, limit)
}

func (s *leaveService) ListAll(ctx context.Context, status string, page, limit int) ([]LeaveResponse, int64, error) {
	return s.list(ctx, nil, status, page, limit)
}

func (s *leaveService) list(ctx context.Context, userID *uuid.UUID, status string, page, limit int) ([]LeaveResponse, int64, error) {
	requests, total, err := s.repo.List(ctx, userID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]LeaveResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, *toLeaveResponse(&requests[i]))
	}
	return responses, total, nil
}

func (s *leaveService) Approve(ctx context.Context, reviewerID, id string, req ReviewLeaveRequest) (*LeaveResponse, error) {
	return s.review(ctx, reviewerID, id, model.LeaveStatusApproved, model.ActionApproveLeave, req.Note)
}

func (s *leaveService) Reject(ctx context.Context, reviewerID, id string, req ReviewLeaveRequest) (*LeaveResponse, error) {
	return s.review(ctx, reviewerID, id, model.LeaveStatusRejected, model.ActionRejectLeave, req.Note)
}

// review moves a pending request to its final status and notifies the requester
func (s *leaveService) review(ctx context.Context, reviewerID, id, status, auditAction, note string) (*LeaveResponse, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid request id")
	}
	reviewer, err := uuid.Parse(reviewerID)
	if err != nil {
		return nil, errors.New("invalid reviewer id")
	}

	leave, err := s.repo.GetByID(ctx, leaveID)
	if err != nil {
		return nil, errors.New("leave request not found")
	}
	if leave.Status != model.LeaveStatusPending {
		return nil, errors.New("request already reviewed")
	}
	if leave.UserID == reviewer {
		return nil, errors.New("cannot review your own request")
	}

	leave.Status = status
	leave.ReviewerID = &reviewer
	leave.ReviewerNote = note
	if err := s.repo.Update(ctx, leave); err != nil {
		return nil, err
	}

	s.logAudit(ctx, reviewerID, auditAction, id, leave.Type, map[string]string{"note": note})

	if s.notifications != nil {
		content := "Your leave request was approved"
		if status == model.LeaveStatusRejected {
			content = "Your leave request was rejected"
		}
		_ = s.notifications.Notify(ctx, leave.UserID, content, "/leave/"+id)
	}
	return toLeaveResponse(leave), nil
}

func (s *leaveService) logAudit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if actor, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &actor
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			entry.Details = string(raw)
		}
	}
	_ = s.auditRepo.Log(ctx, entry)
}
