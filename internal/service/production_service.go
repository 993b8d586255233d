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

type CreateGuideRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type UpdateGuideRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

type CreateStepRequest struct {
	Title        string `json:"title" binding:"required"`
	Instructions string `json:"instructions"`
}

type UpdateStepRequest struct {
	Title        string  `json:"title"`
	Instructions *string `json:"instructions"`
	Done         *bool   `json:"done"`
}

type StepResponse struct {
	ID           string `json:"id"`
	GuideID      string `json:"guide_id"`
	Title        string `json:"title"`
	Instructions string `json:"instructions,omitempty"`
	Position     int    `json:"position"`
	Done         bool   `json:"done"`
}

type GuideResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status"`
	CreatedByID string         `json:"created_by_id,omitempty"`
	Steps       []StepResponse `json:"steps,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

var guideStatuses = map[string]bool{
	model.GuideStatusDraft:     true,
	model.GuideStatusActive:    true,
	model.GuideStatusCompleted: true,
	model.GuideStatusArchived:  true,
}

// --- Interface ---

type ProductionService interface {
	CreateGuide(ctx context.Context, actorID string, req CreateGuideRequest) (*GuideResponse, error)
	GetGuide(ctx context.Context, id string) (*GuideResponse, error)
	ListGuides(ctx context.Context, status string, page, limit int) ([]GuideResponse, int64, error)
	UpdateGuide(ctx context.Context, actorID, id string, req UpdateGuideRequest) (*GuideResponse, error)
	DeleteGuide(ctx context.Context, actorID, id string) error
	AddStep(ctx context.Context, guideID string, req CreateStepRequest) (*StepResponse, error)
	UpdateStep(ctx context.Context, stepID string, req UpdateStepRequest) (*StepResponse, error)
	DeleteStep(ctx context.Context, stepID string) error
}

type productionService struct {
	repo      repository.ProductionRepository
	auditRepo repository.AuditRepository
}

func NewProductionService(repo repository.ProductionRepository, auditRepo repository.AuditRepository) ProductionService {
	return &productionService{repo: repo, auditRepo: auditRepo}
}

func toStepResponse(s *model.ProductionStep) *StepResponse {
	return &StepResponse{
		ID:           s.ID.String(),
		GuideID:      s.GuideID.String(),
		Title:        s.Title,
		Instructions: s.Instructions,
		Position:     s.Position,
		Done:         s.Done,
	}
}

func toGuideResponse(g *model.ProductionGuide) *GuideResponse {
	resp := &GuideResponse{
		ID:          g.ID.String(),
		Title:       g.Title,
		Description: g.Description,
		Status:      g.Status,
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
	}
	if g.CreatedByID != nil {
		resp.CreatedByID = g.CreatedByID.String()
	}
	for i := range g.Steps {
		resp.Steps = append(resp.Steps, *toStepResponse(&g.Steps[i]))
	}
	return resp
}

func (s *productionService) CreateGuide(ctx context.Context, actorID string, req CreateGuideRequest) (*GuideResponse, error) {
	guide := &model.ProductionGuide{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.GuideStatusDraft,
	}
	if actor, err := uuid.Parse(actorID); err == nil {
		guide.CreatedByID = &actor
	}
	if err := s.repo.CreateGuide(ctx, guide); err != nil {
		return nil, err
	}

	s.logAudit(ctx, actorID, model.ActionCreateGuide, guide.ID.String(), guide.Title, req)
	return toGuideResponse(guide), nil
}

func (s *productionService) GetGuide(ctx context.Context, id string) (*GuideResponse, error) {
	guideID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid guide id")
	}
	guide, err := s.repo.GetGuide(ctx, guideID)
	if err != nil {
		return nil, errors.New("guide not found")
	}
	return toGuideResponse(guide), nil
}

func (s *productionService) ListGuides(ctx context.Context, status string, page, limit int) ([]GuideResponse, int64, error) {
	if status != "" && !guideStatuses[status] {
		return nil, 0, errors.New("invalid status filter")
	}
	guides, total, err := s.repo.ListGuides(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]GuideResponse, 0, len(guides))
	for i := range guides {
		responses = append(responses, *toGuideResponse(&guides[i]))
	}
	return responses, total, nil
}

func (s *productionService) UpdateGuide(ctx context.Context, actorID, id string, req UpdateGuideRequest) (*GuideResponse, error) {
	guideID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid guide id")
	}
	guide, err := s.repo.GetGuide(ctx, guideID)
	if err != nil {
		return nil, errors.New("guide not found")
	}

	if req.Title != "" {
		guide.Title = req.Title
	}
	if req.Description != nil {
		guide.Description = *req.Description
	}
	if req.Status != "" {
		if !guideStatuses[req.Status] {
			return nil, errors.New("invalid status")
		}
		guide.Status = req.Status
	}
	if err := s.repo.UpdateGuide(ctx, guide); err != nil {
		return nil, err
	}

	s.logAudit(ctx, actorID, model.ActionUpdateGuide, id, guide.Title, req)
	return toGuideResponse(guide), nil
}

func (s *productionService) DeleteGuide(ctx context.Context, actorID, id string) error {
	guideID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid guide id")
	}
	guide, err := s.repo.GetGuide(ctx, guideID)
	if err != nil {
		return errors.New("guide not found")
	}
	if err := s.repo.DeleteGuide(ctx, guideID); err != nil {
		return err
	}
	s.logAudit(ctx, actorID, model.ActionDeleteGuide, id, guide.Title, nil)
	return nil
}

// AddStep appends the step after the guide's current last position
func (s *productionService) AddStep(ctx context.Context, guideID string, req CreateStepRequest) (*StepResponse, error) {
	gid, err := uuid.Parse(guideID)
	if err != nil {
		return nil, errors.New("invalid guide id")
	}
	if _, err := s.repo.GetGuide(ctx, gid); err != nil {
		return nil, errors.New("guide not found")
	}

	position, err := s.repo.NextStepPosition(ctx, gid)
	if err != nil {
		return nil, err
	}

	step := &model.ProductionStep{
		GuideID:      gid,
		Title:        req.Title,
		Instructions: req.Instructions,
		Position:     position,
	}
	if err := s.repo.CreateStep(ctx, step); err != nil {
		return nil, err
	}
	return toStepResponse(step), nil
}

func (s *productionService) UpdateStep(ctx context.Context, stepID string, req UpdateStepRequest) (*StepResponse, error) {
	sid, err := uuid.Parse(stepID)
	if err != nil {
		return nil, errors.New("invalid step id")
	}
	step, err := s.repo.GetStep(ctx, sid)
	if err != nil {
		return nil, errors.New("step not found")
	}

	if req.Title != "" {
		step.Title = req.Title
	}
	if req.Instructions != nil {
		step.Instructions = *req.Instructions
	}
	if req.Done != nil {
		step.Done = *req.Done
	}
	if err := s.repo.UpdateStep(ctx, step); err != nil {
		return nil, err
	}
	return toStepResponse(step), nil
}

func (s *productionService) DeleteStep(ctx context.Context, stepID string) error {
	sid, err := uuid.Parse(stepID)
	if err != nil {
		return errors.New("invalid step id")
	}
	if _, err := s.repo.GetStep(ctx, sid); err != nil {
		return errors.New("step not found")
	}
	return s.repo.DeleteStep(ctx, sid)
}

func (s *productionService) logAudit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) {
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
