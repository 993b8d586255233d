package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type WorkSessionResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	StartedAt       string          `json:"started_at"`
	EndedAt         string          `json:"ended_at,omitempty"`
	Active          bool            `json:"active"`
	DurationMinutes int             `json:"duration_minutes"`
	Breaks          []BreakResponse `json:"breaks"`
}

type BreakResponse struct {
	ID        string `json:"id"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
}

type LogWorkRequest struct {
	StepID  string `json:"step_id" binding:"required"`
	Minutes int    `json:"minutes" binding:"required,gt=0"`
	Note    string `json:"note"`
}

type WorkEntryResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	StepID    string `json:"step_id"`
	Minutes   int    `json:"minutes"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type TimeTrackingService interface {
	StartSession(ctx context.Context, userID string) (*WorkSessionResponse, error)
	EndSession(ctx context.Context, userID string) (*WorkSessionResponse, error)
	StartBreak(ctx context.Context, userID string) (*WorkSessionResponse, error)
	EndBreak(ctx context.Context, userID string) (*WorkSessionResponse, error)
	ActiveSession(ctx context.Context, userID string) (*WorkSessionResponse, error)
	ListSessions(ctx context.Context, userID string, page, limit int) ([]WorkSessionResponse, int64, error)
	LogWork(ctx context.Context, userID string, req LogWorkRequest) (*WorkEntryResponse, error)
	ListWorkEntries(ctx context.Context, userID string, page, limit int) ([]WorkEntryResponse, int64, error)
}

type timeTrackingService struct {
	repo           repository.TimeTrackingRepository
	productionRepo repository.ProductionRepository
	txManager      repository.TransactionManager
}

func NewTimeTrackingService(repo repository.TimeTrackingRepository, productionRepo repository.ProductionRepository, txManager repository.TransactionManager) TimeTrackingService {
	return &timeTrackingService{repo: repo, productionRepo: productionRepo, txManager: txManager}
}

func toSessionResponse(s *model.WorkSession) *WorkSessionResponse {
	resp := &WorkSessionResponse{
		ID:              s.ID.String(),
		UserID:          s.UserID.String(),
		StartedAt:       s.StartedAt.Format(time.RFC3339),
		Active:          s.EndedAt == nil,
		DurationMinutes: int(s.Duration(time.Now()) / time.Minute),
		Breaks:          make([]BreakResponse, 0, len(s.Breaks)),
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	for _, b := range s.Breaks {
		br := BreakResponse{ID: b.ID.String(), StartedAt: b.StartedAt.Format(time.RFC3339)}
		if b.EndedAt != nil {
			br.EndedAt = b.EndedAt.Format(time.RFC3339)
		}
		resp.Breaks = append(resp.Breaks, br)
	}
	return resp
}

// StartSession opens a new session unless one is already active
func (s *timeTrackingService) StartSession(ctx context.Context, userID string) (*WorkSessionResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	var session *model.WorkSession
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.ActiveSession(txCtx, uid); err == nil {
			return errors.New("a session is already active")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		session = &model.WorkSession{UserID: uid, StartedAt: time.Now()}
		return s.repo.CreateSession(txCtx, session)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// EndSession closes the active session. An open break is closed at the same
// instant so no break outlives its session.
func (s *timeTrackingService) EndSession(ctx context.Context, userID string) (*WorkSessionResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	var session *model.WorkSession
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		active, err := s.repo.ActiveSession(txCtx, uid)
		if err != nil {
			return errors.New("no active session")
		}

		now := time.Now()
		if open, err := s.repo.OpenBreak(txCtx, active.ID); err == nil {
			open.EndedAt = &now
			if err := s.repo.UpdateBreak(txCtx, open); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		active.EndedAt = &now
		if err := s.repo.UpdateSession(txCtx, active); err != nil {
			return err
		}

		session, err = s.repo.GetSession(txCtx, active.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *timeTrackingService) StartBreak(ctx context.Context, userID string) (*WorkSessionResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	var session *model.WorkSession
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		active, err := s.repo.ActiveSession(txCtx, uid)
		if err != nil {
			return errors.New("no active session")
		}
		if _, err := s.repo.OpenBreak(txCtx, active.ID); err == nil {
			return errors.New("a break is already open")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		b := &model.Break{SessionID: active.ID, StartedAt: time.Now()}
		if err := s.repo.CreateBreak(txCtx, b); err != nil {
			return err
		}

		session, err = s.repo.GetSession(txCtx, active.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *timeTrackingService) EndBreak(ctx context.Context, userID string) (*WorkSessionResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	var session *model.WorkSession
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		active, err := s.repo.ActiveSession(txCtx, uid)
		if err != nil {
			return errors.New("no active session")
		}
		open, err := s.repo.OpenBreak(txCtx, active.ID)
		if err != nil {
			return errors.New("no open break")
		}

		now := time.Now()
		open.EndedAt = &now
		if err := s.repo.UpdateBreak(txCtx, open); err != nil {
			return err
		}

		session, err = s.repo.GetSession(txCtx, active.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *timeTrackingService) ActiveSession(ctx context.Context, userID string) (*WorkSessionResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}
	session, err := s.repo.ActiveSession(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("no active session")
		}
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *timeTrackingService) ListSessions(ctx context.Context, userID string, page, limit int) ([]WorkSessionResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, errors.New("invalid user id")
	}
	sessions, total, err := s.repo.ListSessions(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]WorkSessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, *toSessionResponse(&sessions[i]))
	}
	return responses, total, nil
}

func (s *timeTrackingService) LogWork(ctx context.Context, userID string, req LogWorkRequest) (*WorkEntryResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}
	stepID, err := uuid.Parse(req.StepID)
	if err != nil {
		return nil, errors.New("invalid step id")
	}
	if _, err := s.productionRepo.GetStep(ctx, stepID); err != nil {
		return nil, errors.New("production step not found")
	}

	entry := &model.WorkEntry{
		UserID:  uid,
		StepID:  stepID,
		Minutes: req.Minutes,
		Note:    req.Note,
	}
	if err := s.repo.CreateWorkEntry(ctx, entry); err != nil {
		return nil, err
	}

	return &WorkEntryResponse{
		ID:        entry.ID.String(),
		UserID:    userID,
		StepID:    req.StepID,
		Minutes:   entry.Minutes,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *timeTrackingService) ListWorkEntries(ctx context.Context, userID string, page, limit int) ([]WorkEntryResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, errors.New("invalid user id")
	}
	entries, total, err := s.repo.ListWorkEntries(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]WorkEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, WorkEntryResponse{
			ID:        e.ID.String(),
			UserID:    e.UserID.String(),
			StepID:    e.StepID.String(),
			Minutes:   e.Minutes,
			Note:      e.Note,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return responses, total, nil
}
