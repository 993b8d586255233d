package service

import (
	"context"
	"time"

	"backend/internal/repository"
)

type OverviewResponse struct {
	ActiveUsers         int64                         `json:"active_users"`
	OpenSessions        int64                         `json:"open_sessions"`
	PendingLeave        int64                         `json:"pending_leave"`
	InventoryItems      int64                         `json:"inventory_items"`
	StockValue          string                        `json:"stock_value"`
	GuidesByStatus      []repository.GuideStatusCount `json:"guides_by_status"`
	MessagesToday       int64                         `json:"messages_today"`
	UnreadNotifications int64                         `json:"unread_notifications"`
}

type StatisticsService interface {
	Overview(ctx context.Context, userID string) (*OverviewResponse, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

func (s *statisticsService) Overview(ctx context.Context, userID string) (*OverviewResponse, error) {
	resp := &OverviewResponse{}

	var err error
	if resp.ActiveUsers, err = s.repo.CountActiveUsers(ctx); err != nil {
		return nil, err
	}
	if resp.OpenSessions, err = s.repo.CountOpenSessions(ctx); err != nil {
		return nil, err
	}
	if resp.PendingLeave, err = s.repo.CountPendingLeave(ctx); err != nil {
		return nil, err
	}
	if resp.InventoryItems, err = s.repo.CountItems(ctx); err != nil {
		return nil, err
	}
	if resp.StockValue, err = s.repo.TotalStockValue(ctx); err != nil {
		return nil, err
	}
	if resp.GuidesByStatus, err = s.repo.GuidesByStatus(ctx); err != nil {
		return nil, err
	}

	midnight := time.Now().Truncate(24 * time.Hour)
	if resp.MessagesToday, err = s.repo.CountMessagesSince(ctx, midnight); err != nil {
		return nil, err
	}
	if resp.UnreadNotifications, err = s.repo.CountUnreadNotifications(ctx, userID); err != nil {
		return nil, err
	}
	return resp, nil
}
