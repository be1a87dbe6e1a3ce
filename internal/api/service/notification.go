package service

import (
	"context"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
)

type NotificationService struct {
	Store store.Store
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	list, err := s.Store.Notifications().ListNotifications(ctx, userID)
	if err != nil {
		return nil, internal("list notifications", err)
	}
	return list, nil
}
