package service

import (
	"context"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type HistoryService struct {
	Store store.Store
}

// ListForProject returns the newest entries first. limit is clamped to
// (0, MaxHistoryLimit].
func (s *HistoryService) ListForProject(ctx context.Context, projectID int64, limit int) ([]domain.HistoryEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	entries, err := s.Store.History().ListProjectHistory(ctx, projectID, limit)
	if err != nil {
		return nil, internal("list history", err)
	}
	return entries, nil
}
