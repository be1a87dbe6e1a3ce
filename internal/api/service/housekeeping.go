package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fastplanner/planner/internal/api/store"
)

// HousekeepingService periodically removes expired refresh tokens, clears
// expired reset tokens and moves overdue invitations to EXPIRED.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Now is the clock. Nil means time.Now.
	Now func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// CleanupResult counts the rows each step touched.
type CleanupResult struct {
	RefreshTokens int64
	ResetTokens   int64
	Invitations   int64
}

// Cleanup runs one pass. Steps are independent; a failing step is logged
// and the others still run.
func (s *HousekeepingService) Cleanup(ctx context.Context) CleanupResult {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	var res CleanupResult
	steps := []struct {
		name string
		dst  *int64
		fn   func(context.Context, time.Time) (int64, error)
	}{
		{"expired refresh tokens", &res.RefreshTokens, s.Store.RefreshTokens().DeleteExpiredRefreshTokens},
		{"expired reset tokens", &res.ResetTokens, s.Store.Users().ClearExpiredResetTokens},
		{"overdue invitations", &res.Invitations, s.Store.Invitations().ExpireInvitations},
	}

	for _, step := range steps {
		n, err := step.fn(ctx, now)
		if err != nil {
			s.Logger.Error("housekeeping step failed", "step", step.name, "error", err)
			continue
		}
		*step.dst = n
		s.Logger.Debug("housekeeping step done", "step", step.name, "rows", n)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"refresh_tokens", res.RefreshTokens,
		"reset_tokens", res.ResetTokens,
		"invitations", res.Invitations,
	)
	return res
}
