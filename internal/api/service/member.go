package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/pkg/slogx"
)

// MemberService manages memberships directly, outside the invitation flow.
type MemberService struct {
	Store store.Store
}

func (s *MemberService) List(ctx context.Context, projectID int64) ([]domain.Member, error) {
	members, err := s.Store.Memberships().ListMembers(ctx, projectID)
	if err != nil {
		return nil, internal("list members", err)
	}
	return members, nil
}

// UpdateRole changes a member's role. The requester must be an admin, and
// admins cannot change each other's role.
func (s *MemberService) UpdateRole(ctx context.Context, requesterID, projectID, userID int64, role domain.Role) error {
	if !role.Valid() {
		return ErrValidation
	}
	log := slogx.FromContext(ctx).With(
		slog.Int64("project_id", projectID),
		slog.Int64("member_id", userID),
	)

	if err := s.checkTarget(ctx, requesterID, projectID, userID); err != nil {
		return err
	}

	if err := s.Store.Memberships().UpdateMemberRole(ctx, userID, projectID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return internal("update member role", err)
	}

	s.record(ctx, requesterID, projectID, domain.HistoryRoleChanged,
		fmt.Sprintf("Changed role of user %d to %s", userID, role))
	log.Info("member role updated", slog.String("role", role.String()))
	return nil
}

// Remove deletes a membership under the same rules as UpdateRole.
func (s *MemberService) Remove(ctx context.Context, requesterID, projectID, userID int64) error {
	log := slogx.FromContext(ctx).With(
		slog.Int64("project_id", projectID),
		slog.Int64("member_id", userID),
	)

	if err := s.checkTarget(ctx, requesterID, projectID, userID); err != nil {
		return err
	}

	if err := s.Store.Memberships().RemoveMember(ctx, userID, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return internal("remove member", err)
	}

	s.record(ctx, requesterID, projectID, domain.HistoryRemoved,
		fmt.Sprintf("Removed user %d from project", userID))
	log.Info("member removed")
	return nil
}

func (s *MemberService) checkTarget(ctx context.Context, requesterID, projectID, userID int64) error {
	role, ok, err := roleOf(ctx, s.Store, requesterID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAMember
	}
	if role != domain.RoleAdmin {
		return ErrInsufficientRole
	}

	target, ok, err := roleOf(ctx, s.Store, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMemberNotFound
	}
	if target == domain.RoleAdmin && userID != requesterID {
		return ErrAdminProtected
	}
	return nil
}

// record appends a history entry. Failures are logged and dropped.
func (s *MemberService) record(ctx context.Context, userID, projectID int64, action domain.HistoryAction, desc string) {
	_, err := s.Store.History().AppendHistory(ctx, domain.HistoryEntry{
		UserID:      userID,
		ProjectID:   &projectID,
		Action:      action,
		Description: desc,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		slogx.FromContext(ctx).Error("append history", slog.Any("error", err))
	}
}
