package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/pkg/cryptox"
	"github.com/fastplanner/planner/pkg/slogx"
)

// InvitationService runs the invitation state machine:
// PENDING -> ACCEPTED | REJECTED | EXPIRED, all terminal.
type InvitationService struct {
	Store store.Store
	TTL   time.Duration

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

type CreateInvitationInput struct {
	ProjectID   int64
	RequesterID int64
	Email       string
	Role        domain.Role // empty means developer
}

func (s *InvitationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *InvitationService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.DefaultInvitationTTL
}

// Create offers role in a project to an email address. Only project admins
// may invite. A registered user with that address is bound to the
// invitation and notified.
func (s *InvitationService) Create(ctx context.Context, in CreateInvitationInput) (domain.Invitation, error) {
	log := slogx.FromContext(ctx).With(
		slog.Int64("project_id", in.ProjectID),
		slog.Int64("requester_id", in.RequesterID),
	)

	email := domain.NormalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = domain.RoleDeveloper
	}
	if email == "" || !role.Valid() {
		return domain.Invitation{}, ErrValidation
	}

	now := s.now()
	inv := domain.Invitation{
		ProjectID:   in.ProjectID,
		Email:       email,
		InvitedByID: in.RequesterID,
		Role:        role,
		TokenHash:   cryptox.FingerprintToken(cryptox.MustGenerateToken(cryptox.TokenSize256)),
		Status:      domain.InvitationPending,
		ExpiresAt:   now.Add(s.ttl()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		r, ok, err := roleOf(ctx, tx, in.RequesterID, in.ProjectID)
		if err != nil {
			return err
		}
		if !ok || r != domain.RoleAdmin {
			return ErrNotProjectAdmin
		}

		existing, err := tx.Invitations().GetPendingInvitation(ctx, in.ProjectID, email)
		switch {
		case err == nil && existing.Expired(now):
			// A stale offer must not block a new one.
			if err := tx.Invitations().TransitionInvitation(ctx, existing.ID, domain.InvitationExpired, nil); err != nil {
				return internal("expire stale invitation", err)
			}
		case err == nil:
			return ErrDuplicatePending
		case !errors.Is(err, store.ErrNotFound):
			return internal("lookup pending invitation", err)
		}

		invitee, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			inv.InvitedUserID = &invitee.ID
		case !errors.Is(err, store.ErrNotFound):
			return internal("lookup invitee", err)
		}

		inv.ID, err = tx.Invitations().CreateInvitation(ctx, inv)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicatePending
			}
			return internal("create invitation", err)
		}

		if inv.InvitedUserID != nil {
			_, err := tx.Notifications().CreateNotification(ctx, domain.Notification{
				UserID:    *inv.InvitedUserID,
				Type:      domain.NotificationInvitation,
				Message:   s.notificationText(ctx, tx, inv),
				RelatedID: &inv.ID,
				CreatedAt: now,
			})
			if err != nil {
				return internal("create notification", err)
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotProjectAdmin):
			log.Warn("invitation rejected", slog.String("reason", "not_project_admin"))
		case errors.Is(err, ErrDuplicatePending):
			log.Info("invitation rejected", slog.String("reason", "duplicate_pending"))
		}
		return domain.Invitation{}, err
	}

	log.Info("invitation created", slog.Int64("invitation_id", inv.ID), slog.String("role", role.String()))
	return inv, nil
}

func (s *InvitationService) notificationText(ctx context.Context, tx store.Tx, inv domain.Invitation) string {
	p, err := tx.Projects().GetProject(ctx, inv.ProjectID)
	if err != nil {
		return fmt.Sprintf("You have been invited to join a project as %s.", inv.Role)
	}
	return fmt.Sprintf("You have been invited to join %q as %s.", p.Name, inv.Role)
}

// ListForProject returns a project's invitations, newest first. A zero
// status lists every state.
func (s *InvitationService) ListForProject(ctx context.Context, projectID int64, status domain.InvitationStatus) ([]domain.Invitation, error) {
	if status != "" && !status.Valid() {
		return nil, ErrValidation
	}
	list, err := s.Store.Invitations().ListForProject(ctx, projectID, store.InvitationFilter{Status: status})
	if err != nil {
		return nil, internal("list project invitations", err)
	}
	return list, nil
}

// ListForSelf returns invitations bound to userID or addressed to email.
func (s *InvitationService) ListForSelf(ctx context.Context, userID int64, email string) ([]domain.Invitation, error) {
	list, err := s.Store.Invitations().ListForUser(ctx, userID, email)
	if err != nil {
		return nil, internal("list own invitations", err)
	}
	return list, nil
}

// Accept grants the invited role and closes the invitation. Membership,
// status change and audit entry commit together. An existing membership is
// left untouched.
func (s *InvitationService) Accept(ctx context.Context, invitationID int64, actor domain.Identity) error {
	log := slogx.FromContext(ctx).With(
		slog.Int64("invitation_id", invitationID),
		slog.Int64("user_id", actor.UserID),
	)

	var projectID int64
	err := s.resolve(ctx, invitationID, actor, func(tx store.Tx, inv domain.Invitation, now time.Time) error {
		projectID = inv.ProjectID

		created, err := tx.Memberships().AddMember(ctx, domain.Membership{
			UserID:    actor.UserID,
			ProjectID: inv.ProjectID,
			Role:      inv.Role,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return internal("add member", err)
		}

		if err := s.transition(ctx, tx, inv.ID, domain.InvitationAccepted, actor.UserID); err != nil {
			return err
		}

		desc := fmt.Sprintf("Accepted invitation as %s", inv.Role)
		if !created {
			desc = "Accepted invitation; existing membership kept"
		}
		_, err = tx.History().AppendHistory(ctx, domain.HistoryEntry{
			UserID:      actor.UserID,
			ProjectID:   &inv.ProjectID,
			Action:      domain.HistoryAssigned,
			Description: desc,
			CreatedAt:   now,
		})
		if err != nil {
			return internal("append history", err)
		}
		return nil
	})
	if err != nil {
		logResolveFailure(log, "accept", err)
		return err
	}

	log.Info("invitation accepted", slog.Int64("project_id", projectID))
	return nil
}

// Reject closes the invitation without granting anything.
func (s *InvitationService) Reject(ctx context.Context, invitationID int64, actor domain.Identity) error {
	log := slogx.FromContext(ctx).With(
		slog.Int64("invitation_id", invitationID),
		slog.Int64("user_id", actor.UserID),
	)

	err := s.resolve(ctx, invitationID, actor, func(tx store.Tx, inv domain.Invitation, _ time.Time) error {
		return s.transition(ctx, tx, inv.ID, domain.InvitationRejected, actor.UserID)
	})
	if err != nil {
		logResolveFailure(log, "reject", err)
		return err
	}

	log.Info("invitation rejected")
	return nil
}

// resolve runs the checks shared by Accept and Reject inside a transaction
// and hands a still-PENDING invitation to apply. Identity is checked before
// expiry. An expired invitation is marked EXPIRED and that change is kept.
func (s *InvitationService) resolve(
	ctx context.Context,
	invitationID int64,
	actor domain.Identity,
	apply func(tx store.Tx, inv domain.Invitation, now time.Time) error,
) error {
	now := s.now()
	expired := false

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invitations().GetInvitation(ctx, invitationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationNotFound
			}
			return internal("load invitation", err)
		}

		if inv.Status != domain.InvitationPending {
			return ErrInvitationNotPending
		}
		if !inv.AddressedTo(actor.UserID, actor.Email) {
			return ErrInvitationUnauthorized
		}
		if inv.Expired(now) {
			expired = true
			if err := tx.Invitations().TransitionInvitation(ctx, inv.ID, domain.InvitationExpired, nil); err != nil && !errors.Is(err, store.ErrNotFound) {
				return internal("expire invitation", err)
			}
			return nil
		}

		return apply(tx, inv, now)
	})
	if err != nil {
		return err
	}
	if expired {
		return ErrInvitationExpired
	}
	return nil
}

func (s *InvitationService) transition(ctx context.Context, tx store.Tx, id int64, status domain.InvitationStatus, userID int64) error {
	err := tx.Invitations().TransitionInvitation(ctx, id, status, &userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotPending
		}
		return internal("transition invitation", err)
	}
	return nil
}

func logResolveFailure(log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrInvitationNotFound):
		log.Info(op+" failed", slog.String("reason", "not_found"))
	case errors.Is(err, ErrInvitationNotPending):
		log.Info(op+" failed", slog.String("reason", "not_pending"))
	case errors.Is(err, ErrInvitationUnauthorized):
		log.Warn(op+" failed", slog.String("reason", "unauthorized"))
	case errors.Is(err, ErrInvitationExpired):
		log.Info(op+" failed", slog.String("reason", "expired"))
	}
}
