package service

import (
	"errors"
	"fmt"
)

// Business errors. Handlers switch on these with errors.Is; anything else
// is an infrastructure failure wrapped in ErrInternal.
var (
	ErrValidation         = errors.New("validation_error")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrRefreshNotFound    = errors.New("refresh_token_not_found")
	ErrRefreshExpired     = errors.New("refresh_token_expired")
	ErrInvalidResetToken  = errors.New("invalid_reset_token")

	ErrNotProjectAdmin        = errors.New("not_project_admin")
	ErrDuplicatePending       = errors.New("duplicate_pending_invitation")
	ErrInvitationNotFound     = errors.New("invitation_not_found")
	ErrInvitationNotPending   = errors.New("invitation_not_pending")
	ErrInvitationUnauthorized = errors.New("invitation_unauthorized")
	ErrInvitationExpired      = errors.New("invitation_expired")

	ErrNotAMember       = errors.New("not_a_member")
	ErrInsufficientRole = errors.New("insufficient_role")
	ErrProjectNotFound  = errors.New("project_not_found")
	ErrMemberNotFound   = errors.New("member_not_found")
	ErrAdminProtected   = errors.New("admin_protected")

	ErrInternal = errors.New("internal_error")
)

// internal wraps an infrastructure failure so callers can match ErrInternal
// while the cause stays available for logging.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
