package store

import (
	"context"
	"errors"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories so a transaction hands out the same repos bound to itself.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Projects() Projects
	Memberships() Memberships
	Invitations() Invitations
	History() History
	Notifications() Notifications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts u and returns the assigned id. A duplicate email
	// (case-insensitive) returns ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// SetResetToken stores the fingerprint of a password reset token.
	SetResetToken(ctx context.Context, userID int64, hash string, expiresAt time.Time) error

	// GetUserByResetToken returns the user holding an unexpired reset token.
	GetUserByResetToken(ctx context.Context, hash string, now time.Time) (domain.User, error)

	// ResetPassword sets the hash and clears the reset token fields.
	ResetPassword(ctx context.Context, userID int64, passwordHash string) error

	// ClearExpiredResetTokens is housekeeping.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record. A fingerprint
	// collision returns ErrAlreadyExists.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes the record and returns ErrNotFound when no
	// row was deleted. Rotation relies on this being a compare-and-delete.
	DeleteRefreshToken(ctx context.Context, hash string) error

	DeleteUserRefreshTokens(ctx context.Context, userID int64) (int64, error)

	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Projects interface {
	CreateProject(ctx context.Context, p domain.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (domain.Project, error)
}

type Memberships interface {
	// GetMembership returns ErrNotFound when the user is not a member.
	GetMembership(ctx context.Context, userID, projectID int64) (domain.Membership, error)

	// AddMember inserts the membership unless one already exists for the
	// pair. It reports whether a row was created.
	AddMember(ctx context.Context, m domain.Membership) (bool, error)

	ListMembers(ctx context.Context, projectID int64) ([]domain.Member, error)

	UpdateMemberRole(ctx context.Context, userID, projectID int64, role domain.Role) error

	RemoveMember(ctx context.Context, userID, projectID int64) error
}

// InvitationFilter narrows ListForProject. A zero Status means any.
type InvitationFilter struct {
	Status domain.InvitationStatus
}

type Invitations interface {
	// CreateInvitation returns ErrAlreadyExists when a PENDING invitation for
	// the same project and email exists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) (int64, error)

	GetInvitation(ctx context.Context, id int64) (domain.Invitation, error)

	GetPendingInvitation(ctx context.Context, projectID int64, email string) (domain.Invitation, error)

	ListForProject(ctx context.Context, projectID int64, f InvitationFilter) ([]domain.Invitation, error)

	// ListForUser returns invitations bound to userID or addressed to email.
	ListForUser(ctx context.Context, userID int64, email string) ([]domain.Invitation, error)

	// TransitionInvitation moves a PENDING invitation to status. It returns
	// ErrNotFound when the invitation is no longer PENDING. A non-nil
	// invitedUserID binds the invitation to that user.
	TransitionInvitation(ctx context.Context, id int64, status domain.InvitationStatus, invitedUserID *int64) error

	// ExpireInvitations marks every PENDING invitation past its expiry as EXPIRED.
	ExpireInvitations(ctx context.Context, now time.Time) (int64, error)
}

type History interface {
	AppendHistory(ctx context.Context, e domain.HistoryEntry) (int64, error)
	ListProjectHistory(ctx context.Context, projectID int64, limit int) ([]domain.HistoryEntry, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n domain.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID int64) ([]domain.Notification, error)
}
