package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/internal/api/store/drivers/sqlite"
	"github.com/fastplanner/planner/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "planner.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	// A second run is a no-op.
	require.NoError(t, s.ApplyMigrations())
	return s
}

func createUser(t *testing.T, s store.Store, email string) int64 {
	t.Helper()
	id, err := s.Users().CreateUser(t.Context(), domain.User{Name: "n", Email: email, PasswordHash: "h"})
	require.NoError(t, err)
	return id
}

func TestUsers_EmailUniqueIgnoresCase(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	id := createUser(t, s, "Alice@Example.com")

	_, err := s.Users().CreateUser(ctx, domain.User{Name: "x", Email: "alice@example.COM", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	u, err := s.Users().GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "alice@example.com", u.Email)

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_ResetToken(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	now := time.Now()

	id := createUser(t, s, "bob@example.com")
	require.NoError(t, s.Users().SetResetToken(ctx, id, "fp", now.Add(30*time.Minute)))

	u, err := s.Users().GetUserByResetToken(ctx, "fp", now)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)

	_, err = s.Users().GetUserByResetToken(ctx, "fp", now.Add(time.Hour))
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users().ResetPassword(ctx, id, "new-hash"))
	u, err = s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "new-hash", u.PasswordHash)
	require.Nil(t, u.ResetTokenHash)
	require.Nil(t, u.ResetTokenExpires)

	require.ErrorIs(t, s.Users().ResetPassword(ctx, 999, "x"), store.ErrNotFound)
}

func TestRefreshTokens_CompareAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	uid := createUser(t, s, "carol@example.com")

	tok := domain.RefreshToken{ID: idx.New().String(), UserID: uid, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, tok))

	dup := tok
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.RefreshTokens().CreateRefreshToken(ctx, dup), store.ErrAlreadyExists)

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, uid, got.UserID)
	require.WithinDuration(t, tok.ExpiresAt, got.ExpiresAt, time.Millisecond)

	require.NoError(t, s.RefreshTokens().DeleteRefreshToken(ctx, "h1"))
	require.ErrorIs(t, s.RefreshTokens().DeleteRefreshToken(ctx, "h1"), store.ErrNotFound)
}

func TestRefreshTokens_DeleteExpired(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	uid := createUser(t, s, "dave@example.com")
	now := time.Now()

	for i, exp := range []time.Time{now.Add(-time.Minute), now.Add(time.Minute)} {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID: idx.New().String(), UserID: uid, TokenHash: string(rune('a' + i)), ExpiresAt: exp,
		}))
	}

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.RefreshTokens().DeleteUserRefreshTokens(ctx, uid)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestMemberships_AddIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	uid := createUser(t, s, "erin@example.com")
	pid, err := s.Projects().CreateProject(ctx, domain.Project{Name: "p", OwnerID: uid})
	require.NoError(t, err)

	created, err := s.Memberships().AddMember(ctx, domain.Membership{UserID: uid, ProjectID: pid, Role: domain.RoleDeveloper})
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.Memberships().AddMember(ctx, domain.Membership{UserID: uid, ProjectID: pid, Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.False(t, created)

	m, err := s.Memberships().GetMembership(ctx, uid, pid)
	require.NoError(t, err)
	require.Equal(t, domain.RoleDeveloper, m.Role, "existing membership must be left untouched")

	members, err := s.Memberships().ListMembers(ctx, pid)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "erin@example.com", members[0].Email)

	require.NoError(t, s.Memberships().UpdateMemberRole(ctx, uid, pid, domain.RoleGuest))
	require.NoError(t, s.Memberships().RemoveMember(ctx, uid, pid))
	_, err = s.Memberships().GetMembership(ctx, uid, pid)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvitations_OnePendingPerProjectAndEmail(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	admin := createUser(t, s, "admin@example.com")
	pid, err := s.Projects().CreateProject(ctx, domain.Project{Name: "p", OwnerID: admin})
	require.NoError(t, err)

	inv := domain.Invitation{
		ProjectID: pid, Email: "Bob@Example.com", InvitedByID: admin, Role: domain.RoleDeveloper,
		TokenHash: "t1", ExpiresAt: time.Now().Add(time.Hour),
	}
	id, err := s.Invitations().CreateInvitation(ctx, inv)
	require.NoError(t, err)

	inv.TokenHash = "t2"
	inv.Email = "bob@example.com"
	_, err = s.Invitations().CreateInvitation(ctx, inv)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// Once resolved, a fresh invitation is allowed.
	require.NoError(t, s.Invitations().TransitionInvitation(ctx, id, domain.InvitationRejected, nil))
	require.ErrorIs(t, s.Invitations().TransitionInvitation(ctx, id, domain.InvitationAccepted, nil), store.ErrNotFound)

	_, err = s.Invitations().CreateInvitation(ctx, inv)
	require.NoError(t, err)

	all, err := s.Invitations().ListForProject(ctx, pid, store.InvitationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, domain.InvitationPending, all[0].Status, "newest first")

	pending, err := s.Invitations().ListForProject(ctx, pid, store.InvitationFilter{Status: domain.InvitationPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	mine, err := s.Invitations().ListForUser(ctx, 12345, "BOB@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 2)
}

func TestInvitations_Expire(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	admin := createUser(t, s, "admin@example.com")
	pid, err := s.Projects().CreateProject(ctx, domain.Project{Name: "p", OwnerID: admin})
	require.NoError(t, err)

	id, err := s.Invitations().CreateInvitation(ctx, domain.Invitation{
		ProjectID: pid, Email: "late@example.com", InvitedByID: admin, Role: domain.RoleGuest,
		TokenHash: "t", ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	n, err := s.Invitations().ExpireInvitations(ctx, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	inv, err := s.Invitations().GetInvitation(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, inv.Status)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, domain.User{Name: "x", Email: "ghost@example.com", PasswordHash: "h"})
		require.NoError(t, err)

		// Nested transactions are refused.
		require.ErrorIs(t, tx.WithTx(ctx, func(store.Tx) error { return nil }), sql.ErrTxDone)
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.Users().GetUserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistoryAndNotifications(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	uid := createUser(t, s, "hist@example.com")
	pid, err := s.Projects().CreateProject(ctx, domain.Project{Name: "p", OwnerID: uid})
	require.NoError(t, err)

	for _, a := range []domain.HistoryAction{domain.HistoryCreated, domain.HistoryAssigned} {
		_, err := s.History().AppendHistory(ctx, domain.HistoryEntry{UserID: uid, ProjectID: &pid, Action: a})
		require.NoError(t, err)
	}
	entries, err := s.History().ListProjectHistory(ctx, pid, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domain.HistoryAssigned, entries[0].Action)

	_, err = s.Notifications().CreateNotification(ctx, domain.Notification{
		UserID: uid, Type: domain.NotificationInvitation, Message: "hi", RelatedID: &pid,
	})
	require.NoError(t, err)
	ns, err := s.Notifications().ListNotifications(ctx, uid)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.False(t, ns[0].Read)
	require.Equal(t, pid, *ns[0].RelatedID)
}
