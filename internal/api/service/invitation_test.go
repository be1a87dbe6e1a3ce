package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/stretchr/testify/require"
)

func invite(t *testing.T, e *testEnv, admin domain.Identity, projectID int64, email string, role domain.Role) domain.Invitation {
	t.Helper()
	inv, err := e.invitations.Create(t.Context(), service.CreateInvitationInput{
		ProjectID:   projectID,
		RequesterID: admin.UserID,
		Email:       email,
		Role:        role,
	})
	require.NoError(t, err)
	return inv
}

func countHistory(t *testing.T, e *testEnv, projectID int64, action domain.HistoryAction) int {
	t.Helper()
	entries, err := e.history.ListForProject(t.Context(), projectID, 0)
	require.NoError(t, err)
	n := 0
	for _, h := range entries {
		if h.Action == action {
			n++
		}
	}
	return n
}

func TestInvitation_InviteBeforeRegistration(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	projectID := e.project(t, admin)

	inv := invite(t, e, admin, projectID, "Bob@Example.com", domain.RoleDeveloper)
	require.Equal(t, "bob@example.com", inv.Email)
	require.Equal(t, domain.InvitationPending, inv.Status)
	require.Nil(t, inv.InvitedUserID)
	require.WithinDuration(t, time.Now().Add(domain.DefaultInvitationTTL), inv.ExpiresAt, time.Minute)

	sess, err := e.sessions.Register(ctx, service.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	bob := domain.Identity{UserID: sess.User.ID, Email: sess.User.Email}

	mine, err := e.invitations.ListForSelf(ctx, bob.UserID, bob.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, inv.ID, mine[0].ID)

	require.NoError(t, e.invitations.Accept(ctx, inv.ID, bob))

	role, ok, err := e.authz.RoleOf(ctx, bob.UserID, projectID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.RoleDeveloper, role)

	got, err := e.store.Invitations().GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationAccepted, got.Status)
	require.NotNil(t, got.InvitedUserID)
	require.Equal(t, bob.UserID, *got.InvitedUserID)
	require.Equal(t, 1, countHistory(t, e, projectID, domain.HistoryAssigned))
}

func TestInvitation_NonAdminCannotInvite(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	dev := e.user(t, "Dev", "dev@example.com")
	stranger := e.user(t, "Eve", "eve@example.com")
	projectID := e.project(t, admin)
	e.join(t, dev, projectID, domain.RoleDeveloper)

	for _, who := range []domain.Identity{dev, stranger} {
		_, err := e.invitations.Create(ctx, service.CreateInvitationInput{
			ProjectID:   projectID,
			RequesterID: who.UserID,
			Email:       "carol@example.com",
		})
		require.ErrorIs(t, err, service.ErrNotProjectAdmin)
	}

	list, err := e.invitations.ListForProject(ctx, projectID, "")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestInvitation_OnePendingPerEmail(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	projectID := e.project(t, admin)

	first := invite(t, e, admin, projectID, "carol@example.com", "")
	require.Equal(t, domain.RoleDeveloper, first.Role)

	_, err := e.invitations.Create(ctx, service.CreateInvitationInput{
		ProjectID:   projectID,
		RequesterID: admin.UserID,
		Email:       "CAROL@example.com",
		Role:        domain.RoleGuest,
	})
	require.ErrorIs(t, err, service.ErrDuplicatePending)

	_, err = e.invitations.Create(ctx, service.CreateInvitationInput{
		ProjectID:   projectID,
		RequesterID: admin.UserID,
		Email:       "dave@example.com",
		Role:        domain.Role("owner"),
	})
	require.ErrorIs(t, err, service.ErrValidation)

	t.Run("stale invitation does not block a new one", func(t *testing.T) {
		e.invitations.Now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
		defer func() { e.invitations.Now = nil }()

		second := invite(t, e, admin, projectID, "carol@example.com", domain.RoleGuest)
		require.NotEqual(t, first.ID, second.ID)

		old, err := e.store.Invitations().GetInvitation(ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationExpired, old.Status)
	})

	t.Run("status filter", func(t *testing.T) {
		pending, err := e.invitations.ListForProject(ctx, projectID, domain.InvitationPending)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		all, err := e.invitations.ListForProject(ctx, projectID, "")
		require.NoError(t, err)
		require.Len(t, all, 2)

		_, err = e.invitations.ListForProject(ctx, projectID, "BOGUS")
		require.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestInvitation_NotifiesRegisteredUser(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	bob := e.user(t, "Bob", "bob@example.com")
	projectID := e.project(t, admin)

	inv := invite(t, e, admin, projectID, "bob@example.com", domain.RoleGuest)
	require.NotNil(t, inv.InvitedUserID)
	require.Equal(t, bob.UserID, *inv.InvitedUserID)

	notes, err := (&service.NotificationService{Store: e.store}).ListForUser(ctx, bob.UserID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, domain.NotificationInvitation, notes[0].Type)
	require.Equal(t, inv.ID, *notes[0].RelatedID)
	require.Contains(t, notes[0].Message, "Apollo")
}

func TestInvitation_AcceptTwice(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	bob := e.user(t, "Bob", "bob@example.com")
	projectID := e.project(t, admin)
	inv := invite(t, e, admin, projectID, bob.Email, domain.RoleGuest)

	require.NoError(t, e.invitations.Accept(ctx, inv.ID, bob))
	require.ErrorIs(t, e.invitations.Accept(ctx, inv.ID, bob), service.ErrInvitationNotPending)
	require.ErrorIs(t, e.invitations.Reject(ctx, inv.ID, bob), service.ErrInvitationNotPending)

	role, ok, err := e.authz.RoleOf(ctx, bob.UserID, projectID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.RoleGuest, role)
}

func TestInvitation_AcceptKeepsExistingMembership(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	bob := e.user(t, "Bob", "bob@example.com")
	projectID := e.project(t, admin)
	inv := invite(t, e, admin, projectID, bob.Email, domain.RoleDeveloper)
	e.join(t, bob, projectID, domain.RoleGuest)

	require.NoError(t, e.invitations.Accept(ctx, inv.ID, bob))

	role, _, err := e.authz.RoleOf(ctx, bob.UserID, projectID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleGuest, role)
}

func TestInvitation_ConcurrentAccept(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	bob := e.user(t, "Bob", "bob@example.com")
	projectID := e.project(t, admin)
	inv := invite(t, e, admin, projectID, bob.Email, domain.RoleDeveloper)

	const n = 4
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = e.invitations.Accept(ctx, inv.ID, bob)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, service.ErrInvitationNotPending)
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, countHistory(t, e, projectID, domain.HistoryAssigned))

	members, err := e.members.List(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestInvitation_AcceptChecks(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	bob := e.user(t, "Bob", "bob@example.com")
	eve := e.user(t, "Eve", "eve@example.com")
	projectID := e.project(t, admin)
	inv := invite(t, e, admin, projectID, bob.Email, domain.RoleDeveloper)

	t.Run("unknown invitation", func(t *testing.T) {
		require.ErrorIs(t, e.invitations.Accept(ctx, 9999, bob), service.ErrInvitationNotFound)
	})

	t.Run("someone else", func(t *testing.T) {
		require.ErrorIs(t, e.invitations.Accept(ctx, inv.ID, eve), service.ErrInvitationUnauthorized)
		require.ErrorIs(t, e.invitations.Reject(ctx, inv.ID, eve), service.ErrInvitationUnauthorized)

		_, ok, err := e.authz.RoleOf(ctx, eve.UserID, projectID)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("matching email without bound id", func(t *testing.T) {
		other := invite(t, e, admin, projectID, "newcomer@example.com", domain.RoleGuest)
		newcomer := e.user(t, "New", "newcomer@example.com")
		require.NoError(t, e.invitations.Reject(ctx, other.ID, newcomer))

		got, err := e.store.Invitations().GetInvitation(ctx, other.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationRejected, got.Status)

		_, ok, err := e.authz.RoleOf(ctx, newcomer.UserID, projectID)
		require.NoError(t, err)
		require.False(t, ok)
	})

	got, err := e.store.Invitations().GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationPending, got.Status)
}

func TestInvitation_Expired(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	bob := e.user(t, "Bob", "bob@example.com")
	projectID := e.project(t, admin)
	inv := invite(t, e, admin, projectID, bob.Email, domain.RoleDeveloper)

	e.invitations.Now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	require.ErrorIs(t, e.invitations.Accept(ctx, inv.ID, bob), service.ErrInvitationExpired)

	got, err := e.store.Invitations().GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, got.Status)

	require.ErrorIs(t, e.invitations.Accept(ctx, inv.ID, bob), service.ErrInvitationNotPending)

	_, ok, err := e.authz.RoleOf(ctx, bob.UserID, projectID)
	require.NoError(t, err)
	require.False(t, ok)
}
