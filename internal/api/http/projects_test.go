package http_test

import (
	"net/http"
	"testing"

	"github.com/fastplanner/planner/pkg/plannersdk"
	"github.com/stretchr/testify/require"
)

func TestProjects_InviteAcceptFlow(t *testing.T) {
	s := newServer(t)
	ctx := t.Context()

	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")

	project, err := alice.CreateProject(ctx, plannersdk.CreateProjectRequest{Name: "Apollo", Description: "moon shot"})
	require.NoError(t, err)
	require.Equal(t, alice.User().ID, project.OwnerID)

	// Bob is a stranger to the project.
	_, err = bob.GetProject(ctx, project.ID)
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeForbidden)

	_, err = bob.Invite(ctx, project.ID, plannersdk.CreateInvitationRequest{Email: "carol@example.com"})
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeNotProjectAdmin)

	inv, err := alice.Invite(ctx, project.ID, plannersdk.CreateInvitationRequest{Email: "Bob@example.com", Role: "guest"})
	require.NoError(t, err)
	require.Equal(t, "PENDING", inv.Status)
	require.Equal(t, "guest", inv.Role)

	_, err = alice.Invite(ctx, project.ID, plannersdk.CreateInvitationRequest{Email: "bob@example.com"})
	requireCode(t, err, http.StatusConflict, plannersdk.CodeDuplicatePending)

	notes, err := bob.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, inv.ID, *notes[0].RelatedID)

	mine, err := bob.ListMyInvitations(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	// Alice cannot accept on Bob's behalf.
	err = alice.AcceptInvitation(ctx, inv.ID)
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeForbidden)

	require.NoError(t, bob.AcceptInvitation(ctx, inv.ID))

	err = bob.AcceptInvitation(ctx, inv.ID)
	requireCode(t, err, http.StatusConflict, plannersdk.CodeInvitationNotPending)
	err = bob.RejectInvitation(ctx, inv.ID)
	requireCode(t, err, http.StatusConflict, plannersdk.CodeInvitationNotPending)
	err = bob.AcceptInvitation(ctx, inv.ID+100)
	requireCode(t, err, http.StatusNotFound, plannersdk.CodeNotFound)

	got, err := bob.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, "Apollo", got.Name)

	// A guest may view but not list members.
	_, err = bob.ListMembers(ctx, project.ID)
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeForbidden)

	members, err := alice.ListMembers(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	history, err := bob.ListHistory(ctx, project.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	require.Contains(t, actions, "ASSIGNED")
	require.Contains(t, actions, "CREATED")

	accepted, err := alice.ListProjectInvitations(ctx, project.ID, "accepted")
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	pending, err := alice.ListProjectInvitations(ctx, project.ID, "PENDING")
	require.NoError(t, err)
	require.Empty(t, pending)

	_, err = alice.ListProjectInvitations(ctx, project.ID, "bogus")
	requireCode(t, err, http.StatusBadRequest, plannersdk.CodeValidation)
}

func TestProjects_InviteBeforeRegistration(t *testing.T) {
	s := newServer(t)
	ctx := t.Context()

	alice := s.register(t, "Alice", "alice@example.com")
	project, err := alice.CreateProject(ctx, plannersdk.CreateProjectRequest{Name: "Apollo"})
	require.NoError(t, err)

	inv, err := alice.Invite(ctx, project.ID, plannersdk.CreateInvitationRequest{Email: "dave@example.com"})
	require.NoError(t, err)
	require.Nil(t, inv.InvitedUserID)
	require.Equal(t, "developer", inv.Role)

	dave := s.register(t, "Dave", "dave@example.com")
	mine, err := dave.ListMyInvitations(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, dave.RejectInvitation(ctx, inv.ID))

	_, err = dave.GetProject(ctx, project.ID)
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeForbidden)
}

func TestProjects_MemberManagement(t *testing.T) {
	s := newServer(t)
	ctx := t.Context()

	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")
	project, err := alice.CreateProject(ctx, plannersdk.CreateProjectRequest{Name: "Apollo"})
	require.NoError(t, err)

	inv, err := alice.Invite(ctx, project.ID, plannersdk.CreateInvitationRequest{Email: "bob@example.com"})
	require.NoError(t, err)
	require.NoError(t, bob.AcceptInvitation(ctx, inv.ID))

	// A developer cannot manage members.
	err = bob.UpdateMemberRole(ctx, project.ID, alice.User().ID, "guest")
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeForbidden)

	err = alice.UpdateMemberRole(ctx, project.ID, bob.User().ID, "owner")
	requireCode(t, err, http.StatusBadRequest, plannersdk.CodeValidation)

	require.NoError(t, alice.UpdateMemberRole(ctx, project.ID, bob.User().ID, "admin"))

	err = alice.RemoveMember(ctx, project.ID, bob.User().ID)
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeAdminProtected)

	require.NoError(t, bob.UpdateMemberRole(ctx, project.ID, bob.User().ID, "developer"))
	require.NoError(t, alice.RemoveMember(ctx, project.ID, bob.User().ID))

	err = alice.RemoveMember(ctx, project.ID, bob.User().ID)
	requireCode(t, err, http.StatusNotFound, plannersdk.CodeNotFound)

	_, err = bob.GetProject(ctx, project.ID)
	requireCode(t, err, http.StatusForbidden, plannersdk.CodeForbidden)
}
