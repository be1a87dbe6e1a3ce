package service_test

import (
	"testing"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeeping_Cleanup(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	admin := e.user(t, "Ada", "ada@example.com")
	projectID := e.project(t, admin)
	inv := invite(t, e, admin, projectID, "bob@example.com", domain.RoleGuest)

	register(t, e, "Alice", "alice@example.com", "pw")
	_, err := e.sessions.RecoverPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	e.sessions.Wait()

	hk := service.NewHousekeepingService(e.store, slogx.Discard(), time.Hour)

	// Nothing is due yet.
	res := hk.Cleanup(ctx)
	require.Equal(t, service.CleanupResult{}, res)

	hk.Now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	res = hk.Cleanup(ctx)
	require.EqualValues(t, 1, res.RefreshTokens)
	require.EqualValues(t, 1, res.ResetTokens)
	require.EqualValues(t, 1, res.Invitations)

	got, err := e.store.Invitations().GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, got.Status)
}

func TestHousekeeping_StartStop(t *testing.T) {
	e := newEnv(t)
	hk := service.NewHousekeepingService(e.store, slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	hk.Stop()
}
