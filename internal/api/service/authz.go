package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/pkg/slogx"
)

type capability struct {
	resource domain.Resource
	action   domain.Action
}

type roleSet map[domain.Role]struct{}

func roles(rs ...domain.Role) roleSet {
	set := make(roleSet, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

var (
	everyone   = roles(domain.RoleAdmin, domain.RoleDeveloper, domain.RoleGuest)
	developers = roles(domain.RoleAdmin, domain.RoleDeveloper)
	adminsOnly = roles(domain.RoleAdmin)
)

// capabilities is the whole permission model. A pair that is not listed is
// denied.
var capabilities = map[capability]roleSet{
	{domain.ResourceProject, domain.ActionView}:          everyone,
	{domain.ResourceProject, domain.ActionEdit}:          developers,
	{domain.ResourceProject, domain.ActionDelete}:        adminsOnly,
	{domain.ResourceProject, domain.ActionManageTags}:    adminsOnly,
	{domain.ResourceProject, domain.ActionViewMembers}:   developers,
	{domain.ResourceProject, domain.ActionManageMembers}: adminsOnly,

	{domain.ResourceTask, domain.ActionView}:   everyone,
	{domain.ResourceTask, domain.ActionEdit}:   developers,
	{domain.ResourceTask, domain.ActionDelete}: adminsOnly,

	{domain.ResourceInvitation, domain.ActionView}:   adminsOnly,
	{domain.ResourceInvitation, domain.ActionCreate}: adminsOnly,

	{domain.ResourceHistory, domain.ActionView}: everyone,
}

// Allowed reports whether role may perform action on resource. An empty
// role is evaluated as guest.
func Allowed(role domain.Role, resource domain.Resource, action domain.Action) bool {
	if role == "" {
		role = domain.RoleGuest
	}
	set, ok := capabilities[capability{resource, action}]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

// AuthzService resolves project roles from current membership. Nothing is
// cached; every check reads the store.
type AuthzService struct {
	Store store.Store
}

// RoleOf returns the user's role in the project. ok is false when the user
// is not a member.
func (s *AuthzService) RoleOf(ctx context.Context, userID, projectID int64) (domain.Role, bool, error) {
	return roleOf(ctx, s.Store, userID, projectID)
}

// Allowed is the package-level Allowed, exposed on the service for handlers.
func (s *AuthzService) Allowed(role domain.Role, resource domain.Resource, action domain.Action) bool {
	return Allowed(role, resource, action)
}

// Authorize combines RoleOf and Allowed. It returns the resolved role, or
// ErrNotAMember or ErrInsufficientRole.
func (s *AuthzService) Authorize(
	ctx context.Context,
	userID, projectID int64,
	resource domain.Resource,
	action domain.Action,
) (domain.Role, error) {
	log := slogx.FromContext(ctx).With(
		slog.Int64("user_id", userID),
		slog.Int64("project_id", projectID),
		slog.String("resource", string(resource)),
		slog.String("action", string(action)),
	)

	role, ok, err := s.RoleOf(ctx, userID, projectID)
	if err != nil {
		return "", err
	}
	if !ok {
		log.Warn("access denied", slog.String("reason", "not_a_member"))
		return "", ErrNotAMember
	}
	if !Allowed(role, resource, action) {
		log.Warn("access denied", slog.String("reason", "insufficient_role"), slog.String("role", role.String()))
		return role, ErrInsufficientRole
	}
	return role, nil
}

func roleOf(ctx context.Context, st store.Store, userID, projectID int64) (domain.Role, bool, error) {
	m, err := st.Memberships().GetMembership(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, internal("lookup membership", err)
	}
	return m.Role, true, nil
}
