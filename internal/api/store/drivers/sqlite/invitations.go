package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, project_id, email, invited_user_id, invited_by_id, role,
	token_hash, status, expires_at, created_at, updated_at`

func scanInvitation(row interface{ Scan(...any) error }) (domain.Invitation, error) {
	var (
		inv                       domain.Invitation
		invitedUser               sql.NullInt64
		role, status              string
		expires, created, updated int64
	)
	if err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Email, &invitedUser, &inv.InvitedByID, &role,
		&inv.TokenHash, &status, &expires, &created, &updated); err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.InvitedUserID = mapNullInt(invitedUser)
	inv.Role = domain.Role(role)
	inv.Status = domain.InvitationStatus(status)
	inv.ExpiresAt = fromMillis(expires)
	inv.CreatedAt = fromMillis(created)
	inv.UpdatedAt = fromMillis(updated)
	return inv, nil
}

func (r *invitationsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) (int64, error) {
	now := nowOr(inv.CreatedAt)
	status := inv.Status
	if status == "" {
		status = domain.InvitationPending
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (project_id, email, invited_user_id, invited_by_id, role,
			token_hash, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ProjectID, domain.NormalizeEmail(inv.Email), mapOptionalInt(inv.InvitedUserID), inv.InvitedByID,
		string(inv.Role), inv.TokenHash, string(status), toMillis(inv.ExpiresAt), toMillis(now), toMillis(now),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *invitationsRepo) GetInvitation(ctx context.Context, id int64) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
}

func (r *invitationsRepo) GetPendingInvitation(ctx context.Context, projectID int64, email string) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE project_id = ? AND email = ? AND status = 'PENDING'`,
		projectID, domain.NormalizeEmail(email)))
}

func (r *invitationsRepo) ListForProject(ctx context.Context, projectID int64, f store.InvitationFilter) ([]domain.Invitation, error) {
	if f.Status != "" {
		return r.list(ctx, `
			SELECT `+invitationColumns+` FROM invitations
			WHERE project_id = ? AND status = ?
			ORDER BY created_at DESC, id DESC`, projectID, string(f.Status))
	}
	return r.list(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE project_id = ?
		ORDER BY created_at DESC, id DESC`, projectID)
}

func (r *invitationsRepo) ListForUser(ctx context.Context, userID int64, email string) ([]domain.Invitation, error) {
	return r.list(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE invited_user_id = ? OR email = ?
		ORDER BY created_at DESC, id DESC`, userID, domain.NormalizeEmail(email))
}

func (r *invitationsRepo) TransitionInvitation(
	ctx context.Context,
	id int64,
	status domain.InvitationStatus,
	invitedUserID *int64,
) error {
	return requireOne(r.db.ExecContext(ctx, `
		UPDATE invitations
		SET status = ?, invited_user_id = COALESCE(?, invited_user_id), updated_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		string(status), mapOptionalInt(invitedUserID), toMillis(time.Now()), id,
	))
}

func (r *invitationsRepo) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'EXPIRED', updated_at = ?
		WHERE status = 'PENDING' AND expires_at <= ?`,
		toMillis(now), toMillis(now)))
}
