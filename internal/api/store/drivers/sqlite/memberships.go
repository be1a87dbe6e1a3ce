package sqlite

import (
	"context"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
)

type membershipsRepo struct {
	db dbtx
}

func (r *membershipsRepo) GetMembership(ctx context.Context, userID, projectID int64) (domain.Membership, error) {
	var (
		m                domain.Membership
		role             string
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, project_id, role, created_at, updated_at
		FROM project_members WHERE user_id = ? AND project_id = ?`, userID, projectID,
	).Scan(&m.UserID, &m.ProjectID, &role, &created, &updated)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = domain.Role(role)
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	return m, nil
}

func (r *membershipsRepo) AddMember(ctx context.Context, m domain.Membership) (bool, error) {
	now := nowOr(m.CreatedAt)
	n, err := rowsAffected(r.db.ExecContext(ctx, `
		INSERT INTO project_members (user_id, project_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, project_id) DO NOTHING`,
		m.UserID, m.ProjectID, string(m.Role), toMillis(now), toMillis(now),
	))
	if err != nil {
		return false, mapConstraint(err)
	}
	return n == 1, nil
}

func (r *membershipsRepo) ListMembers(ctx context.Context, projectID int64) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.user_id, m.project_id, m.role, m.created_at, m.updated_at, u.name, u.email
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = ?
		ORDER BY m.created_at, m.user_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var (
			m                domain.Member
			role             string
			created, updated int64
		)
		if err := rows.Scan(&m.UserID, &m.ProjectID, &role, &created, &updated, &m.Name, &m.Email); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		m.CreatedAt = fromMillis(created)
		m.UpdatedAt = fromMillis(updated)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) UpdateMemberRole(ctx context.Context, userID, projectID int64, role domain.Role) error {
	return requireOne(r.db.ExecContext(ctx, `
		UPDATE project_members SET role = ?, updated_at = ?
		WHERE user_id = ? AND project_id = ?`,
		string(role), toMillis(time.Now()), userID, projectID,
	))
}

func (r *membershipsRepo) RemoveMember(ctx context.Context, userID, projectID int64) error {
	return requireOne(r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE user_id = ? AND project_id = ?`, userID, projectID))
}
