package sqlite

import (
	"context"

	"github.com/fastplanner/planner/internal/api/domain"
)

type projectsRepo struct {
	db dbtx
}

func (r *projectsRepo) CreateProject(ctx context.Context, p domain.Project) (int64, error) {
	now := nowOr(p.CreatedAt)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.OwnerID, toMillis(now), toMillis(now),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *projectsRepo) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	var (
		p                domain.Project
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &created, &updated)
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}
