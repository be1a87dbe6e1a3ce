package sqlite

import (
	"context"
	"database/sql"

	"github.com/fastplanner/planner/internal/api/domain"
)

type historyRepo struct {
	db dbtx
}

func (r *historyRepo) AppendHistory(ctx context.Context, e domain.HistoryEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO change_history (user_id, project_id, task_id, action, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, mapOptionalInt(e.ProjectID), mapOptionalInt(e.TaskID),
		string(e.Action), e.Description, toMillis(nowOr(e.CreatedAt)),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *historyRepo) ListProjectHistory(ctx context.Context, projectID int64, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, project_id, task_id, action, description, created_at
		FROM change_history
		WHERE project_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e             domain.HistoryEntry
			project, task sql.NullInt64
			action        string
			created       int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &project, &task, &action, &e.Description, &created); err != nil {
			return nil, err
		}
		e.ProjectID = mapNullInt(project)
		e.TaskID = mapNullInt(task)
		e.Action = domain.HistoryAction(action)
		e.CreatedAt = fromMillis(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
