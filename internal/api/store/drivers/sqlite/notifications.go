package sqlite

import (
	"context"
	"database/sql"

	"github.com/fastplanner/planner/internal/api/domain"
)

type notificationsRepo struct {
	db dbtx
}

func (r *notificationsRepo) CreateNotification(ctx context.Context, n domain.Notification) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, message, related_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.UserID, string(n.Type), n.Message, mapOptionalInt(n.RelatedID), toMillis(nowOr(n.CreatedAt)),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *notificationsRepo) ListNotifications(ctx context.Context, userID int64) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, message, related_id, read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var (
			n       domain.Notification
			typ     string
			related sql.NullInt64
			created int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Message, &related, &n.Read, &created); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(typ)
		n.RelatedID = mapNullInt(related)
		n.CreatedAt = fromMillis(created)
		out = append(out, n)
	}
	return out, rows.Err()
}
