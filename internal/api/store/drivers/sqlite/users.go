package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, password_hash, profile_picture,
	reset_token_hash, reset_token_expires, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                  domain.User
		picture, resetHash sql.NullString
		resetExpires       sql.NullInt64
		created, updated   int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &picture,
		&resetHash, &resetExpires, &created, &updated); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.ProfilePicture = mapNullString(picture)
	u.ResetTokenHash = mapNullString(resetHash)
	u.ResetTokenExpires = mapNullMillis(resetExpires)
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	now := nowOr(u.CreatedAt)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, profile_picture, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, domain.NormalizeEmail(u.Email), u.PasswordHash, mapOptionalString(u.ProfilePicture),
		toMillis(now), toMillis(now),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email)))
}

func (r *usersRepo) SetResetToken(ctx context.Context, userID int64, hash string, expiresAt time.Time) error {
	return requireOne(r.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash = ?, reset_token_expires = ?, updated_at = ?
		WHERE id = ?`,
		hash, toMillis(expiresAt), toMillis(time.Now()), userID,
	))
}

func (r *usersRepo) GetUserByResetToken(ctx context.Context, hash string, now time.Time) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE reset_token_hash = ? AND reset_token_expires > ?`,
		hash, toMillis(now)))
}

func (r *usersRepo) ResetPassword(ctx context.Context, userID int64, passwordHash string) error {
	return requireOne(r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = ?
		WHERE id = ?`,
		passwordHash, toMillis(time.Now()), userID,
	))
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL
		WHERE reset_token_hash IS NOT NULL AND reset_token_expires <= ?`,
		toMillis(now)))
}
