package repositories

import (
	"context"
	"database/sql"
	"time"

	"pos_backoffice/internal/models"
)

type userRepository struct {
	exec SQLExecutor
}

const userColumns = `id, username, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var fullName sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &fullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.FullName = nullStringPtr(fullName)
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	err := r.exec.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		u.Username, u.PasswordHash, u.FullName, u.Role, u.IsActive, now,
	).Scan(&u.ID)
	if err != nil {
		return dbError("creating user", err)
	}
	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, dbError("finding user by username", err)
	}
	return u, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	u, err := scanUser(r.exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return nil, dbError("finding user by id", err)
	}
	return u, nil
}
