package postgres

import (
	"context"
	"database/sql"
	"errors"

	directory "factory-ops/internal/directory/domain"
)

// UserRepository is a Postgres view over the plant user directory. The core
// only resolves push recipients from it.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID loads a user, or nil.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*directory.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, name, role, is_active, push_notifications_enabled, created_at
FROM users
WHERE id = $1
LIMIT 1`, id)
	var user directory.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Role,
		&user.Active,
		&user.PushEnabled,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	tokens, err := r.deviceTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.DeviceTokens = tokens
	return &user, nil
}

// ListSupervisorTokens collects device tokens of active supervisors and
// admins with push notifications enabled.
func (r *UserRepository) ListSupervisorTokens(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT t.token
FROM user_device_tokens t
JOIN users u ON u.id = t.user_id
WHERE u.is_active = TRUE
	AND u.push_notifications_enabled = TRUE
	AND u.role IN ('Supervisor', 'Admin')
ORDER BY t.token ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *UserRepository) deviceTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT token
FROM user_device_tokens
WHERE user_id = $1
ORDER BY token ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
