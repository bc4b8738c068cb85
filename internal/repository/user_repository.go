package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/social-login/internal/domain"
)

// UserRepository defines persistence access for the user directory.
type UserRepository interface {
	RecordLogin(ctx context.Context, login domain.UserLogin) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) RecordLogin(ctx context.Context, login domain.UserLogin) (*domain.User, error) {
	const query = `
        INSERT INTO users (email, display_name, provider, first_login_at, last_login_at, login_count)
        VALUES ($1, $2, $3, $4, $4, 1)
        ON CONFLICT (email) DO UPDATE SET
            display_name = CASE WHEN EXCLUDED.display_name = '' THEN users.display_name ELSE EXCLUDED.display_name END,
            provider = EXCLUDED.provider,
            last_login_at = EXCLUDED.last_login_at,
            login_count = users.login_count + 1
        RETURNING email, display_name, provider, first_login_at, last_login_at, login_count`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query,
		login.Email,
		login.DisplayName,
		login.Provider,
		login.At,
	).Scan(
		&user.Email,
		&user.DisplayName,
		&user.Provider,
		&user.FirstLoginAt,
		&user.LastLoginAt,
		&user.LoginCount,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
