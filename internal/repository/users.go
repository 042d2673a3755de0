package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	args := []any{user.Email, user.Username, user.PasswordHash, user.Role}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT email, username, password_hash, role, created_at
		FROM users WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByLogin matches identifier against email or username, preferring an email match.
func (r *Repository) GetUserByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT id, email, username, password_hash, role, created_at
		FROM users WHERE email = $1 OR username = $1
		ORDER BY (email = $1) DESC
		LIMIT 1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{}
	dst := []any{&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, identifier).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) ListUsers(ctx context.Context, includeBosses bool) ([]*domain.User, error) {
	query := `
		SELECT id, email, username, role, created_at FROM users
		WHERE $1 OR role = 'EMPLOYEE'
		ORDER BY created_at DESC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, includeBosses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Email, &user.Username, &user.Role, &user.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
