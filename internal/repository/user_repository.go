package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// UserRepository is the identity/permission provider: it resolves a
// principal together with its capability tokens and subscription
// preferences.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository builds repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, full_name, role, department_id, password_hash, permissions, subscriptions, is_active, created_at`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanUser(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.scanUser(ctx, query, email)
}

func (r *userRepository) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	var permissions []string
	var subscriptions []string
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Role,
		&user.DepartmentID,
		&user.PasswordHash,
		&permissions,
		&subscriptions,
		&user.IsActive,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	for _, p := range permissions {
		user.Permissions = append(user.Permissions, domain.Permission(p))
	}
	for _, c := range subscriptions {
		user.Subscriptions = append(user.Subscriptions, domain.NotificationCategory(c))
	}
	return &user, nil
}
