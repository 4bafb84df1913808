package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepository interface {
	// GetRole returns "" when the user has no row in user_roles.
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}

type pgRoleRepo struct{ pool *pgxpool.Pool }

func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &pgRoleRepo{pool: pool}
}

func (r *pgRoleRepo) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1`, userID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}
