package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/bakery-api/internal/model"
)

type FeedbackRepository interface {
	// Create returns ErrDuplicate when the user already rated the order.
	Create(ctx context.Context, fb *model.OrderFeedback) error
}

type pgFeedbackRepo struct{ pool *pgxpool.Pool }

func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &pgFeedbackRepo{pool: pool}
}

func (r *pgFeedbackRepo) Create(ctx context.Context, fb *model.OrderFeedback) error {
	fb.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO order_feedback (id, order_id, user_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		fb.ID, fb.OrderID, fb.UserID, fb.Rating, fb.Comment,
	).Scan(&fb.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
