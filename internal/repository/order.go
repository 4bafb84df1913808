package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/bakery-api/internal/model"
)

type OrderRepository interface {
	// CreateWithItems inserts the order and all of its items in one transaction.
	CreateWithItems(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context, limit int) ([]model.Order, error)
	// UpdateStatus returns pgx.ErrNoRows for a missing order and
	// ErrStatusChanged when the current status does not allow the move.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, user_id, status, total_amount, COALESCE(payment_intent_id, ''), created_at, updated_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *pgOrderRepo) CreateWithItems(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total_amount, payment_intent_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.TotalAmount, order.PaymentIntentID,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		batch.Queue(
			`INSERT INTO order_items (id, order_id, product_id, quantity, price_at_time, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			order.Items[i].ID, order.ID, order.Items[i].ProductID, order.Items[i].Quantity, order.Items[i].PriceAtTime,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *pgOrderRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*model.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1`, paymentIntentID)
}

func (r *pgOrderRepo) getOne(ctx context.Context, query string, arg any) (*model.Order, error) {
	order := &model.Order{}
	if err := scanOrder(r.pool.QueryRow(ctx, query, arg), order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *pgOrderRepo) ListAll(ctx context.Context, limit int) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *pgOrderRepo) list(ctx context.Context, query string, arg any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if err := r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachDetails loads items (with product name and image) and feedback for
// the given orders in two queries.
func (r *pgOrderRepo) attachDetails(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), COALESCE(p.image_url, ''), oi.quantity, oi.price_at_time
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.created_at`, ids,
	)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductImage, &item.Quantity, &item.PriceAtTime); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o := &orders[index[item.OrderID]]
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("get order items: %w", err)
	}

	fbRows, err := r.pool.Query(ctx,
		`SELECT id, order_id, user_id, rating, COALESCE(comment, ''), created_at
		 FROM order_feedback WHERE order_id = ANY($1)`, ids,
	)
	if err != nil {
		return fmt.Errorf("get order feedback: %w", err)
	}
	defer fbRows.Close()

	for fbRows.Next() {
		fb := &model.OrderFeedback{}
		if err := fbRows.Scan(&fb.ID, &fb.OrderID, &fb.UserID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return fmt.Errorf("scan order feedback: %w", err)
		}
		orders[index[fb.OrderID]].Feedback = fb
	}
	return fbRows.Err()
}

// UpdateStatus only writes when the stored status is one the new status may
// follow, so a concurrent change cannot be overwritten.
func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	from := make([]string, 0, 5)
	for _, st := range model.Predecessors(status) {
		from = append(from, string(st))
	}
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = ANY($3)`,
		id, status, from,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrStatusChanged
}
