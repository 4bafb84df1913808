package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flicky/bakery-api/internal/model"
)

type InventoryRepository interface {
	// RecordTransaction appends t (Quantity already signed) and moves the
	// ingredient's current_stock by the same amount atomically. Returns the
	// new stock, or pgx.ErrNoRows when the ingredient does not exist.
	RecordTransaction(ctx context.Context, t *model.InventoryTransaction) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, since time.Time, limit int) ([]model.InventoryTransaction, error)
	// Reconcile resets current_stock to the ledger sum and returns it.
	Reconcile(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error)
}

type pgInventoryRepo struct{ pool *pgxpool.Pool }

func NewInventoryRepository(pool *pgxpool.Pool) InventoryRepository {
	return &pgInventoryRepo{pool: pool}
}

func (r *pgInventoryRepo) RecordTransaction(ctx context.Context, t *model.InventoryTransaction) (decimal.Decimal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stock, err := recordTx(ctx, tx, t)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit transaction: %w", err)
	}
	return stock, nil
}

func recordTx(ctx context.Context, tx pgx.Tx, t *model.InventoryTransaction) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := tx.QueryRow(ctx,
		`UPDATE ingredients SET current_stock = current_stock + $2, updated_at = NOW()
		 WHERE id = $1 RETURNING current_stock, name, unit`,
		t.IngredientID, t.Quantity,
	).Scan(&stock, &t.IngredientName, &t.IngredientUnit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, pgx.ErrNoRows
		}
		return decimal.Zero, fmt.Errorf("update stock: %w", err)
	}

	t.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO inventory_transactions (id, ingredient_id, quantity, transaction_type, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		t.ID, t.IngredientID, t.Quantity, t.TransactionType, t.Notes,
	).Scan(&t.CreatedAt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("insert inventory transaction: %w", err)
	}
	return stock, nil
}

func (r *pgInventoryRepo) ListTransactions(ctx context.Context, since time.Time, limit int) ([]model.InventoryTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.ingredient_id, COALESCE(i.name, ''), COALESCE(i.unit, ''), t.quantity, t.transaction_type,
		        COALESCE(t.notes, ''), t.created_at
		 FROM inventory_transactions t
		 LEFT JOIN ingredients i ON i.id = t.ingredient_id
		 WHERE t.created_at >= $1
		 ORDER BY t.created_at DESC
		 LIMIT $2`, since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	defer rows.Close()

	var out []model.InventoryTransaction
	for rows.Next() {
		var t model.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.IngredientID, &t.IngredientName, &t.IngredientUnit,
			&t.Quantity, &t.TransactionType, &t.Notes, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *pgInventoryRepo) Reconcile(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`UPDATE ingredients i SET current_stock = COALESCE(
		     (SELECT SUM(quantity) FROM inventory_transactions WHERE ingredient_id = i.id), 0),
		     updated_at = NOW()
		 WHERE i.id = $1 RETURNING current_stock`, ingredientID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, pgx.ErrNoRows
		}
		return decimal.Zero, fmt.Errorf("reconcile stock: %w", err)
	}
	return stock, nil
}
