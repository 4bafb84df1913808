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

type IngredientRepository interface {
	// Create stores the ingredient with zero stock and, when initial is not
	// nil, books it as the first ledger entry in the same transaction.
	Create(ctx context.Context, ing *model.Ingredient, initial *model.InventoryTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error)
	List(ctx context.Context, search string) ([]model.Ingredient, error)
	// Update never touches current_stock.
	Update(ctx context.Context, ing *model.Ingredient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgIngredientRepo struct{ pool *pgxpool.Pool }

func NewIngredientRepository(pool *pgxpool.Pool) IngredientRepository {
	return &pgIngredientRepo{pool: pool}
}

const ingredientColumns = `id, name, current_stock, unit, minimum_stock, cost_per_unit, expiry_date, created_at, updated_at`

func scanIngredient(row pgx.Row, ing *model.Ingredient) error {
	return row.Scan(&ing.ID, &ing.Name, &ing.CurrentStock, &ing.Unit, &ing.MinimumStock,
		&ing.CostPerUnit, &ing.ExpiryDate, &ing.CreatedAt, &ing.UpdatedAt)
}

func (r *pgIngredientRepo) Create(ctx context.Context, ing *model.Ingredient, initial *model.InventoryTransaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ing.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO ingredients (id, name, current_stock, unit, minimum_stock, cost_per_unit, expiry_date, created_at, updated_at)
		 VALUES ($1, $2, 0, $3, $4, $5, $6, NOW(), NOW()) RETURNING current_stock, created_at, updated_at`,
		ing.ID, ing.Name, ing.Unit, ing.MinimumStock, ing.CostPerUnit, ing.ExpiryDate,
	).Scan(&ing.CurrentStock, &ing.CreatedAt, &ing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}

	if initial != nil {
		initial.IngredientID = ing.ID
		if ing.CurrentStock, err = recordTx(ctx, tx, initial); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ingredient: %w", err)
	}
	return nil
}

func (r *pgIngredientRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error) {
	ing := &model.Ingredient{}
	err := scanIngredient(r.pool.QueryRow(ctx, `SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1`, id), ing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ing, nil
}

func (r *pgIngredientRepo) List(ctx context.Context, search string) ([]model.Ingredient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients
		 WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		 ORDER BY name`, search,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var out []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		if err := scanIngredient(rows, &ing); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

func (r *pgIngredientRepo) Update(ctx context.Context, ing *model.Ingredient) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE ingredients SET name=$2, unit=$3, minimum_stock=$4, cost_per_unit=$5, expiry_date=$6, updated_at=NOW()
		 WHERE id=$1 RETURNING current_stock, updated_at`,
		ing.ID, ing.Name, ing.Unit, ing.MinimumStock, ing.CostPerUnit, ing.ExpiryDate,
	).Scan(&ing.CurrentStock, &ing.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update ingredient: %w", err)
	}
	return nil
}

func (r *pgIngredientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
