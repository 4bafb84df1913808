package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/bakery-api/internal/dto"
	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/repository"
)

var (
	ErrIngredientNotFound     = errors.New("ingredient not found")
	ErrInvalidQuantity        = errors.New("quantity must be non-zero")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidPeriod          = errors.New("period must be week, month or year")
	ErrInvalidIngredient      = errors.New("stock, minimum and cost must not be negative")
)

const (
	defaultHistoryLimit = 50
	analyticsLimit      = 10000
	topUsageCount       = 5
)

// InventoryService keeps ingredient stock in step with the transaction
// ledger. Stock only moves through RecordTransaction.
type InventoryService struct {
	ingredients repository.IngredientRepository
	ledger      repository.InventoryRepository
	now         func() time.Time
}

func NewInventoryService(ingredients repository.IngredientRepository, ledger repository.InventoryRepository) *InventoryService {
	return &InventoryService{ingredients: ingredients, ledger: ledger, now: time.Now}
}

func (s *InventoryService) CreateIngredient(ctx context.Context, req dto.CreateIngredientRequest) (*dto.IngredientResponse, error) {
	if req.CurrentStock.IsNegative() || req.MinimumStock.IsNegative() || req.CostPerUnit.IsNegative() {
		return nil, ErrInvalidIngredient
	}
	ing := &model.Ingredient{
		Name:         req.Name,
		Unit:         req.Unit,
		MinimumStock: req.MinimumStock,
		CostPerUnit:  req.CostPerUnit,
		ExpiryDate:   req.ExpiryDate.TimePtr(),
	}

	var initial *model.InventoryTransaction
	if req.CurrentStock.IsPositive() {
		initial = &model.InventoryTransaction{
			Quantity:        model.TransactionManualAddition.SignedDelta(req.CurrentStock),
			TransactionType: model.TransactionManualAddition,
			Notes:           "Initial stock",
		}
	}
	if err := s.ingredients.Create(ctx, ing, initial); err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	resp := s.toIngredientResponse(ing)
	return &resp, nil
}

func (s *InventoryService) GetIngredient(ctx context.Context, id uuid.UUID) (*dto.IngredientResponse, error) {
	ing, err := s.getIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toIngredientResponse(ing)
	return &resp, nil
}

func (s *InventoryService) ListIngredients(ctx context.Context, search string) ([]dto.IngredientResponse, error) {
	ingredients, err := s.ingredients.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	out := make([]dto.IngredientResponse, 0, len(ingredients))
	for i := range ingredients {
		out = append(out, s.toIngredientResponse(&ingredients[i]))
	}
	return out, nil
}

// UpdateIngredient edits descriptive fields only; stock is left alone.
func (s *InventoryService) UpdateIngredient(ctx context.Context, id uuid.UUID, req dto.UpdateIngredientRequest) (*dto.IngredientResponse, error) {
	ing, err := s.getIngredient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		ing.Name = *req.Name
	}
	if req.Unit != nil {
		ing.Unit = *req.Unit
	}
	if req.MinimumStock != nil {
		ing.MinimumStock = *req.MinimumStock
	}
	if req.CostPerUnit != nil {
		ing.CostPerUnit = *req.CostPerUnit
	}
	switch {
	case req.ClearExpiry:
		ing.ExpiryDate = nil
	case req.ExpiryDate != nil:
		ing.ExpiryDate = req.ExpiryDate.TimePtr()
	}
	if ing.MinimumStock.IsNegative() || ing.CostPerUnit.IsNegative() {
		return nil, ErrInvalidIngredient
	}

	if err := s.ingredients.Update(ctx, ing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIngredientNotFound
		}
		return nil, fmt.Errorf("update ingredient: %w", err)
	}
	resp := s.toIngredientResponse(ing)
	return &resp, nil
}

func (s *InventoryService) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	if err := s.ingredients.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrIngredientNotFound
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}
	return nil
}

// RecordTransaction books a stock movement. The stored quantity is always
// signed by type: usage is negative, restock and manual additions positive.
func (s *InventoryService) RecordTransaction(ctx context.Context, req dto.RecordTransactionRequest) (*model.InventoryTransaction, decimal.Decimal, error) {
	txType, err := model.ParseTransactionType(req.TransactionType)
	if err != nil {
		return nil, decimal.Zero, ErrInvalidTransactionType
	}
	if req.Quantity.IsZero() {
		return nil, decimal.Zero, ErrInvalidQuantity
	}

	t := &model.InventoryTransaction{
		IngredientID:    req.IngredientID,
		Quantity:        txType.SignedDelta(req.Quantity),
		TransactionType: txType,
		Notes:           req.Notes,
	}
	stock, err := s.ledger.RecordTransaction(ctx, t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, decimal.Zero, ErrIngredientNotFound
		}
		return nil, decimal.Zero, fmt.Errorf("record transaction: %w", err)
	}
	return t, stock, nil
}

func (s *InventoryService) Reconcile(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	stock, err := s.ledger.Reconcile(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrIngredientNotFound
		}
		return decimal.Zero, fmt.Errorf("reconcile stock: %w", err)
	}
	return stock, nil
}

func (s *InventoryService) History(ctx context.Context, period string, limit int) ([]model.InventoryTransaction, error) {
	p, err := model.ParsePeriod(period)
	if err != nil {
		return nil, ErrInvalidPeriod
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	txs, err := s.ledger.ListTransactions(ctx, p.Since(s.now()), limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ExportCSV writes the period's ledger to w and returns the attachment name.
func (s *InventoryService) ExportCSV(ctx context.Context, w io.Writer, period string) (string, error) {
	p, err := model.ParsePeriod(period)
	if err != nil {
		return "", ErrInvalidPeriod
	}
	now := s.now()
	txs, err := s.ledger.ListTransactions(ctx, p.Since(now), analyticsLimit)
	if err != nil {
		return "", fmt.Errorf("list transactions: %w", err)
	}
	if err := WriteTransactionsCSV(w, txs); err != nil {
		return "", err
	}
	return fmt.Sprintf("inventory-transactions-%s-%s.csv", p, now.Format("2006-01-02")), nil
}

func WriteTransactionsCSV(w io.Writer, txs []model.InventoryTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Ingredient", "Quantity", "Type", "Notes"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		record := []string{
			t.CreatedAt.Format("2006-01-02"),
			t.IngredientName,
			t.Quantity.String() + " " + t.IngredientUnit,
			string(t.TransactionType),
			t.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Usage ranks ingredients by total absolute movement over the period and
// counts transactions per type.
func (s *InventoryService) Usage(ctx context.Context, period string) (*model.InventoryUsage, error) {
	p, err := model.ParsePeriod(period)
	if err != nil {
		return nil, ErrInvalidPeriod
	}
	txs, err := s.ledger.ListTransactions(ctx, p.Since(s.now()), analyticsLimit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	usage := SummarizeUsage(txs)
	usage.Period = p
	return usage, nil
}

func SummarizeUsage(txs []model.InventoryTransaction) *model.InventoryUsage {
	usage := &model.InventoryUsage{TypeCounts: make(map[model.TransactionType]int)}
	byName := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range txs {
		usage.TypeCounts[t.TransactionType]++
		if _, ok := byName[t.IngredientName]; !ok {
			order = append(order, t.IngredientName)
		}
		byName[t.IngredientName] = byName[t.IngredientName].Add(t.Quantity.Abs())
	}

	for _, name := range order {
		usage.TopIngredients = append(usage.TopIngredients, model.IngredientUsage{Name: name, Usage: byName[name]})
	}
	sort.SliceStable(usage.TopIngredients, func(i, j int) bool {
		return usage.TopIngredients[i].Usage.GreaterThan(usage.TopIngredients[j].Usage)
	})
	if len(usage.TopIngredients) > topUsageCount {
		usage.TopIngredients = usage.TopIngredients[:topUsageCount]
	}
	return usage
}

func (s *InventoryService) Health(ctx context.Context) (*model.InventoryHealth, error) {
	ingredients, err := s.ingredients.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	h := model.ComputeHealth(ingredients, s.now())
	return &h, nil
}

func (s *InventoryService) getIngredient(ctx context.Context, id uuid.UUID) (*model.Ingredient, error) {
	ing, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	if ing == nil {
		return nil, ErrIngredientNotFound
	}
	return ing, nil
}

func (s *InventoryService) toIngredientResponse(ing *model.Ingredient) dto.IngredientResponse {
	now := s.now()
	return dto.IngredientResponse{
		ID:           ing.ID,
		Name:         ing.Name,
		CurrentStock: ing.CurrentStock,
		Unit:         ing.Unit,
		MinimumStock: ing.MinimumStock,
		CostPerUnit:  ing.CostPerUnit,
		ExpiryDate:   model.DateFromTime(ing.ExpiryDate),
		StockStatus:  model.GetStockStatus(*ing),
		ExpiringSoon: model.IsExpiringSoon(ing.ExpiryDate, now),
		Expired:      model.IsExpired(ing.ExpiryDate, now),
		CreatedAt:    ing.CreatedAt,
		UpdatedAt:    ing.UpdatedAt,
	}
}
