package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/bakery-api/internal/dto"
	"github.com/flicky/bakery-api/internal/model"
)

// mockPantry backs both the ingredient and ledger interfaces so stock and
// transactions stay in one place, as they do in the database.
type mockPantry struct {
	ingredients map[uuid.UUID]*model.Ingredient
	txs         []model.InventoryTransaction
	clock       time.Time
}

func newMockPantry(now time.Time) *mockPantry {
	return &mockPantry{ingredients: make(map[uuid.UUID]*model.Ingredient), clock: now}
}

func (m *mockPantry) Create(ctx context.Context, ing *model.Ingredient, initial *model.InventoryTransaction) error {
	ing.ID = uuid.New()
	ing.CurrentStock = decimal.Zero
	m.ingredients[ing.ID] = ing
	if initial != nil {
		initial.IngredientID = ing.ID
		stock, err := m.RecordTransaction(ctx, initial)
		if err != nil {
			return err
		}
		ing.CurrentStock = stock
	}
	return nil
}

func (m *mockPantry) GetByID(_ context.Context, id uuid.UUID) (*model.Ingredient, error) {
	ing, ok := m.ingredients[id]
	if !ok {
		return nil, nil
	}
	cp := *ing
	return &cp, nil
}

func (m *mockPantry) List(_ context.Context, _ string) ([]model.Ingredient, error) {
	var out []model.Ingredient
	for _, ing := range m.ingredients {
		out = append(out, *ing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockPantry) Update(_ context.Context, ing *model.Ingredient) error {
	existing, ok := m.ingredients[ing.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	ing.CurrentStock = existing.CurrentStock
	cp := *ing
	m.ingredients[ing.ID] = &cp
	return nil
}

func (m *mockPantry) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.ingredients[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.ingredients, id)
	return nil
}

func (m *mockPantry) RecordTransaction(_ context.Context, t *model.InventoryTransaction) (decimal.Decimal, error) {
	ing, ok := m.ingredients[t.IngredientID]
	if !ok {
		return decimal.Zero, pgx.ErrNoRows
	}
	ing.CurrentStock = ing.CurrentStock.Add(t.Quantity)
	t.ID = uuid.New()
	t.IngredientName = ing.Name
	t.IngredientUnit = ing.Unit
	t.CreatedAt = m.clock
	m.txs = append(m.txs, *t)
	return ing.CurrentStock, nil
}

func (m *mockPantry) ListTransactions(_ context.Context, since time.Time, limit int) ([]model.InventoryTransaction, error) {
	var out []model.InventoryTransaction
	for i := len(m.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if !m.txs[i].CreatedAt.Before(since) {
			out = append(out, m.txs[i])
		}
	}
	return out, nil
}

func (m *mockPantry) Reconcile(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	ing, ok := m.ingredients[id]
	if !ok {
		return decimal.Zero, pgx.ErrNoRows
	}
	sum := decimal.Zero
	for _, t := range m.txs {
		if t.IngredientID == id {
			sum = sum.Add(t.Quantity)
		}
	}
	ing.CurrentStock = sum
	return sum, nil
}

var inventoryNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestInventoryService() (*InventoryService, *mockPantry) {
	pantry := newMockPantry(inventoryNow)
	svc := NewInventoryService(pantry, pantry)
	svc.now = func() time.Time { return inventoryNow }
	return svc, pantry
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestInventoryService_CreateIngredient_BooksInitialStock(t *testing.T) {
	svc, pantry := newTestInventoryService()

	resp, err := svc.CreateIngredient(context.Background(), dto.CreateIngredientRequest{
		Name: "Flour", Unit: "kg", CurrentStock: dec("25"), MinimumStock: dec("5"), CostPerUnit: dec("1.20"),
	})
	require.NoError(t, err)
	assert.True(t, dec("25").Equal(resp.CurrentStock))
	assert.Equal(t, model.StockIn, resp.StockStatus)

	require.Len(t, pantry.txs, 1)
	assert.Equal(t, model.TransactionManualAddition, pantry.txs[0].TransactionType)
	assert.Equal(t, "Initial stock", pantry.txs[0].Notes)
}

func TestInventoryService_CreateIngredient_ZeroStockHasNoLedgerEntry(t *testing.T) {
	svc, pantry := newTestInventoryService()
	resp, err := svc.CreateIngredient(context.Background(), dto.CreateIngredientRequest{Name: "Yeast", Unit: "g"})
	require.NoError(t, err)
	assert.Equal(t, model.StockOut, resp.StockStatus)
	assert.Empty(t, pantry.txs)

	_, err = svc.CreateIngredient(context.Background(), dto.CreateIngredientRequest{Name: "Salt", Unit: "g", CurrentStock: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidIngredient)
}

func TestInventoryService_RecordTransaction_SignsByType(t *testing.T) {
	svc, pantry := newTestInventoryService()
	ctx := context.Background()
	flour, err := svc.CreateIngredient(ctx, dto.CreateIngredientRequest{Name: "Flour", Unit: "kg", CurrentStock: dec("20")})
	require.NoError(t, err)

	tx, stock, err := svc.RecordTransaction(ctx, dto.RecordTransactionRequest{
		IngredientID: flour.ID, Quantity: dec("5"), TransactionType: "order_usage", Notes: "Morning bake",
	})
	require.NoError(t, err)
	assert.True(t, dec("-5").Equal(tx.Quantity))
	assert.True(t, dec("15").Equal(stock))

	_, stock, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{
		IngredientID: flour.ID, Quantity: dec("-10"), TransactionType: "restock",
	})
	require.NoError(t, err)
	assert.True(t, dec("25").Equal(stock))

	sum := decimal.Zero
	for _, entry := range pantry.txs {
		sum = sum.Add(entry.Quantity)
	}
	assert.True(t, sum.Equal(pantry.ingredients[flour.ID].CurrentStock))
}

func TestInventoryService_RecordTransaction_Validation(t *testing.T) {
	svc, _ := newTestInventoryService()
	ctx := context.Background()

	_, _, err := svc.RecordTransaction(ctx, dto.RecordTransactionRequest{IngredientID: uuid.New(), Quantity: dec("1"), TransactionType: "spillage"})
	assert.ErrorIs(t, err, ErrInvalidTransactionType)

	_, _, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{IngredientID: uuid.New(), Quantity: decimal.Zero, TransactionType: "restock"})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{IngredientID: uuid.New(), Quantity: dec("1"), TransactionType: "restock"})
	assert.ErrorIs(t, err, ErrIngredientNotFound)
}

func TestInventoryService_UpdateIngredient_LeavesStock(t *testing.T) {
	svc, _ := newTestInventoryService()
	ctx := context.Background()
	butter, err := svc.CreateIngredient(ctx, dto.CreateIngredientRequest{Name: "Butter", Unit: "kg", CurrentStock: dec("8")})
	require.NoError(t, err)

	name := "Cultured butter"
	expiry := model.NewDate(inventoryNow.AddDate(0, 0, 3))
	resp, err := svc.UpdateIngredient(ctx, butter.ID, dto.UpdateIngredientRequest{Name: &name, ExpiryDate: &expiry})
	require.NoError(t, err)
	assert.Equal(t, "Cultured butter", resp.Name)
	assert.True(t, dec("8").Equal(resp.CurrentStock))
	assert.True(t, resp.ExpiringSoon)
	assert.False(t, resp.Expired)

	resp, err = svc.UpdateIngredient(ctx, butter.ID, dto.UpdateIngredientRequest{ClearExpiry: true})
	require.NoError(t, err)
	assert.Nil(t, resp.ExpiryDate)

	_, err = svc.UpdateIngredient(ctx, uuid.New(), dto.UpdateIngredientRequest{Name: &name})
	assert.ErrorIs(t, err, ErrIngredientNotFound)
}

func TestInventoryService_Reconcile(t *testing.T) {
	svc, pantry := newTestInventoryService()
	ctx := context.Background()
	sugar, err := svc.CreateIngredient(ctx, dto.CreateIngredientRequest{Name: "Sugar", Unit: "kg", CurrentStock: dec("10")})
	require.NoError(t, err)

	pantry.ingredients[sugar.ID].CurrentStock = dec("999")
	stock, err := svc.Reconcile(ctx, sugar.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(stock))

	_, err = svc.Reconcile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrIngredientNotFound)
}

func TestInventoryService_ExportCSV(t *testing.T) {
	svc, _ := newTestInventoryService()
	ctx := context.Background()
	flour, err := svc.CreateIngredient(ctx, dto.CreateIngredientRequest{Name: "Flour", Unit: "kg", CurrentStock: dec("20")})
	require.NoError(t, err)
	_, _, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{
		IngredientID: flour.ID, Quantity: dec("5"), TransactionType: "order_usage", Notes: "Loaves, rolls",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := svc.ExportCSV(ctx, &buf, "week")
	require.NoError(t, err)
	assert.Equal(t, "inventory-transactions-week-2024-03-10.csv", name)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Date", "Ingredient", "Quantity", "Type", "Notes"}, records[0])
	assert.Equal(t, []string{"2024-03-10", "Flour", "-5 kg", "order_usage", "Loaves, rolls"}, records[1])
	assert.Equal(t, "20 kg", records[2][2])

	_, err = svc.ExportCSV(ctx, &buf, "decade")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSummarizeUsage(t *testing.T) {
	var txs []model.InventoryTransaction
	add := func(name string, qty string, typ model.TransactionType) {
		txs = append(txs, model.InventoryTransaction{IngredientName: name, Quantity: dec(qty), TransactionType: typ})
	}
	add("Flour", "-10", model.TransactionOrderUsage)
	add("Flour", "4", model.TransactionRestock)
	add("Sugar", "-3", model.TransactionOrderUsage)
	add("Butter", "-6", model.TransactionOrderUsage)
	add("Eggs", "1", model.TransactionManualAddition)
	add("Milk", "2", model.TransactionRestock)
	add("Salt", "0.5", model.TransactionRestock)

	usage := SummarizeUsage(txs)
	require.Len(t, usage.TopIngredients, 5)
	assert.Equal(t, "Flour", usage.TopIngredients[0].Name)
	assert.True(t, dec("14").Equal(usage.TopIngredients[0].Usage))
	assert.Equal(t, "Butter", usage.TopIngredients[1].Name)
	assert.Equal(t, "Sugar", usage.TopIngredients[2].Name)
	assert.Equal(t, 3, usage.TypeCounts[model.TransactionOrderUsage])
	assert.Equal(t, 3, usage.TypeCounts[model.TransactionRestock])
	assert.Equal(t, 1, usage.TypeCounts[model.TransactionManualAddition])
}

func TestInventoryService_Health(t *testing.T) {
	svc, _ := newTestInventoryService()
	ctx := context.Background()
	past := model.NewDate(inventoryNow.AddDate(0, 0, -2))
	_, err := svc.CreateIngredient(ctx, dto.CreateIngredientRequest{Name: "Cream", Unit: "l", CurrentStock: dec("2"), MinimumStock: dec("3"), CostPerUnit: dec("4"), ExpiryDate: &past})
	require.NoError(t, err)
	_, err = svc.CreateIngredient(ctx, dto.CreateIngredientRequest{Name: "Flour", Unit: "kg", CurrentStock: dec("10"), MinimumStock: dec("2"), CostPerUnit: dec("1.5")})
	require.NoError(t, err)

	h, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.ExpiredCount)
	assert.Equal(t, 1, h.LowStockCount)
	assert.Equal(t, 1, h.HealthyCount)
	assert.True(t, dec("23").Equal(h.TotalValue))
}
