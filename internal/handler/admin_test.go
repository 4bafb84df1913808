package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/repository"
	"github.com/flicky/bakery-api/internal/service"
)

type memOrders struct {
	orders map[uuid.UUID]*model.Order
}

func (m *memOrders) CreateWithItems(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	m.orders[order.ID] = order
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) GetByPaymentIntentID(_ context.Context, _ string) (*model.Order, error) {
	return nil, nil
}

func (m *memOrders) ListByUserID(_ context.Context, _ uuid.UUID) ([]model.Order, error) {
	return nil, nil
}

func (m *memOrders) ListAll(_ context.Context, _ int) ([]model.Order, error) {
	return nil, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if !o.Status.CanTransition(status) {
		return repository.ErrStatusChanged
	}
	o.Status = status
	return nil
}

type memFeedback struct{}

func (memFeedback) Create(_ context.Context, _ *model.OrderFeedback) error { return nil }

type memPantry struct {
	ingredients map[uuid.UUID]*model.Ingredient
	txs         []model.InventoryTransaction
}

func newMemPantry() *memPantry {
	return &memPantry{ingredients: make(map[uuid.UUID]*model.Ingredient)}
}

func (m *memPantry) Create(ctx context.Context, ing *model.Ingredient, initial *model.InventoryTransaction) error {
	ing.ID = uuid.New()
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

func (m *memPantry) GetByID(_ context.Context, id uuid.UUID) (*model.Ingredient, error) {
	ing, ok := m.ingredients[id]
	if !ok {
		return nil, nil
	}
	cp := *ing
	return &cp, nil
}

func (m *memPantry) List(_ context.Context, _ string) ([]model.Ingredient, error) {
	var out []model.Ingredient
	for _, ing := range m.ingredients {
		out = append(out, *ing)
	}
	return out, nil
}

func (m *memPantry) Update(_ context.Context, ing *model.Ingredient) error {
	existing, ok := m.ingredients[ing.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	ing.CurrentStock = existing.CurrentStock
	cp := *ing
	m.ingredients[ing.ID] = &cp
	return nil
}

func (m *memPantry) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.ingredients, id)
	return nil
}

func (m *memPantry) RecordTransaction(_ context.Context, t *model.InventoryTransaction) (decimal.Decimal, error) {
	ing, ok := m.ingredients[t.IngredientID]
	if !ok {
		return decimal.Zero, pgx.ErrNoRows
	}
	ing.CurrentStock = ing.CurrentStock.Add(t.Quantity)
	t.ID = uuid.New()
	t.IngredientName = ing.Name
	t.IngredientUnit = ing.Unit
	t.CreatedAt = time.Now()
	m.txs = append(m.txs, *t)
	return ing.CurrentStock, nil
}

func (m *memPantry) ListTransactions(_ context.Context, _ time.Time, _ int) ([]model.InventoryTransaction, error) {
	return m.txs, nil
}

func (m *memPantry) Reconcile(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	ing, ok := m.ingredients[id]
	if !ok {
		return decimal.Zero, pgx.ErrNoRows
	}
	return ing.CurrentStock, nil
}

func newInventoryRouter() (*gin.Engine, *memPantry) {
	pantry := newMemPantry()
	h := NewInventoryHandler(service.NewInventoryService(pantry, pantry))
	r := gin.New()
	r.POST("/admin/ingredients", h.CreateIngredient)
	r.PUT("/admin/ingredients/:id", h.UpdateIngredient)
	r.GET("/admin/inventory/transactions/export", h.Export)
	r.GET("/admin/inventory/usage", h.Usage)
	return r, pantry
}

func TestInventoryHandler_DateOnlyExpiry(t *testing.T) {
	r, pantry := newInventoryRouter()

	w := doJSON(r, http.MethodPost, "/admin/ingredients", map[string]any{
		"name": "Cream", "unit": "l", "current_stock": "4", "expiry_date": "2026-03-15",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "2026-03-15", created["expiry_date"])

	id := uuid.MustParse(created["id"].(string))
	require.NotNil(t, pantry.ingredients[id].ExpiryDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *pantry.ingredients[id].ExpiryDate)

	w = doJSON(r, http.MethodPut, "/admin/ingredients/"+id.String(), map[string]any{"expiry_date": "2026-04-01"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"expiry_date":"2026-04-01"`)

	w = doJSON(r, http.MethodPost, "/admin/ingredients", map[string]any{
		"name": "Milk", "unit": "l", "expiry_date": "15/03/2026",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryHandler_Export(t *testing.T) {
	r, _ := newInventoryRouter()
	w := doJSON(r, http.MethodPost, "/admin/ingredients", map[string]any{"name": "Flour", "unit": "kg", "current_stock": "10"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/inventory/transactions/export?period=week", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="inventory-transactions-week-\d{4}-\d{2}-\d{2}\.csv"$`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "Date,Ingredient,Quantity,Type,Notes\n")
	assert.Contains(t, w.Body.String(), "Flour,10 kg,manual_addition,Initial stock")

	w = doJSON(r, http.MethodGet, "/admin/inventory/transactions/export?period=decade", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestInventoryHandler_Usage(t *testing.T) {
	r, _ := newInventoryRouter()

	w := doJSON(r, http.MethodGet, "/admin/inventory/usage?period=week", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"period":"week"`)

	w = doJSON(r, http.MethodGet, "/admin/inventory/usage", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"period":"month"`)

	w = doJSON(r, http.MethodGet, "/admin/inventory/usage?period=decade", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	store := &memOrders{orders: make(map[uuid.UUID]*model.Order)}
	order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Status: model.OrderStatusPreparing, TotalAmount: decimal.RequireFromString("12.00")}
	store.orders[order.ID] = order

	h := NewOrderHandler(service.NewOrderService(store, memFeedback{}, nil, nil, testLogger), "http://localhost:5173")
	r := gin.New()
	r.PATCH("/admin/orders/:id/status", h.UpdateStatus)
	target := "/admin/orders/" + order.ID.String() + "/status"

	w := doJSON(r, http.MethodPatch, target, map[string]string{"status": "confirmed"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, model.OrderStatusPreparing, store.orders[order.ID].Status)

	w = doJSON(r, http.MethodPatch, target, map[string]string{"status": "shipped"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPatch, "/admin/orders/"+uuid.NewString()+"/status", map[string]string{"status": "ready"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPatch, target, map[string]string{"status": "ready"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)
	assert.Equal(t, model.OrderStatusReady, store.orders[order.ID].Status)
}
