package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/bakery-api/internal/model"
)

type mockGateway struct {
	created   []int64
	metadata  map[string]string
	cancelled []string
	createErr error
}

func (m *mockGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*model.PaymentIntent, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, amount)
	m.metadata = metadata
	id := "pi_" + uuid.NewString()[:8]
	return &model.PaymentIntent{ID: id, ClientSecret: id + "_secret", Amount: amount, Currency: currency}, nil
}

func (m *mockGateway) CancelIntent(_ context.Context, id string) error {
	m.cancelled = append(m.cancelled, id)
	return nil
}

type checkoutFixture struct {
	svc     *CheckoutService
	orders  *mockOrderRepo
	carts   *mockCartStore
	gateway *mockGateway
	events  *recordingEvents
	userID  uuid.UUID
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		orders:  newMockOrderRepo(),
		carts:   newMockCartStore(),
		gateway: &mockGateway{},
		events:  &recordingEvents{},
		userID:  uuid.New(),
	}
	f.svc = NewCheckoutService(f.orders, f.carts, f.gateway, f.events, "usd", discardLogger)
	return f
}

func item(price string, qty int) model.CartItem {
	return model.CartItem{ProductID: uuid.New(), Name: "item", Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestCheckout_SingleItem(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts[f.userID] = []model.CartItem{item("45.00", 1)}

	res, err := f.svc.Checkout(context.Background(), customer(f.userID), f.userID, []model.CartItem{item("45.00", 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), res.Amount)
	assert.Equal(t, []int64{4500}, f.gateway.created)
	assert.Equal(t, f.userID.String(), f.gateway.metadata["user_id"])
	assert.NotEmpty(t, res.ClientSecret)

	order := f.orders.orders[res.OrderID]
	require.NotNil(t, order)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("45.00").Equal(order.TotalAmount))
	assert.NotEmpty(t, order.PaymentIntentID)

	assert.NotContains(t, f.carts.carts, f.userID)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, model.EventInsert, f.events.events[0].Event)
}

func TestCheckout_MultipleItems(t *testing.T) {
	f := newCheckoutFixture()
	items := []model.CartItem{item("10.00", 2), item("15.50", 1)}

	res, err := f.svc.Checkout(context.Background(), customer(f.userID), f.userID, items)
	require.NoError(t, err)
	assert.Equal(t, int64(3550), res.Amount)
	assert.True(t, decimal.RequireFromString("35.50").Equal(res.Total))

	order := f.orders.orders[res.OrderID]
	require.Len(t, order.Items, 2)
	for i, oi := range order.Items {
		assert.Equal(t, items[i].ProductID, oi.ProductID)
		assert.Equal(t, items[i].Quantity, oi.Quantity)
		assert.True(t, items[i].Price.Equal(oi.PriceAtTime))
	}
}

func TestCheckout_CancelsIntentWhenOrderInsertFails(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.createErr = errors.New("connection reset")
	f.carts.carts[f.userID] = []model.CartItem{item("3.00", 1)}

	_, err := f.svc.Checkout(context.Background(), customer(f.userID), f.userID, []model.CartItem{item("3.00", 1)})
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")

	require.Len(t, f.gateway.created, 1)
	assert.Len(t, f.gateway.cancelled, 1)
	assert.Empty(t, f.orders.orders)
	assert.Contains(t, f.carts.carts, f.userID)
	assert.Empty(t, f.events.events)
}

func TestCheckout_PaymentFailureCreatesNoOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.createErr = errors.New("card processor unavailable")

	_, err := f.svc.Checkout(context.Background(), customer(f.userID), f.userID, []model.CartItem{item("3.00", 1)})
	assert.ErrorContains(t, err, "card processor unavailable")
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.gateway.cancelled)
}

func TestCheckout_Validation(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	session := customer(f.userID)

	tests := []struct {
		name    string
		session *model.Session
		userID  uuid.UUID
		items   []model.CartItem
		wantErr error
	}{
		{"no session", nil, f.userID, []model.CartItem{item("1.00", 1)}, ErrUnauthenticated},
		{"other user", session, uuid.New(), []model.CartItem{item("1.00", 1)}, ErrUserMismatch},
		{"empty cart", session, f.userID, nil, ErrEmptyCart},
		{"zero price", session, f.userID, []model.CartItem{item("0", 1)}, ErrInvalidItem},
		{"zero quantity", session, f.userID, []model.CartItem{item("2.00", 0)}, ErrInvalidItem},
		{"sub-cent price", session, f.userID, []model.CartItem{item("2.00", 1), item("1.005", 2)}, ErrInvalidItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Checkout(ctx, tt.session, tt.userID, tt.items)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.gateway.created)
}

func TestCheckout_TrailingZerosAccepted(t *testing.T) {
	f := newCheckoutFixture()
	res, err := f.svc.Checkout(context.Background(), customer(f.userID), f.userID, []model.CartItem{item("3.500", 2)})
	require.NoError(t, err)
	assert.Equal(t, int64(700), res.Amount)
}

func TestCheckout_NotIdempotent(t *testing.T) {
	f := newCheckoutFixture()
	items := []model.CartItem{item("5.00", 1)}

	first, err := f.svc.Checkout(context.Background(), customer(f.userID), f.userID, items)
	require.NoError(t, err)
	second, err := f.svc.Checkout(context.Background(), customer(f.userID), f.userID, items)
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Len(t, f.gateway.created, 2)
	assert.Len(t, f.orders.orders, 2)
}
