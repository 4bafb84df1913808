package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/repository"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidItem  = errors.New("cart item must have a positive price and quantity")
	ErrUserMismatch = errors.New("user does not match session")
)

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*model.PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) error
}

type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event model.OrderEvent) error
}

type CheckoutResult struct {
	ClientSecret string
	OrderID      uuid.UUID
	Amount       int64
	Total        decimal.Decimal
}

// CheckoutService turns a submitted cart into a payment intent and a
// pending order. If the order cannot be stored the intent is cancelled.
type CheckoutService struct {
	orderRepo repository.OrderRepository
	carts     repository.CartStore
	payments  PaymentGateway
	events    OrderEventPublisher
	currency  string
	log       *slog.Logger
}

func NewCheckoutService(orderRepo repository.OrderRepository, carts repository.CartStore, payments PaymentGateway, events OrderEventPublisher, currency string, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		orderRepo: orderRepo,
		carts:     carts,
		payments:  payments,
		events:    events,
		currency:  currency,
		log:       log,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, session *model.Session, userID uuid.UUID, items []model.CartItem) (*CheckoutResult, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	if userID != session.UserID {
		return nil, ErrUserMismatch
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil || !item.Price.IsPositive() || item.Quantity < 1 {
			return nil, ErrInvalidItem
		}
		// order_items.price_at_time is NUMERIC(10,2).
		if !item.Price.Equal(item.Price.Round(2)) {
			return nil, ErrInvalidItem
		}
	}

	total := model.LineTotal(items)
	amount := model.MinorUnits(total)

	intent, err := s.payments.CreateIntent(ctx, amount, s.currency, map[string]string{
		"user_id": userID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		TotalAmount:     total,
		PaymentIntentID: intent.ID,
		Items:           make([]model.OrderItem, 0, len(items)),
	}
	for _, item := range items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtTime: item.Price,
		})
	}

	if err := s.orderRepo.CreateWithItems(ctx, order); err != nil {
		if cancelErr := s.payments.CancelIntent(context.WithoutCancel(ctx), intent.ID); cancelErr != nil {
			s.log.Error("cancel payment intent after failed order insert",
				"error", cancelErr, "payment_intent_id", intent.ID, "user_id", userID)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.log.Warn("clear cart after checkout", "error", err, "user_id", userID, "order_id", order.ID)
	}
	publishOrderEvent(ctx, s.events, s.log, order, model.EventInsert)

	return &CheckoutResult{
		ClientSecret: intent.ClientSecret,
		OrderID:      order.ID,
		Amount:       amount,
		Total:        total,
	}, nil
}

func publishOrderEvent(ctx context.Context, events OrderEventPublisher, log *slog.Logger, order *model.Order, event string) {
	if events == nil {
		return
	}
	err := events.PublishOrderEvent(ctx, model.OrderEvent{
		Table:   "orders",
		Event:   event,
		OrderID: order.ID,
		UserID:  order.UserID,
		At:      time.Now().UTC(),
	})
	if err != nil {
		log.Warn("publish order event", "error", err, "order_id", order.ID)
	}
}
