package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/repository"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAccessDenied  = errors.New("access denied")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrFeedbackNotAllowed = errors.New("feedback is only accepted for delivered orders")
	ErrFeedbackExists     = errors.New("feedback already submitted for this order")
)

const (
	defaultOrderListLimit = 100
	summaryRecentOrders   = 10
)

type FeedbackPublisher interface {
	PublishFeedback(ctx context.Context, msg model.FeedbackMessage) error
}

type OrderService struct {
	orderRepo    repository.OrderRepository
	feedbackRepo repository.FeedbackRepository
	events       OrderEventPublisher
	feedback     FeedbackPublisher
	log          *slog.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, feedbackRepo repository.FeedbackRepository, events OrderEventPublisher, feedback FeedbackPublisher, log *slog.Logger) *OrderService {
	return &OrderService{orderRepo: orderRepo, feedbackRepo: feedbackRepo, events: events, feedback: feedback, log: log}
}

func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = defaultOrderListLimit
	}
	orders, err := s.orderRepo.ListAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}

// GetByID returns the order to its owner or to an admin.
func (s *OrderService) GetByID(ctx context.Context, session *model.Session, orderID uuid.UUID) (*model.Order, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != session.UserID && !session.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) Summary(ctx context.Context) (*model.OrderSummary, error) {
	recent, err := s.orderRepo.ListAll(ctx, summaryRecentOrders)
	if err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	summary := &model.OrderSummary{RecentOrders: recent, OrderCount: len(recent), Revenue: decimal.Zero}
	for _, o := range recent {
		summary.Revenue = summary.Revenue.Add(o.TotalAmount)
		if o.Status == model.OrderStatusPending {
			summary.PendingCount++
		}
	}
	return summary, nil
}

// SetStatus moves the order through the transition table. Setting the
// current status again succeeds without writing.
func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*model.Order, error) {
	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, ErrInvalidStatus
	}
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, next)
}

// HandlePaymentEvent applies a processor notification to the order that
// owns the payment intent. Unknown intents are ignored.
func (s *OrderService) HandlePaymentEvent(ctx context.Context, paymentIntentID string, next model.OrderStatus) error {
	order, err := s.orderRepo.GetByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("get order by payment intent: %w", err)
	}
	if order == nil {
		s.log.Warn("payment event for unknown intent", "payment_intent_id", paymentIntentID)
		return nil
	}
	if !order.Status.CanTransition(next) {
		s.log.Info("payment event ignored", "order_id", order.ID, "status", order.Status, "next", next)
		return nil
	}
	_, err = s.transition(ctx, order, next)
	return err
}

// HandlePaymentFailure records a declined payment attempt. The order stays
// pending so a retry on the same intent can still confirm it.
func (s *OrderService) HandlePaymentFailure(ctx context.Context, paymentIntentID string) error {
	order, err := s.orderRepo.GetByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("get order by payment intent: %w", err)
	}
	if order == nil {
		s.log.Warn("payment failure for unknown intent", "payment_intent_id", paymentIntentID)
		return nil
	}
	s.log.Warn("payment attempt declined", "order_id", order.ID, "payment_intent_id", paymentIntentID, "status", order.Status)
	return nil
}

func (s *OrderService) transition(ctx context.Context, order *model.Order, next model.OrderStatus) (*model.Order, error) {
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransition(next) {
		return nil, ErrInvalidTransition
	}
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, next); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrOrderNotFound
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next
	order.UpdatedAt = time.Now()
	publishOrderEvent(ctx, s.events, s.log, order, model.EventUpdate)
	return order, nil
}

func (s *OrderService) SubmitFeedback(ctx context.Context, session *model.Session, orderID uuid.UUID, rating int, comment string) (*model.OrderFeedback, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != session.UserID {
		return nil, ErrOrderAccessDenied
	}
	if order.Status != model.OrderStatusDelivered {
		return nil, ErrFeedbackNotAllowed
	}

	fb := &model.OrderFeedback{OrderID: orderID, UserID: session.UserID, Rating: rating, Comment: comment}
	if err := s.feedbackRepo.Create(ctx, fb); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFeedbackExists
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	if s.feedback != nil {
		err := s.feedback.PublishFeedback(ctx, model.FeedbackMessage{
			Type:      "order_feedback",
			OrderID:   orderID,
			UserID:    session.UserID,
			Rating:    rating,
			Timestamp: fb.CreatedAt,
		})
		if err != nil {
			s.log.Warn("publish feedback", "error", err, "order_id", orderID)
		}
	}
	return fb, nil
}

func (s *OrderService) get(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
