package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Session is the signed-in caller, resolved once per request from the bearer
// token. Role is cached per user until logout.
type Session struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	ExpiresAt time.Time
}

func (s *Session) IsAdmin() bool { return s != nil && s.Role == RoleAdmin }

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	PaymentIntentID string
	Items           []OrderItem
	Feedback        *OrderFeedback
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanLeaveFeedback reports whether the feedback action should be offered.
func (o *Order) CanLeaveFeedback() bool {
	return o.Status == OrderStatusDelivered && o.Feedback == nil
}

// OrderItem snapshots the unit price at checkout; it is never recomputed.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	ProductImage string
	Quantity     int
	PriceAtTime  decimal.Decimal
}

type OrderFeedback struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	UserID    uuid.UUID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type OrderSummary struct {
	RecentOrders []Order
	OrderCount   int
	Revenue      decimal.Decimal
	PendingCount int
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// OrderEvent is a change notification on the orders table. Receivers use it
// only as a trigger to re-read.
type OrderEvent struct {
	Table   string    `json:"table"`
	Event   string    `json:"event"`
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
	At      time.Time `json:"at"`
}

const (
	EventInsert = "insert"
	EventUpdate = "update"
)

type FeedbackMessage struct {
	Type      string    `json:"type"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
