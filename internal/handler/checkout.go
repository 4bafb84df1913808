package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/bakery-api/internal/dto"
	"github.com/flicky/bakery-api/internal/middleware"
	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/payment"
	"github.com/flicky/bakery-api/internal/service"
)

const maxWebhookBody = 64 << 10

type Checkouter interface {
	Checkout(ctx context.Context, session *model.Session, userID uuid.UUID, items []model.CartItem) (*service.CheckoutResult, error)
}

type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

type PaymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, paymentIntentID string, next model.OrderStatus) error
	HandlePaymentFailure(ctx context.Context, paymentIntentID string) error
}

type CheckoutHandler struct {
	checkout       Checkouter
	webhooks       WebhookParser
	orders         PaymentEventHandler
	publishableKey string
	log            *slog.Logger
}

func NewCheckoutHandler(checkout Checkouter, webhooks WebhookParser, orders PaymentEventHandler, publishableKey string, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:       checkout,
		webhooks:       webhooks,
		orders:         orders,
		publishableKey: publishableKey,
		log:            log,
	}
}

// Checkout answers {clientSecret, orderId} or {error}.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.checkout.Checkout(c.Request.Context(), middleware.GetSession(c), req.UserID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CheckoutResponse{ClientSecret: res.ClientSecret, OrderID: res.OrderID})
}

// PaymentConfig exposes the publishable key the browser needs to mount the
// card form.
func (h *CheckoutHandler) PaymentConfig(c *gin.Context) {
	if h.publishableKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment publishable key is not configured"})
		return
	}
	var resp dto.PaymentConfigResponse
	resp.Secrets.PublishableKey = h.publishableKey
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := h.webhooks.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case payment.EventIntentSucceeded:
		err = h.orders.HandlePaymentEvent(ctx, event.PaymentIntentID, model.OrderStatusConfirmed)
	case payment.EventIntentCanceled:
		err = h.orders.HandlePaymentEvent(ctx, event.PaymentIntentID, model.OrderStatusCancelled)
	case payment.EventIntentFailed:
		// The intent stays usable after a decline and the customer may retry.
		err = h.orders.HandlePaymentFailure(ctx, event.PaymentIntentID)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err != nil {
		h.log.Error("handle payment event", "error", err, "payment_intent_id", event.PaymentIntentID, "event", event.Type)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
