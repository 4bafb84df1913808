package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/flicky/bakery-api/internal/dto"
	"github.com/flicky/bakery-api/internal/middleware"
	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/service"
)

const qrCodeSize = 256

type OrderHandler struct {
	orderService *service.OrderService
	appBaseURL   string
}

func NewOrderHandler(orderService *service.OrderService, appBaseURL string) *OrderHandler {
	return &OrderHandler{orderService: orderService, appBaseURL: appBaseURL}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListResponse(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// QRCode renders a PNG linking to the order's confirmation page.
func (h *OrderHandler) QRCode(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}
	png, err := qrcode.Encode(confirmationURL(h.appBaseURL, order.ID), qrcode.Medium, qrCodeSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *OrderHandler) SubmitFeedback(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}
	var req dto.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	fb, err := h.orderService.SubmitFeedback(c.Request.Context(), middleware.GetSession(c), orderID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFeedbackResponse(fb))
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orderService.ListAll(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListResponse(orders))
}

func (h *OrderHandler) Summary(c *gin.Context) {
	summary, err := h.orderService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderSummaryResponse{
		RecentOrders: toOrderListResponse(summary.RecentOrders).Orders,
		OrderCount:   summary.OrderCount,
		Revenue:      summary.Revenue,
		PendingCount: summary.PendingCount,
	})
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orderService.SetStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) loadOrder(c *gin.Context) (*model.Order, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return nil, false
	}
	order, err := h.orderService.GetByID(c.Request.Context(), middleware.GetSession(c), orderID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return order, true
}

func confirmationURL(base string, orderID uuid.UUID) string {
	return strings.TrimRight(base, "/") + "/order-confirmation/" + orderID.String()
}

func toOrderListResponse(orders []model.Order) dto.OrderListResponse {
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	return dto.OrderListResponse{Orders: items, Total: len(items)}
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			PriceAtTime:  item.PriceAtTime,
		})
	}
	resp := dto.OrderResponse{
		ID:               order.ID,
		UserID:           order.UserID,
		Status:           order.Status,
		TotalAmount:      order.TotalAmount,
		PaymentIntentID:  order.PaymentIntentID,
		Items:            items,
		CanLeaveFeedback: order.CanLeaveFeedback(),
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	if order.Feedback != nil {
		fb := toFeedbackResponse(order.Feedback)
		resp.Feedback = &fb
	}
	return resp
}

func toFeedbackResponse(fb *model.OrderFeedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{ID: fb.ID, Rating: fb.Rating, Comment: fb.Comment, CreatedAt: fb.CreatedAt}
}
