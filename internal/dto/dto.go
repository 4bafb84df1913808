package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/bakery-api/internal/model"
)

// --- Session ---

type SessionResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsAvailable *bool           `json:"is_available"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url"`
	IsAvailable *bool            `json:"is_available"`
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

type UpdateCartItemRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type CartResponse struct {
	Items []model.CartItem `json:"items"`
	Total decimal.Decimal  `json:"total"`
	Count int              `json:"count"`
}

// --- Checkout ---

type CheckoutRequest struct {
	Items  []model.CartItem `json:"items"`
	UserID uuid.UUID        `json:"userId" binding:"required"`
}

type CheckoutResponse struct {
	ClientSecret string    `json:"clientSecret"`
	OrderID      uuid.UUID `json:"orderId"`
}

type PaymentConfigResponse struct {
	Secrets struct {
		PublishableKey string `json:"publishableKey"`
	} `json:"secrets"`
}

// --- Order ---

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	Status           model.OrderStatus   `json:"status"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	PaymentIntentID  string              `json:"payment_intent_id,omitempty"`
	Items            []OrderItemResponse `json:"items"`
	Feedback         *FeedbackResponse   `json:"feedback"`
	CanLeaveFeedback bool                `json:"can_leave_feedback"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	PriceAtTime  decimal.Decimal `json:"price_at_time"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type OrderSummaryResponse struct {
	RecentOrders []OrderResponse `json:"recent_orders"`
	OrderCount   int             `json:"order_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	PendingCount int             `json:"pending_count"`
}

// --- Feedback ---

type CreateFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Inventory ---

type CreateIngredientRequest struct {
	Name         string          `json:"name" binding:"required"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Unit         string          `json:"unit" binding:"required"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	ExpiryDate   *model.Date     `json:"expiry_date"`
}

type UpdateIngredientRequest struct {
	Name         *string          `json:"name"`
	Unit         *string          `json:"unit"`
	MinimumStock *decimal.Decimal `json:"minimum_stock"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
	ExpiryDate   *model.Date      `json:"expiry_date"`
	ClearExpiry  bool             `json:"clear_expiry"`
}

type IngredientResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	CurrentStock decimal.Decimal   `json:"current_stock"`
	Unit         string            `json:"unit"`
	MinimumStock decimal.Decimal   `json:"minimum_stock"`
	CostPerUnit  decimal.Decimal   `json:"cost_per_unit"`
	ExpiryDate   *model.Date       `json:"expiry_date"`
	StockStatus  model.StockStatus `json:"stock_status"`
	ExpiringSoon bool              `json:"expiring_soon"`
	Expired      bool              `json:"expired"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type RecordTransactionRequest struct {
	IngredientID    uuid.UUID       `json:"ingredient_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	TransactionType string          `json:"transaction_type" binding:"required"`
	Notes           string          `json:"notes"`
}

type TransactionResponse struct {
	ID              uuid.UUID             `json:"id"`
	IngredientID    uuid.UUID             `json:"ingredient_id"`
	IngredientName  string                `json:"ingredient_name"`
	IngredientUnit  string                `json:"ingredient_unit"`
	Quantity        decimal.Decimal       `json:"quantity"`
	TransactionType model.TransactionType `json:"transaction_type"`
	Notes           string                `json:"notes"`
	CreatedAt       time.Time             `json:"created_at"`
}

type RecordTransactionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	NewStock    decimal.Decimal     `json:"new_stock"`
}

type TransactionHistoryRequest struct {
	Period string `form:"period,default=month" binding:"omitempty,oneof=week month year"`
	Limit  int    `form:"limit,default=50" binding:"min=1,max=1000"`
}

type StockResponse struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
}

type InventoryHealthResponse struct {
	ExpiredCount  int             `json:"expired_count"`
	LowStockCount int             `json:"low_stock_count"`
	HealthyCount  int             `json:"healthy_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

type IngredientUsageResponse struct {
	Name  string          `json:"name"`
	Usage decimal.Decimal `json:"usage"`
}

type InventoryUsageResponse struct {
	Period         model.Period                  `json:"period"`
	TopIngredients []IngredientUsageResponse     `json:"top_ingredients"`
	TypeCounts     map[model.TransactionType]int `json:"type_counts"`
}
