package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionOrderUsage     TransactionType = "order_usage"
	TransactionRestock        TransactionType = "restock"
	TransactionManualAddition TransactionType = "manual_addition"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionOrderUsage, TransactionRestock, TransactionManualAddition:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// SignedDelta returns the ledger delta for a quantity of this type: usage
// always lowers stock, restock and manual additions always raise it,
// whatever sign the caller used.
func (t TransactionType) SignedDelta(quantity decimal.Decimal) decimal.Decimal {
	if t == TransactionOrderUsage {
		return quantity.Abs().Neg()
	}
	return quantity.Abs()
}

// Ingredient.CurrentStock equals the sum of its transactions' quantities.
type Ingredient struct {
	ID           uuid.UUID
	Name         string
	CurrentStock decimal.Decimal
	Unit         string
	MinimumStock decimal.Decimal
	CostPerUnit  decimal.Decimal
	ExpiryDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type InventoryTransaction struct {
	ID              uuid.UUID
	IngredientID    uuid.UUID
	IngredientName  string
	IngredientUnit  string
	Quantity        decimal.Decimal
	TransactionType TransactionType
	Notes           string
	CreatedAt       time.Time
}

type StockStatus string

const (
	StockOut StockStatus = "Out of Stock"
	StockLow StockStatus = "Low Stock"
	StockIn  StockStatus = "In Stock"
)

func GetStockStatus(ing Ingredient) StockStatus {
	switch {
	case !ing.CurrentStock.IsPositive():
		return StockOut
	case ing.CurrentStock.LessThanOrEqual(ing.MinimumStock):
		return StockLow
	default:
		return StockIn
	}
}

// IsExpiringSoon is true when the expiry falls 1 to 7 calendar days after now.
func IsExpiringSoon(expiry *time.Time, now time.Time) bool {
	if expiry == nil {
		return false
	}
	days := calendarDays(now, *expiry)
	return days > 0 && days <= 7
}

func IsExpired(expiry *time.Time, now time.Time) bool {
	return expiry != nil && expiry.Before(now)
}

// expiry dates carry no zone, so each side keeps its own calendar date.
func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

type InventoryHealth struct {
	ExpiredCount  int
	LowStockCount int
	HealthyCount  int
	TotalValue    decimal.Decimal
}

func ComputeHealth(ingredients []Ingredient, now time.Time) InventoryHealth {
	h := InventoryHealth{TotalValue: decimal.Zero}
	for _, ing := range ingredients {
		if IsExpired(ing.ExpiryDate, now) {
			h.ExpiredCount++
		}
		if GetStockStatus(ing) == StockIn {
			h.HealthyCount++
		} else {
			h.LowStockCount++
		}
		h.TotalValue = h.TotalValue.Add(ing.CurrentStock.Mul(ing.CostPerUnit))
	}
	return h
}

type IngredientUsage struct {
	Name  string
	Usage decimal.Decimal
}

type InventoryUsage struct {
	Period         Period
	TopIngredients []IngredientUsage
	TypeCounts     map[TransactionType]int
}

// Period is the history window selector.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	case "":
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Since returns the start of the window ending at now.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}
