package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Cart is the ordered per-user item list. Product ids are unique and every
// quantity is at least 1.
type Cart struct {
	UserID uuid.UUID
	Items  []CartItem
}

// AddOrIncrement bumps the quantity of an existing line by one, or appends
// the item with quantity 1.
func (c *Cart) AddOrIncrement(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity++
			return
		}
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
}

// UpdateQuantity applies delta and clamps the result to 1. It never removes
// a line. Reports whether the product was found.
func (c *Cart) UpdateQuantity(productID uuid.UUID, delta int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = max(1, c.Items[i].Quantity+delta)
			return true
		}
	}
	return false
}

func (c *Cart) Remove(productID uuid.UUID) bool {
	kept := c.Items[:0]
	found := false
	for _, item := range c.Items {
		if item.ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	return found
}

func (c *Cart) Total() decimal.Decimal {
	return LineTotal(c.Items)
}

// LineTotal is the sum of price × quantity.
func LineTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// MinorUnits converts an amount to integer cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
