package model

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cake(name string, price float64) CartItem {
	return CartItem{ProductID: uuid.New(), Name: name, Price: decimal.NewFromFloat(price), Image: name + ".jpg"}
}

func TestCart_AddOrIncrement(t *testing.T) {
	c := &Cart{}
	choc := cake("Chocolate Cake", 45)

	c.AddOrIncrement(choc)
	c.AddOrIncrement(choc)
	c.AddOrIncrement(cake("Vanilla Dream", 40))

	require.Len(t, c.Items, 2)
	assert.Equal(t, choc.ProductID, c.Items[0].ProductID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 1, c.Items[1].Quantity)
}

func TestCart_AddOrIncrement_IgnoresIncomingQuantity(t *testing.T) {
	c := &Cart{}
	item := cake("Berry Bliss", 50)
	item.Quantity = 7
	c.AddOrIncrement(item)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestCart_UpdateQuantity_ClampsToOne(t *testing.T) {
	c := &Cart{}
	item := cake("Chocolate Cake", 45)
	c.AddOrIncrement(item)

	assert.True(t, c.UpdateQuantity(item.ProductID, 3))
	assert.Equal(t, 4, c.Items[0].Quantity)

	assert.True(t, c.UpdateQuantity(item.ProductID, -10))
	assert.Equal(t, 1, c.Items[0].Quantity)
	require.Len(t, c.Items, 1)

	assert.False(t, c.UpdateQuantity(uuid.New(), 1))
}

func TestCart_Remove(t *testing.T) {
	c := &Cart{}
	a, b := cake("A", 1), cake("B", 2)
	c.AddOrIncrement(a)
	c.AddOrIncrement(b)

	assert.True(t, c.Remove(a.ProductID))
	require.Len(t, c.Items, 1)
	assert.Equal(t, b.ProductID, c.Items[0].ProductID)
	assert.False(t, c.Remove(a.ProductID))
}

func TestCart_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := []CartItem{cake("A", 1), cake("B", 2.5), cake("C", 3.75), cake("D", 10)}

	for run := 0; run < 200; run++ {
		c := &Cart{}
		for step := 0; step < 50; step++ {
			p := products[rng.Intn(len(products))]
			switch rng.Intn(3) {
			case 0:
				c.AddOrIncrement(p)
			case 1:
				c.UpdateQuantity(p.ProductID, rng.Intn(11)-5)
			case 2:
				c.Remove(p.ProductID)
			}

			seen := map[uuid.UUID]bool{}
			for _, item := range c.Items {
				require.GreaterOrEqual(t, item.Quantity, 1)
				require.False(t, seen[item.ProductID], "duplicate product id")
				seen[item.ProductID] = true
			}
		}
	}
}

func TestLineTotalAndMinorUnits(t *testing.T) {
	items := []CartItem{{Price: decimal.RequireFromString("45.00"), Quantity: 1}}
	total := LineTotal(items)
	assert.True(t, total.Equal(decimal.RequireFromString("45.00")))
	assert.Equal(t, int64(4500), MinorUnits(total))

	items = []CartItem{
		{Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{Price: decimal.RequireFromString("15.50"), Quantity: 1},
	}
	total = LineTotal(items)
	assert.True(t, total.Equal(decimal.RequireFromString("35.50")))
	assert.Equal(t, int64(3550), MinorUnits(total))

	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("9.995")))
	assert.Equal(t, int64(0), MinorUnits(LineTotal(nil)))
}
