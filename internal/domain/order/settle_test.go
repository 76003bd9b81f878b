package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarshop/bazar-api/internal/domain/cart"
	"github.com/bazarshop/bazar-api/internal/domain/product"
	"github.com/bazarshop/bazar-api/internal/domain/quote"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(id, name, price string, qty int) cart.Line {
	return cart.Line{
		Product: product.Product{
			ID:       id,
			Name:     name,
			Brand:    "brand",
			Category: "elektronika",
			Image:    "/images/" + id + ".jpg",
			Price:    d(price),
		},
		Quantity: qty,
	}
}

var testClock = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func TestSettle(t *testing.T) {
	quotes := quote.Cache{
		"1": {
			DiscountApplied: true,
			OriginalPrice:   d("100"),
			Offer: &quote.Offer{
				OfferID:            "OFF1",
				DiscountPercentage: 11,
				DiscountAmount:     d("11"),
				FinalPrice:         d("89"),
			},
		},
	}

	t.Run("empty cart returns ErrEmptyCart and leaves history alone", func(t *testing.T) {
		history := History{{OrderID: "ORD-2024-001"}}

		_, got, err := Settle(cart.Cart{}, quotes, true, history, testClock)

		require.ErrorIs(t, err, ErrEmptyCart)
		assert.Equal(t, history, got)
	})

	t.Run("settles with discount applied", func(t *testing.T) {
		c := cart.Cart{line("1", "Phone", "100", 2)}

		o, history, err := Settle(c, quotes, true, History{}, testClock)
		require.NoError(t, err)

		assert.Equal(t, 1, o.Seq)
		assert.Equal(t, "ORD-2024-001", o.OrderID)
		assert.Equal(t, "2024-06-15", o.Date)
		assert.Equal(t, testClock, o.Timestamp)
		assert.Equal(t, StatusDelivered, o.Status)

		require.Len(t, o.Lines, 1)
		assert.True(t, d("100").Equal(o.Lines[0].OriginalPrice))
		assert.True(t, d("89").Equal(o.Lines[0].DiscountedPrice))
		assert.Equal(t, 11, o.Lines[0].DiscountPercentage)
		assert.Equal(t, 2, o.Lines[0].Quantity)

		assert.True(t, d("200").Equal(o.TotalOriginal), "original: %s", o.TotalOriginal)
		assert.True(t, d("178").Equal(o.TotalPaid), "paid: %s", o.TotalPaid)
		assert.True(t, d("22").Equal(o.TotalSavings), "savings: %s", o.TotalSavings)

		require.Len(t, history, 1)
		assert.Equal(t, o.OrderID, history[0].OrderID)
	})

	t.Run("flag off settles at original prices", func(t *testing.T) {
		c := cart.Cart{line("1", "Phone", "100", 2)}

		o, _, err := Settle(c, quotes, false, History{}, testClock)
		require.NoError(t, err)

		assert.True(t, d("200").Equal(o.TotalPaid))
		assert.True(t, o.TotalSavings.IsZero())
		assert.Equal(t, 0, o.Lines[0].DiscountPercentage)
	})

	t.Run("sequence continues from history length", func(t *testing.T) {
		c := cart.Cart{line("1", "Phone", "100", 1)}
		history := History{{OrderID: "ORD-2024-002"}, {OrderID: "ORD-2024-001"}}

		o, updated, err := Settle(c, quotes, true, history, testClock)
		require.NoError(t, err)

		assert.Equal(t, 3, o.Seq)
		assert.Equal(t, "ORD-2024-003", o.OrderID)

		// Newest first.
		require.Len(t, updated, 3)
		assert.Equal(t, "ORD-2024-003", updated[0].OrderID)
		assert.Equal(t, "ORD-2024-002", updated[1].OrderID)

		// Input history untouched.
		assert.Len(t, history, 2)
	})

	t.Run("sequence carries across years", func(t *testing.T) {
		c := cart.Cart{line("1", "Phone", "100", 1)}
		history := History{{OrderID: "ORD-2024-001"}}
		nextYear := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

		o, _, err := Settle(c, quotes, true, history, nextYear)
		require.NoError(t, err)

		assert.Equal(t, "ORD-2025-002", o.OrderID)
	})

	t.Run("local time is settled in UTC", func(t *testing.T) {
		c := cart.Cart{line("1", "Phone", "100", 1)}
		loc := time.FixedZone("UTC+4", 4*60*60)
		local := time.Date(2024, 1, 1, 2, 0, 0, 0, loc)

		o, _, err := Settle(c, quotes, true, History{}, local)
		require.NoError(t, err)

		// 02:00 UTC+4 on Jan 1 is still Dec 31 in UTC.
		assert.Equal(t, "2023-12-31", o.Date)
		assert.Equal(t, "ORD-2023-001", o.OrderID)
	})
}

func TestFormatOrderID(t *testing.T) {
	assert.Equal(t, "ORD-2024-001", FormatOrderID(2024, 1))
	assert.Equal(t, "ORD-2024-042", FormatOrderID(2024, 42))
	assert.Equal(t, "ORD-2025-1000", FormatOrderID(2025, 1000))
}
