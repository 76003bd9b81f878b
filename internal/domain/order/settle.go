package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/bazarshop/bazar-api/internal/domain/cart"
	"github.com/bazarshop/bazar-api/internal/domain/pricing"
	"github.com/bazarshop/bazar-api/internal/domain/quote"
)

// ErrEmptyCart is returned when settlement is attempted on an empty cart.
// Callers treat it as a silent no-op, not a failure.
var ErrEmptyCart = errors.New("cart is empty")

// Settle converts a cart snapshot, the quote cache, and the discount flag
// into a new immutable order prepended to history. Line prices come from the
// pricing reconciler, so the settled record matches what the cart view
// showed. The input history is never mutated; on success the returned
// history is a fresh slice with the new order first. Settlement does not
// touch cart state; clearing the cart is the caller's responsibility.
func Settle(c cart.Cart, quotes quote.Cache, discountEnabled bool, history History, now time.Time) (Order, History, error) {
	if len(c) == 0 {
		return Order{}, history, ErrEmptyCart
	}

	lines := make([]Line, len(c))
	totalOriginal := decimal.Zero
	totalPaid := decimal.Zero

	for i, cl := range c {
		q := quotes.Get(cl.Product.ID)
		eff := pricing.Reconcile(cl, q, discountEnabled)
		originalUnit := pricing.OriginalUnit(cl, q)

		lines[i] = Line{
			ProductID:          cl.Product.ID,
			Name:               cl.Product.Name,
			Brand:              cl.Product.Brand,
			Category:           cl.Product.Category,
			Image:              cl.Product.Image,
			Quantity:           cl.Quantity,
			OriginalPrice:      originalUnit,
			DiscountedPrice:    eff.UnitPrice,
			DiscountPercentage: eff.DiscountPercentage,
		}

		qty := decimal.NewFromInt(int64(cl.Quantity))
		totalOriginal = totalOriginal.Add(originalUnit.Mul(qty))
		totalPaid = totalPaid.Add(eff.UnitPrice.Mul(qty))
	}

	seq := len(history) + 1
	ts := now.UTC()

	o := Order{
		Seq:           seq,
		OrderID:       FormatOrderID(ts.Year(), seq),
		Date:          ts.Format("2006-01-02"),
		Timestamp:     ts,
		Lines:         lines,
		TotalOriginal: totalOriginal.Round(2),
		TotalPaid:     totalPaid.Round(2),
		TotalSavings:  totalOriginal.Sub(totalPaid).Round(2),
		Status:        StatusDelivered,
	}

	updated := make(History, 0, len(history)+1)
	updated = append(updated, o)
	updated = append(updated, history...)

	return o, updated, nil
}

// FormatOrderID renders the wire-compatible order identifier, e.g.
// "ORD-2024-001". The format is bit-exact: 4-digit year, 3-digit zero-padded
// sequence.
func FormatOrderID(year, seq int) string {
	return fmt.Sprintf("ORD-%04d-%03d", year, seq)
}
