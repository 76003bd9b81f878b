// Package pricing reconciles cart lines with discount quotes into effective
// prices. The same rules drive the live cart view and order settlement, so
// what the user sees before checkout is exactly what gets recorded.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/bazarshop/bazar-api/internal/domain/cart"
	"github.com/bazarshop/bazar-api/internal/domain/quote"
)

var hundred = decimal.NewFromInt(100)

// Effective is the reconciled price of a single cart line.
type Effective struct {
	UnitPrice          decimal.Decimal
	HasDiscount        bool
	DiscountPercentage int
	DiscountPerUnit    decimal.Decimal
}

// Totals aggregates reconciled pricing over a whole cart. Monetary fields
// are rounded to 2 decimal places; accumulation happens at full precision
// and rounding is applied once at the end.
type Totals struct {
	OriginalTotal      decimal.Decimal
	DiscountedTotal    decimal.Decimal
	TotalDiscount      decimal.Decimal
	DiscountPercentage int
}

// OriginalUnit returns the pre-discount unit price for a line: the quote's
// original price when the quote carries one, otherwise the product's own
// price.
func OriginalUnit(line cart.Line, q *quote.Quote) decimal.Decimal {
	if q != nil && q.OriginalPrice.IsPositive() {
		return q.OriginalPrice
	}
	return line.Product.Price
}

// Reconcile computes the effective unit price for a cart line given its
// cached quote (nil when absent) and the session-wide discount flag.
//
// Rules, in priority order:
//  1. No quote: the product's own price, no discount.
//  2. Quote present but the flag is off, or the quote reports no applicable
//     discount: the quote's original price (product price when the quote
//     carries none), no discount.
//  3. Flag on and discount applied: the offer's final price when it is
//     strictly positive. A missing or non-positive final price means the
//     offer is malformed and falls back to rule 2, since a free item is
//     indistinguishable from a broken payload.
func Reconcile(line cart.Line, q *quote.Quote, discountEnabled bool) Effective {
	base := OriginalUnit(line, q)

	if q == nil {
		return Effective{UnitPrice: base}
	}
	if !discountEnabled || !q.DiscountApplied || q.Offer == nil || !q.Offer.FinalPrice.IsPositive() {
		return Effective{UnitPrice: base}
	}

	perUnit := q.Offer.DiscountAmount
	if !perUnit.IsPositive() {
		perUnit = base.Sub(q.Offer.FinalPrice)
	}

	pct := q.Offer.DiscountPercentage
	if pct <= 0 {
		pct = derivePercentage(perUnit, base)
	}

	return Effective{
		UnitPrice:          q.Offer.FinalPrice,
		HasDiscount:        true,
		DiscountPercentage: pct,
		DiscountPerUnit:    perUnit,
	}
}

// CartTotals aggregates reconciled pricing over all cart lines.
func CartTotals(c cart.Cart, quotes quote.Cache, discountEnabled bool) Totals {
	original := decimal.Zero
	discounted := decimal.Zero

	for _, line := range c {
		q := quotes.Get(line.Product.ID)
		qty := decimal.NewFromInt(int64(line.Quantity))

		original = original.Add(OriginalUnit(line, q).Mul(qty))
		discounted = discounted.Add(Reconcile(line, q, discountEnabled).UnitPrice.Mul(qty))
	}

	totalDiscount := original.Sub(discounted)
	pct := 0
	if original.IsPositive() {
		pct = derivePercentage(totalDiscount, original)
	}

	return Totals{
		OriginalTotal:      original.Round(2),
		DiscountedTotal:    discounted.Round(2),
		TotalDiscount:      totalDiscount.Round(2),
		DiscountPercentage: pct,
	}
}

// derivePercentage returns round(100 * amount / base), or 0 when base is not
// positive.
func derivePercentage(amount, base decimal.Decimal) int {
	if !base.IsPositive() {
		return 0
	}
	return int(amount.Mul(hundred).Div(base).Round(0).IntPart())
}
