package session

import (
	"github.com/shopspring/decimal"

	"github.com/bazarshop/bazar-api/internal/domain/cart"
	"github.com/bazarshop/bazar-api/internal/domain/pricing"
	"github.com/bazarshop/bazar-api/internal/domain/product"
)

// LineView is one cart line with its reconciled pricing, ready for display.
type LineView struct {
	Product            product.Product
	Quantity           int
	UnitPrice          decimal.Decimal
	OriginalPrice      decimal.Decimal
	LineTotal          decimal.Decimal
	HasDiscount        bool
	DiscountPercentage int
	Summary            string
}

// View is the live cart as shown to the user: per-line effective prices and
// the aggregated totals, all computed by the pricing reconciler.
type View struct {
	Lines           []LineView
	ItemCount       int
	DiscountEnabled bool
	Totals          pricing.Totals
}

// view builds the reconciled cart view. Caller must hold s.mu.
func (s *Session) view() View {
	lines := make([]LineView, len(s.state.Cart))
	for i, line := range s.state.Cart {
		q := s.state.Quotes.Get(line.Product.ID)
		eff := pricing.Reconcile(line, q, s.state.DiscountEnabled)
		qty := decimal.NewFromInt(int64(line.Quantity))

		summary := ""
		if q != nil {
			summary = q.Summary
		}

		lines[i] = LineView{
			Product:            line.Product,
			Quantity:           line.Quantity,
			UnitPrice:          eff.UnitPrice,
			OriginalPrice:      pricing.OriginalUnit(line, q),
			LineTotal:          eff.UnitPrice.Mul(qty).Round(2),
			HasDiscount:        eff.HasDiscount,
			DiscountPercentage: eff.DiscountPercentage,
			Summary:            summary,
		}
	}

	return View{
		Lines:           lines,
		ItemCount:       cart.TotalQuantity(s.state.Cart),
		DiscountEnabled: s.state.DiscountEnabled,
		Totals:          pricing.CartTotals(s.state.Cart, s.state.Quotes, s.state.DiscountEnabled),
	}
}
