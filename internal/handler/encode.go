package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/bazarshop/bazar-api/internal/domain/order"
	"github.com/bazarshop/bazar-api/internal/domain/product"
	"github.com/bazarshop/bazar-api/internal/session"
)

// Monetary values cross the wire as plain JSON numbers, matching the
// original front-end contract.
func encDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Float64(d.InexactFloat64())
}

func encProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("image", func(e *jx.Encoder) { e.Str(p.Image) })
		e.Field("price", func(e *jx.Encoder) { encDecimal(e, p.Price) })
	})
}

func encCartView(e *jx.Encoder, v session.View) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, line := range v.Lines {
					encLineView(e, line)
				}
			})
		})
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(v.ItemCount) })
		e.Field("discountEnabled", func(e *jx.Encoder) { e.Bool(v.DiscountEnabled) })
		e.Field("totals", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("originalTotal", func(e *jx.Encoder) { encDecimal(e, v.Totals.OriginalTotal) })
				e.Field("discountedTotal", func(e *jx.Encoder) { encDecimal(e, v.Totals.DiscountedTotal) })
				e.Field("totalDiscount", func(e *jx.Encoder) { encDecimal(e, v.Totals.TotalDiscount) })
				e.Field("discountPercentage", func(e *jx.Encoder) { e.Int(v.Totals.DiscountPercentage) })
			})
		})
	})
}

func encLineView(e *jx.Encoder, line session.LineView) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product", func(e *jx.Encoder) { encProduct(e, line.Product) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
		e.Field("unitPrice", func(e *jx.Encoder) { encDecimal(e, line.UnitPrice) })
		e.Field("originalPrice", func(e *jx.Encoder) { encDecimal(e, line.OriginalPrice) })
		e.Field("lineTotal", func(e *jx.Encoder) { encDecimal(e, line.LineTotal) })
		e.Field("hasDiscount", func(e *jx.Encoder) { e.Bool(line.HasDiscount) })
		e.Field("discountPercentage", func(e *jx.Encoder) { e.Int(line.DiscountPercentage) })
		if line.Summary != "" {
			e.Field("summary", func(e *jx.Encoder) { e.Str(line.Summary) })
		}
	})
}

func encOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int(o.Seq) })
		e.Field("orderId", func(e *jx.Encoder) { e.Str(o.OrderID) })
		e.Field("date", func(e *jx.Encoder) { e.Str(o.Date) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Str(o.Timestamp.Format(time.RFC3339)) })
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, line := range o.Lines {
					encOrderLine(e, line)
				}
			})
		})
		e.Field("totalOriginal", func(e *jx.Encoder) { encDecimal(e, o.TotalOriginal) })
		e.Field("totalPaid", func(e *jx.Encoder) { encDecimal(e, o.TotalPaid) })
		e.Field("totalSavings", func(e *jx.Encoder) { encDecimal(e, o.TotalSavings) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
	})
}

func encOrderLine(e *jx.Encoder, line order.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(line.ProductID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(line.Name) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(line.Brand) })
		e.Field("category", func(e *jx.Encoder) { e.Str(line.Category) })
		e.Field("image", func(e *jx.Encoder) { e.Str(line.Image) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
		e.Field("originalPrice", func(e *jx.Encoder) { encDecimal(e, line.OriginalPrice) })
		e.Field("discountedPrice", func(e *jx.Encoder) { encDecimal(e, line.DiscountedPrice) })
		e.Field("discount", func(e *jx.Encoder) { e.Int(line.DiscountPercentage) })
	})
}

func encStats(e *jx.Encoder, s order.Stats) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("totalOrders", func(e *jx.Encoder) { e.Int(s.TotalOrders) })
		e.Field("totalProducts", func(e *jx.Encoder) { e.Int(s.TotalProducts) })
		e.Field("totalSpent", func(e *jx.Encoder) { encDecimal(e, s.TotalSpent) })
		e.Field("totalSaved", func(e *jx.Encoder) { encDecimal(e, s.TotalSaved) })
	})
}
