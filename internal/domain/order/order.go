// Package order implements order settlement: converting a live cart plus
// cached discount quotes into immutable order records, and the append-only
// history those records live in.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the delivery status of a settled order.
type Status string

// StatusDelivered is the status every order is created with; no intermediate
// pending or shipped states are modeled.
const StatusDelivered Status = "Delivered"

// Line is one settled product entry. It is computed once at settlement time
// from the cart line, its quote, and the discount flag, and never recomputed
// afterwards.
type Line struct {
	ProductID          string          `json:"productId"`
	Name               string          `json:"name"`
	Brand              string          `json:"brand,omitempty"`
	Category           string          `json:"category,omitempty"`
	Image              string          `json:"image,omitempty"`
	Quantity           int             `json:"quantity"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	DiscountedPrice    decimal.Decimal `json:"discountedPrice"`
	DiscountPercentage int             `json:"discount"`
}

// Order is an immutable settled order. Orders are append-only: after
// creation only the Status field may change, via History.UpdateStatus.
//
// Seq is 1-based and dense across the whole history. OrderID embeds the
// creation year but the sequence is NOT reset per year, so ids from
// different years can share a numeric suffix; that quirk is part of the id
// scheme and is preserved deliberately.
type Order struct {
	Seq           int             `json:"id"`
	OrderID       string          `json:"orderId"`
	Date          string          `json:"date"`
	Timestamp     time.Time       `json:"timestamp"`
	Lines         []Line          `json:"products"`
	TotalOriginal decimal.Decimal `json:"totalOriginal"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	TotalSavings  decimal.Decimal `json:"totalSavings"`
	Status        Status          `json:"status"`
}

// History is the ordered sequence of settled orders, newest first by
// insertion. It is not re-sorted by date unless SortByDate is invoked.
type History []Order
