// Package quote models per-product discount quotes fetched from the remote
// pricing service, and the session-scoped cache that holds them.
package quote

import (
	"context"

	"github.com/shopspring/decimal"
)

// Offer describes a single discount offer attached to a quote.
type Offer struct {
	OfferID            string          `json:"offerId"`
	OfferName          string          `json:"offerName"`
	Partner            string          `json:"partner"`
	DiscountType       string          `json:"discountType,omitempty"`
	DiscountPercentage int             `json:"discountPercentage"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	CashbackAmount     decimal.Decimal `json:"cashbackAmount"`
	FinalPrice         decimal.Decimal `json:"finalPrice"`
}

// Quote is the validated discount quote for one product. Offer is only set
// when the service reported an applicable discount; AlternativeOffers lists
// the remaining candidates in service order. When DiscountApplied is true,
// Offer.FinalPrice is the authoritative discounted unit price even if it
// disagrees with OriginalPrice minus DiscountAmount.
type Quote struct {
	DiscountApplied   bool            `json:"discountApplied"`
	OriginalPrice     decimal.Decimal `json:"originalPrice"`
	Offer             *Offer          `json:"offer,omitempty"`
	AlternativeOffers []Offer         `json:"alternativeOffers,omitempty"`
	Summary           string          `json:"summary,omitempty"`
}

// Cache maps product ids to the last fetched quote. A quote, once present,
// is reused for the whole session and never refetched, even if the product
// price changes upstream.
type Cache map[string]Quote

// Clone returns a shallow copy of the cache. A nil cache clones to an empty
// non-nil cache.
func (c Cache) Clone() Cache {
	out := make(Cache, len(c))
	for id, q := range c {
		out[id] = q
	}
	return out
}

// Get returns the cached quote for a product id, or nil when absent.
func (c Cache) Get(productID string) *Quote {
	if q, ok := c[productID]; ok {
		return &q
	}
	return nil
}

// Fetcher obtains a discount quote for a single product from the remote
// pricing service.
type Fetcher interface {
	Fetch(ctx context.Context, productID string) (Quote, error)
}
