package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OfferEligibility is one partner feed row: a product confirmed eligible for
// an offer, with the feed's advertised discount percentage.
type OfferEligibility struct {
	ProductID   string
	OfferID     string
	Partner     string
	DiscountPct decimal.Decimal
}

// OfferStore writes offer eligibility rows loaded from partner feeds.
type OfferStore struct {
	pool *pgxpool.Pool
}

// NewOfferStore returns an OfferStore backed by the given pool.
func NewOfferStore(pool *pgxpool.Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

// Upsert inserts or replaces an eligibility row.
func (s *OfferStore) Upsert(ctx context.Context, e OfferEligibility) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO offer_eligibility (product_id, offer_id, partner, discount_pct, ingested_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (product_id, offer_id) DO UPDATE SET
		   partner = EXCLUDED.partner,
		   discount_pct = EXCLUDED.discount_pct,
		   ingested_at = now()`,
		e.ProductID, e.OfferID, e.Partner, e.DiscountPct,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert eligibility %s/%s", e.ProductID, e.OfferID)
	}
	return nil
}
