package session

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarshop/bazar-api/internal/domain/order"
	"github.com/bazarshop/bazar-api/internal/domain/product"
	"github.com/bazarshop/bazar-api/internal/domain/quote"
	"github.com/bazarshop/bazar-api/internal/storage"
	"github.com/bazarshop/bazar-api/internal/storage/memstore"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testProduct(id, price string) product.Product {
	return product.Product{
		ID:    id,
		Name:  "product " + id,
		Price: d(price),
	}
}

type stubFetcher struct {
	quotes map[string]quote.Quote
	err    error
}

func (f *stubFetcher) Fetch(_ context.Context, productID string) (quote.Quote, error) {
	if f.err != nil {
		return quote.Quote{}, f.err
	}
	q, ok := f.quotes[productID]
	if !ok {
		return quote.Quote{OriginalPrice: decimal.Zero}, nil
	}
	return q, nil
}

var fixedClock = func() time.Time {
	return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
}

func discountedFetcher() *stubFetcher {
	return &stubFetcher{quotes: map[string]quote.Quote{
		"1": {
			DiscountApplied: true,
			OriginalPrice:   d("100"),
			Offer: &quote.Offer{
				OfferID:            "OFF1",
				DiscountPercentage: 11,
				DiscountAmount:     d("11"),
				FinalPrice:         d("89"),
			},
			Summary: "11% off",
		},
	}}
}

func TestAddToCart(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memstore.New(), discountedFetcher(), WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	v, err := s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)

	require.Len(t, v.Lines, 1)
	assert.Equal(t, 1, v.ItemCount)
	assert.True(t, d("100").Equal(v.Lines[0].UnitPrice), "discount flag starts off")

	// Second add increments quantity, quote stays cached.
	v, err = s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 2, v.Lines[0].Quantity)
}

func TestDiscountFlagGatesPricing(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memstore.New(), discountedFetcher(), WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	_, err := s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)

	require.NoError(t, s.SetDiscountEnabled(ctx, true))
	assert.True(t, s.DiscountEnabled())

	v := s.Cart()
	require.Len(t, v.Lines, 1)
	assert.True(t, d("89").Equal(v.Lines[0].UnitPrice), "unit: %s", v.Lines[0].UnitPrice)
	assert.True(t, v.Lines[0].HasDiscount)
	assert.Equal(t, 11, v.Lines[0].DiscountPercentage)
	assert.Equal(t, "11% off", v.Lines[0].Summary)

	require.NoError(t, s.SetDiscountEnabled(ctx, false))
	v = s.Cart()
	assert.True(t, d("100").Equal(v.Lines[0].UnitPrice))
	assert.False(t, v.Lines[0].HasDiscount)
}

func TestFailedQuoteFetchStillAddsLine(t *testing.T) {
	ctx := context.Background()
	f := &stubFetcher{err: context.DeadlineExceeded}
	m := NewManager(memstore.New(), f, WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	v, err := s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)

	require.Len(t, v.Lines, 1)
	assert.True(t, d("100").Equal(v.Lines[0].UnitPrice))
	assert.False(t, v.Lines[0].HasDiscount)
}

func TestRemoveAndChangeQuantity(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memstore.New(), discountedFetcher(), WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	_, err := s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, testProduct("2", "50"))
	require.NoError(t, err)

	v, err := s.ChangeQuantity(ctx, "2", 2)
	require.NoError(t, err)
	assert.Equal(t, 4, v.ItemCount)

	v, err = s.ChangeQuantity(ctx, "2", -3)
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, "1", v.Lines[0].Product.ID)

	v, err = s.RemoveFromCart(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart is a silent no-op", func(t *testing.T) {
		m := NewManager(memstore.New(), discountedFetcher(), WithClock(fixedClock))
		s := m.Session(ctx, "u1")

		_, settled, err := s.Checkout(ctx)
		require.NoError(t, err)
		assert.False(t, settled)
		assert.Empty(t, s.History())
	})

	t.Run("settles, records, and clears the cart", func(t *testing.T) {
		m := NewManager(memstore.New(), discountedFetcher(), WithClock(fixedClock))
		s := m.Session(ctx, "u1")

		_, err := s.AddToCart(ctx, testProduct("1", "100"))
		require.NoError(t, err)
		require.NoError(t, s.SetDiscountEnabled(ctx, true))

		o, settled, err := s.Checkout(ctx)
		require.NoError(t, err)
		require.True(t, settled)

		assert.Equal(t, "ORD-2024-001", o.OrderID)
		assert.True(t, d("89").Equal(o.TotalPaid))

		assert.Empty(t, s.Cart().Lines)
		require.Len(t, s.History(), 1)
	})

	t.Run("consecutive checkouts advance the sequence", func(t *testing.T) {
		m := NewManager(memstore.New(), discountedFetcher(), WithClock(fixedClock))
		s := m.Session(ctx, "u1")

		for i := 1; i <= 3; i++ {
			_, err := s.AddToCart(ctx, testProduct("1", "100"))
			require.NoError(t, err)

			o, settled, err := s.Checkout(ctx)
			require.NoError(t, err)
			require.True(t, settled)
			assert.Equal(t, i, o.Seq)
		}

		h := s.History()
		require.Len(t, h, 3)
		assert.Equal(t, "ORD-2024-003", h[0].OrderID, "newest first")
	})
}

func TestStatePersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	kv := memstore.New()

	m1 := NewManager(kv, discountedFetcher(), WithClock(fixedClock))
	s1 := m1.Session(ctx, "u1")

	_, err := s1.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)
	require.NoError(t, s1.SetDiscountEnabled(ctx, true))

	_, settled, err := s1.Checkout(ctx)
	require.NoError(t, err)
	require.True(t, settled)

	_, err = s1.AddToCart(ctx, testProduct("2", "50"))
	require.NoError(t, err)

	// Fresh manager over the same storage sees everything.
	m2 := NewManager(kv, discountedFetcher(), WithClock(fixedClock))
	s2 := m2.Session(ctx, "u1")

	assert.True(t, s2.DiscountEnabled())

	v := s2.Cart()
	require.Len(t, v.Lines, 1)
	assert.Equal(t, "2", v.Lines[0].Product.ID)

	h := s2.History()
	require.Len(t, h, 1)
	assert.Equal(t, "ORD-2024-001", h[0].OrderID)
}

func TestCorruptBlobFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	kv := memstore.New()
	require.NoError(t, kv.Set(ctx, "u1", "cart", []byte(`{not json`)))
	require.NoError(t, kv.Set(ctx, "u1", "orderHistory", []byte(`42`)))

	m := NewManager(kv, discountedFetcher(), WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	assert.Empty(t, s.Cart().Lines)
	assert.Empty(t, s.History())
	assert.False(t, s.DiscountEnabled())
}

func TestTypeMismatchedBlobResetsToDefault(t *testing.T) {
	ctx := context.Background()
	kv := memstore.New()

	// Valid JSON whose second element fails decoding partway through. No
	// half-decoded lines may survive; the cart resets to empty.
	blob := `[{"product":{"id":"1","price":"10"},"quantity":2},{"product":{"id":"2","price":"5"},"quantity":false}]`
	require.NoError(t, kv.Set(ctx, "u1", "cart", []byte(blob)))

	m := NewManager(kv, discountedFetcher(), WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	v := s.Cart()
	assert.Empty(t, v.Lines)
	assert.Equal(t, 0, v.ItemCount)
}

type flakyKV struct {
	storage.KV
	failKey string
}

func (f *flakyKV) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if key != "" && key == f.failKey {
		return errors.New("write failed")
	}
	return f.KV.Set(ctx, sessionID, key, value)
}

func TestCheckoutRestoresHistoryWhenCartClearFails(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KV: memstore.New()}
	m := NewManager(kv, discountedFetcher(), WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	_, err := s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)

	kv.failKey = keyCart
	_, settled, err := s.Checkout(ctx)
	require.Error(t, err)
	assert.False(t, settled)
	assert.Empty(t, s.History())
	require.Len(t, s.Cart().Lines, 1)

	// A fresh manager over the same storage must not see the aborted order.
	s2 := NewManager(kv, discountedFetcher(), WithClock(fixedClock)).Session(ctx, "u1")
	assert.Empty(t, s2.History())
	require.Len(t, s2.Cart().Lines, 1)

	// Retrying settles the cart exactly once.
	kv.failKey = ""
	o, settled, err := s.Checkout(ctx)
	require.NoError(t, err)
	require.True(t, settled)
	assert.Equal(t, "ORD-2024-001", o.OrderID)
	require.Len(t, s.History(), 1)
	assert.Empty(t, s.Cart().Lines)
}

func TestSortedHistoryAndStats(t *testing.T) {
	ctx := context.Background()
	now := fixedClock()
	m := NewManager(memstore.New(), discountedFetcher(), WithClock(func() time.Time {
		now = now.Add(time.Hour)
		return now
	}))
	s := m.Session(ctx, "u1")

	_, err := s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)
	_, _, err = s.Checkout(ctx)
	require.NoError(t, err)

	_, err = s.AddToCart(ctx, testProduct("2", "50"))
	require.NoError(t, err)
	_, _, err = s.Checkout(ctx)
	require.NoError(t, err)

	asc := s.SortedHistory(order.SortAsc)
	require.Len(t, asc, 2)
	assert.Equal(t, "ORD-2024-001", asc[0].OrderID)

	stats := s.Stats()
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.True(t, d("150").Equal(stats.TotalSpent), "spent: %s", stats.TotalSpent)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memstore.New(), discountedFetcher(), WithClock(fixedClock))
	s := m.Session(ctx, "u1")

	_, err := s.AddToCart(ctx, testProduct("1", "100"))
	require.NoError(t, err)
	o, _, err := s.Checkout(ctx)
	require.NoError(t, err)

	require.NoError(t, s.UpdateOrderStatus(ctx, o.OrderID, order.Status("Returned")))

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, order.Status("Returned"), h[0].Status)

	// Unknown id is a persisted no-op.
	require.NoError(t, s.UpdateOrderStatus(ctx, "ORD-9999-999", order.Status("Lost")))
	assert.Equal(t, order.Status("Returned"), s.History()[0].Status)
}
