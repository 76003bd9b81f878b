package quote

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarshop/bazar-api/internal/domain/cart"
	"github.com/bazarshop/bazar-api/internal/domain/product"
)

type mockFetcher struct {
	mu      sync.Mutex
	quotes  map[string]Quote
	errs    map[string]error
	fetched []string
}

func (m *mockFetcher) Fetch(_ context.Context, productID string) (Quote, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, productID)
	m.mu.Unlock()

	if err, ok := m.errs[productID]; ok {
		return Quote{}, err
	}
	return m.quotes[productID], nil
}

func testCart(ids ...string) cart.Cart {
	c := make(cart.Cart, 0, len(ids))
	for _, id := range ids {
		c = append(c, cart.Line{Product: product.Product{ID: id}, Quantity: 1})
	}
	return c
}

func TestEnsureQuoted(t *testing.T) {
	t.Run("fetches missing ids", func(t *testing.T) {
		f := &mockFetcher{quotes: map[string]Quote{
			"1": {OriginalPrice: d("10")},
			"2": {OriginalPrice: d("20")},
		}}

		got := EnsureQuoted(context.Background(), testCart("1", "2"), Cache{}, f)

		require.Len(t, got, 2)
		assert.True(t, d("10").Equal(got["1"].OriginalPrice))
		assert.True(t, d("20").Equal(got["2"].OriginalPrice))
	})

	t.Run("cached ids are not refetched", func(t *testing.T) {
		f := &mockFetcher{quotes: map[string]Quote{
			"2": {OriginalPrice: d("20")},
		}}
		cache := Cache{"1": {OriginalPrice: d("10")}}

		got := EnsureQuoted(context.Background(), testCart("1", "2"), cache, f)

		assert.Equal(t, []string{"2"}, f.fetched)
		assert.Len(t, got, 2)
	})

	t.Run("failed fetch leaves id absent and others succeed", func(t *testing.T) {
		f := &mockFetcher{
			quotes: map[string]Quote{"2": {OriginalPrice: d("20")}},
			errs:   map[string]error{"1": errors.New("service down")},
		}

		got := EnsureQuoted(context.Background(), testCart("1", "2"), Cache{}, f)

		require.Len(t, got, 1)
		_, ok := got["1"]
		assert.False(t, ok)
		assert.True(t, d("20").Equal(got["2"].OriginalPrice))
	})

	t.Run("no missing ids skips fetching entirely", func(t *testing.T) {
		f := &mockFetcher{}
		cache := Cache{"1": {OriginalPrice: d("10")}}

		got := EnsureQuoted(context.Background(), testCart("1"), cache, f)

		assert.Empty(t, f.fetched)
		assert.Len(t, got, 1)
	})

	t.Run("input cache is not mutated", func(t *testing.T) {
		f := &mockFetcher{quotes: map[string]Quote{"2": {OriginalPrice: d("20")}}}
		cache := Cache{"1": {OriginalPrice: d("10")}}

		_ = EnsureQuoted(context.Background(), testCart("1", "2"), cache, f)

		assert.Len(t, cache, 1)
	})
}
