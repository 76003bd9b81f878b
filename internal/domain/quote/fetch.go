package quote

import (
	"context"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bazarshop/bazar-api/internal/domain/cart"
)

// EnsureQuoted fetches quotes for every cart line whose product id is absent
// from the cache, one concurrent fetch per missing id, and returns a new
// merged cache. A failed fetch is logged and leaves its id absent; it never
// aborts the other fetches and never surfaces as an error to the caller.
// Ids already present are never refetched.
func EnsureQuoted(ctx context.Context, c cart.Cart, cache Cache, f Fetcher) Cache {
	merged := cache.Clone()

	var missing []string
	for _, line := range c {
		id := line.Product.ID
		if _, ok := merged[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return merged
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	for _, id := range missing {
		g.Go(func() error {
			q, err := f.Fetch(ctx, id)
			if err != nil {
				zctx.From(ctx).Warn("Discount quote fetch failed",
					zap.String("product_id", id),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			merged[id] = q
			mu.Unlock()
			return nil
		})
	}
	// Fetch closures isolate their own failures, so Wait only joins.
	_ = g.Wait()

	return merged
}
