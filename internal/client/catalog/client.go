// Package catalog is the HTTP client for the product catalog service. When
// the remote catalog is unreachable it substitutes an embedded static
// fallback, so callers never see a failure.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bazarshop/bazar-api/internal/domain/product"
)

//go:embed fallback.json
var fallbackJSON []byte

const maxResponseBytes = 4 << 20

// Client lists products from the remote catalog with a static fallback.
type Client struct {
	http     *http.Client
	baseURL  string
	fallback []product.Product
}

// New creates a Client. It panics if the embedded fallback catalog cannot be
// decoded, which would mean a broken build.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		fallback: mustDecodeFallback(),
	}
}

// List returns the remote catalog, or the embedded fallback on any failure.
// An empty base URL means no remote catalog is configured.
func (c *Client) List(ctx context.Context) []product.Product {
	if c.baseURL == "" {
		return c.fallback
	}
	products, err := c.fetch(ctx)
	if err != nil {
		zctx.From(ctx).Warn("Catalog fetch failed, using fallback catalog",
			zap.Int("fallback_products", len(c.fallback)),
			zap.Error(err),
		)
		return c.fallback
	}
	return products
}

func (c *Client) fetch(ctx context.Context) ([]product.Product, error) {
	endpoint, err := url.JoinPath(c.baseURL, "products")
	if err != nil {
		return nil, err
	}
	endpoint += "/"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Products []product.Product `json:"products"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}

func mustDecodeFallback() []product.Product {
	var payload struct {
		Products []product.Product `json:"products"`
	}
	if err := json.Unmarshal(fallbackJSON, &payload); err != nil {
		panic("catalog: invalid embedded fallback catalog: " + err.Error())
	}
	return payload.Products
}
