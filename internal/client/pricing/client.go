// Package pricing is the HTTP client for the remote discount/pricing
// service. The service computes per-product discount quotes; this client
// only fetches and decodes them.
package pricing

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/bazarshop/bazar-api/internal/domain/quote"
)

// maxResponseBytes bounds how much of a quote payload is read.
const maxResponseBytes = 1 << 20

// ErrUnavailable is returned for any non-success response or transport
// failure. Callers treat it as "no quote available", never as fatal.
var ErrUnavailable = errors.New("pricing service unavailable")

var _ quote.Fetcher = (*Client)(nil)

// Client fetches discount quotes for the single implicit local user.
type Client struct {
	http    *http.Client
	baseURL string
	userID  string
}

// New creates a Client. The timeout bounds each quote request; there is no
// cancellation beyond it once a fetch is issued.
func New(baseURL, userID string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		userID:  userID,
	}
}

// Fetch requests a discount quote for one product. Any transport error,
// non-2xx status, or undecodable payload yields ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, productID string) (quote.Quote, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("user_id", func(e *jx.Encoder) { e.Str(c.userID) })
		e.Field("product_id", func(e *jx.Encoder) { e.Str(productID) })
	})

	endpoint, err := url.JoinPath(c.baseURL, "products", "purchase")
	if err != nil {
		return quote.Quote{}, errors.Wrap(err, "build purchase URL")
	}
	// Trailing slash matters to the upstream router.
	endpoint += "/"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(e.Bytes()))
	if err != nil {
		return quote.Quote{}, errors.Wrap(err, "create purchase request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return quote.Quote{}, errors.Wrap(err, "purchase request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return quote.Quote{}, errors.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return quote.Quote{}, errors.Wrap(err, "read quote payload")
	}

	q, err := quote.DecodePurchasePayload(body)
	if err != nil {
		return quote.Quote{}, errors.Wrap(err, "decode quote payload")
	}
	return q, nil
}
