// Package handler exposes the shopping core over HTTP. The API surface is
// small and hand-written: net/http routing with jx for JSON encoding.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/bazarshop/bazar-api/internal/domain/product"
	"github.com/bazarshop/bazar-api/internal/session"
)

// defaultSessionID is used when a request carries no X-Session-ID header.
// The application models a single implicit local user.
const defaultSessionID = "default"

// Catalog lists products; failures are absorbed by the implementation
// (static fallback), so List never errors.
type Catalog interface {
	List(ctx context.Context) []product.Product
}

// Handler routes API requests to the session layer.
type Handler struct {
	sessions *session.Manager
	catalog  Catalog
}

// New constructs a Handler.
func New(sessions *session.Manager, catalog Catalog) *Handler {
	return &Handler{
		sessions: sessions,
		catalog:  catalog,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.listProducts)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.changeQuantity)

	mux.HandleFunc("PUT /api/discount", h.setDiscount)
	mux.HandleFunc("GET /api/discount", h.getDiscount)

	mux.HandleFunc("POST /api/checkout", h.checkout)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/stats", h.orderStats)
	mux.HandleFunc("PATCH /api/orders/{orderId}/status", h.updateOrderStatus)

	return mux
}

// sess resolves the session for a request.
func (h *Handler) sess(r *http.Request) *session.Session {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		id = defaultSessionID
	}
	return h.sessions.Session(r.Context(), id)
}

// writeJSON encodes a response body built by fn with status code.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError sends the {code, message} error envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}
