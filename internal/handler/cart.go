package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bazarshop/bazar-api/internal/domain/product"
)

const maxBodyBytes = 1 << 16

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.List(r.Context())

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range products {
						encProduct(e, p)
					}
				})
			})
		})
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	view := h.sess(r).Cart()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCartView(e, view) })
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var productID string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "productId" {
			id, err := d.Str()
			productID = id
			return err
		}
		return d.Skip()
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if productID == "" {
		writeError(w, http.StatusBadRequest, "productId required")
		return
	}

	p, ok := product.FindByID(h.catalog.List(r.Context()), productID)
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	view, err := h.sess(r).AddToCart(r.Context(), p)
	if err != nil {
		h.internalError(w, r, "add to cart", err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCartView(e, view) })
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.sess(r).RemoveFromCart(r.Context(), r.PathValue("id"))
	if err != nil {
		h.internalError(w, r, "remove from cart", err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCartView(e, view) })
}

func (h *Handler) changeQuantity(w http.ResponseWriter, r *http.Request) {
	var (
		delta    int
		hasDelta bool
	)
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "delta" {
			v, err := d.Int()
			delta = v
			hasDelta = true
			return err
		}
		return d.Skip()
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !hasDelta || delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must be a non-zero integer, got "+strconv.Itoa(delta))
		return
	}

	view, err := h.sess(r).ChangeQuantity(r.Context(), r.PathValue("id"), delta)
	if err != nil {
		h.internalError(w, r, "change quantity", err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCartView(e, view) })
}

func (h *Handler) getDiscount(w http.ResponseWriter, r *http.Request) {
	enabled := h.sess(r).DiscountEnabled()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("enabled", func(e *jx.Encoder) { e.Bool(enabled) })
		})
	})
}

func (h *Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	var (
		enabled bool
		seen    bool
	)
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "enabled" {
			v, err := d.Bool()
			enabled = v
			seen = true
			return err
		}
		return d.Skip()
	}); err != nil || !seen {
		writeError(w, http.StatusBadRequest, "enabled required")
		return
	}

	if err := h.sess(r).SetDiscountEnabled(r.Context(), enabled); err != nil {
		h.internalError(w, r, "set discount", err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("enabled", func(e *jx.Encoder) { e.Bool(enabled) })
		})
	})
}

// decodeBody decodes a small JSON request body object field by field.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	d := jx.DecodeBytes(body)
	return d.Obj(fn)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	zctx.From(r.Context()).Error("Request failed",
		zap.String("op", op),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
