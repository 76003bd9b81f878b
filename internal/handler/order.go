package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/bazarshop/bazar-api/internal/domain/order"
)

// checkout settles the live cart into a new order. An empty cart is not an
// error: the response reports settled=false and history stays unchanged.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	o, settled, err := h.sess(r).Checkout(r.Context())
	if err != nil {
		h.internalError(w, r, "checkout", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("settled", func(e *jx.Encoder) { e.Bool(settled) })
			if settled {
				e.Field("order", func(e *jx.Encoder) { encOrder(e, o) })
			}
		})
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	s := h.sess(r)

	var history order.History
	switch r.URL.Query().Get("sort") {
	case "":
		history = s.History()
	case string(order.SortAsc):
		history = s.SortedHistory(order.SortAsc)
	case string(order.SortDesc):
		history = s.SortedHistory(order.SortDesc)
	default:
		writeError(w, http.StatusBadRequest, "sort must be asc or desc")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orders", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, o := range history {
						encOrder(e, o)
					}
				})
			})
		})
	})
}

func (h *Handler) orderStats(w http.ResponseWriter, r *http.Request) {
	stats := h.sess(r).Stats()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encStats(e, stats) })
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var status string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "status" {
			v, err := d.Str()
			status = v
			return err
		}
		return d.Skip()
	}); err != nil || status == "" {
		writeError(w, http.StatusBadRequest, "status required")
		return
	}

	if err := h.sess(r).UpdateOrderStatus(r.Context(), r.PathValue("orderId"), order.Status(status)); err != nil {
		h.internalError(w, r, "update order status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
