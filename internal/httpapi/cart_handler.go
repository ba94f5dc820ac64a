package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
)

type quantityRequest struct {
	cart.Key
	Quantity int `json:"quantity"`
}

func (h *Handler) cartFor(r *http.Request) *cart.Cart {
	s := sessionFrom(r)
	return h.carts.Get(s.ID, s.ExpiresAt)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartFor(r).Snapshot())
}

func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	var item cart.Item
	if err := decodeJSON(r, &item); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	c := h.cartFor(r)
	if err := c.AddLine(item); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var in quantityRequest
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	c := h.cartFor(r)
	c.SetQuantity(in.Key, in.Quantity)
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	var key cart.Key
	if err := decodeJSON(r, &key); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	c := h.cartFor(r)
	c.RemoveLine(key)
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	c.Clear()
	writeJSON(w, http.StatusOK, c.Snapshot())
}
