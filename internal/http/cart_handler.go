package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	CreateCart(ctx context.Context) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) error
	ReplaceItems(ctx context.Context, cartID string, items []domain.CartItem) error
	UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	ClearCart(ctx context.Context, cartID string) error
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type CartLineDTO struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartRequestDTO either replaces every line (Products) or adds one
// product (Product and Quantity).
type UpdateCartRequestDTO struct {
	Products []CartLineDTO `json:"products"`
	Product  string        `json:"product"`
	Quantity int           `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.CreateCart(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cid")

	var req UpdateCartRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var err error
	switch {
	case req.Products != nil:
		items := make([]domain.CartItem, len(req.Products))
		for i, line := range req.Products {
			items[i] = domain.CartItem{ProductID: line.ProductID, Quantity: line.Quantity}
		}
		err = h.carts.ReplaceItems(r.Context(), cartID, items)
	case req.Product != "":
		err = h.carts.AddItem(r.Context(), cartID, req.Product, req.Quantity)
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "either products or product and quantity are required")
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(w, r, cartID)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cid")

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), cartID, chi.URLParam(r, "pid"), req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(w, r, cartID)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cid")

	if err := h.carts.RemoveItem(r.Context(), cartID, chi.URLParam(r, "pid")); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(w, r, cartID)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cid")

	if err := h.carts.ClearCart(r.Context(), cartID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(w, r, cartID)
}

func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, cartID string) {
	cart, err := h.carts.GetCart(r.Context(), cartID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}
