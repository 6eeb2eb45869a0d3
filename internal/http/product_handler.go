package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/service"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in service.CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	Seed(ctx context.Context) ([]*domain.Product, error)
}

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := optionalInt(q.Get("limit"))
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return
	}
	page, err := optionalInt(q.Get("page"))
	if err != nil || page < 0 {
		respondError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
		return
	}

	result, err := h.catalog.ListProducts(r.Context(), domain.ProductQuery{
		Limit: limit,
		Page:  page,
		Sort:  q.Get("sort"),
		Query: q.Get("query"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProductInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "pid"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "pid")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) Seed(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Seed(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"payload": products})
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
