package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/service"
	"github.com/go-chi/chi/v5"
)

// UserAdmin is the account management surface exposed to admins. Every
// method returns profiles, so password hashes never reach the wire.
type UserAdmin interface {
	ListUsers(ctx context.Context) ([]domain.Profile, error)
	GetUser(ctx context.Context, id string) (*domain.Profile, error)
	CreateUser(ctx context.Context, in service.RegisterInput) (*domain.Profile, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.Profile, error)
	DeleteUser(ctx context.Context, id string) error
}

type UserHandler struct {
	users UserAdmin
}

func NewUserHandler(users UserAdmin) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch domain.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.UpdateUser(r.Context(), chi.URLParam(r, "uid"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), chi.URLParam(r, "uid")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
