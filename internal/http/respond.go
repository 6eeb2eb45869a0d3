package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/purchase-service/internal/purchase"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"github.com/fjod/go_cart/purchase-service/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// handleServiceError maps service and store errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string
	message := err.Error()

	switch {
	case errors.Is(err, purchase.ErrEmptyCart):
		httpStatus, code = http.StatusConflict, "empty_cart"
	case errors.Is(err, purchase.ErrNoPurchasableItems):
		httpStatus, code = http.StatusConflict, "no_purchasable_items"
	case errors.Is(err, purchase.ErrInconsistentState):
		httpStatus, code = http.StatusInternalServerError, "inconsistent_state"
		message = "purchase was only partially applied; stock or cart contents may be inconsistent"
	case isPersistenceError(err):
		httpStatus, code = http.StatusInternalServerError, "persistence_error"
		message = "purchase could not be stored"
	case errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicateProductCode),
		errors.Is(err, repository.ErrEmailTaken):
		httpStatus, code = http.StatusConflict, "already_exists"
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrSamePassword):
		httpStatus, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, service.ErrInvalidCredential):
		httpStatus, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
		message = "request timed out"
	default:
		httpStatus, code = http.StatusInternalServerError, "internal_error"
		message = "internal server error"
	}

	if httpStatus >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("code", code), zap.Error(err))
	}
	respondError(w, httpStatus, code, message)
}

func isPersistenceError(err error) bool {
	var pe *purchase.PersistenceError
	return errors.As(err, &pe)
}
