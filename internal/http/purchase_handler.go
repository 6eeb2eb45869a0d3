package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/purchase-service/internal/auth"
	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/purchase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PurchaseService interface {
	Purchase(ctx context.Context, cartID, purchaser string) (*domain.PurchaseResult, error)
}

type TicketReader interface {
	GetTicketByCode(ctx context.Context, code string) (*domain.Ticket, error)
}

// PartialPurchaseResponse is returned when a ticket was issued but the
// purchase could not be completed afterwards.
type PartialPurchaseResponse struct {
	ErrorResponse
	Ticket   *domain.Ticket     `json:"ticket"`
	Rejected []domain.Rejection `json:"rejected"`
}

type PurchaseHandler struct {
	purchases PurchaseService
	tickets   TicketReader
}

func NewPurchaseHandler(purchases PurchaseService, tickets TicketReader) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, tickets: tickets}
}

// Purchase checks out the cart for the authenticated caller. Lines that could
// not be bought are listed in the response; they do not fail the request.
func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok || claims.Email == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	result, err := h.purchases.Purchase(r.Context(), chi.URLParam(r, "cid"), claims.Email)
	if err != nil {
		if result != nil && result.Ticket != nil && errors.Is(err, purchase.ErrInconsistentState) {
			h.respondPartial(w, result, err)
			return
		}
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *PurchaseHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	ticket, err := h.tickets.GetTicketByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	// other purchasers' tickets are reported as missing
	if ticket.Purchaser != claims.Email && !claims.IsAdmin() {
		respondError(w, http.StatusNotFound, "not_found", "ticket not found")
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

func (h *PurchaseHandler) respondPartial(w http.ResponseWriter, result *domain.PurchaseResult, err error) {
	zap.L().Error("purchase partially applied",
		zap.String("ticket_code", result.Ticket.Code),
		zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, PartialPurchaseResponse{
		ErrorResponse: ErrorResponse{
			Error: "ticket " + result.Ticket.Code + " was issued but the cart could not be cleared",
			Code:  "inconsistent_state",
		},
		Ticket:   result.Ticket,
		Rejected: result.Rejected,
	})
}
