package purchase

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/purchase-service/internal/repository"
)

var (
	ErrCartNotFound        = repository.ErrCartNotFound
	ErrDuplicateTicketCode = repository.ErrDuplicateTicketCode
	ErrEmptyCart           = errors.New("cart is empty")
	ErrNoPurchasableItems  = errors.New("no purchasable items in cart")

	// ErrInconsistentState matches any PersistenceError that left stock or
	// cart state partially applied.
	ErrInconsistentState = errors.New("stock or cart state may be inconsistent")
)

type Phase string

const (
	PhaseLoad        Phase = "load"
	PhaseReconcile   Phase = "reconcile"
	PhaseCommitStock Phase = "commit-stock"
	PhaseIssueTicket Phase = "issue-ticket"
	PhaseClearCart   Phase = "clear-cart"
)

// PersistenceError wraps a storage failure during a purchase. Partial is set
// when writes made earlier in the same purchase could not be undone.
type PersistenceError struct {
	Phase   Phase
	Op      string
	Partial bool
	Err     error
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("purchase %s: failed to %s: %v", e.Phase, e.Op, e.Err)
	if e.Partial {
		msg += " (partial state)"
	}
	return msg
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return e.Partial && target == ErrInconsistentState
}
