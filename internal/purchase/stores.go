package purchase

import (
	"context"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
)

// CartStore is the slice of cart persistence a purchase needs.
type CartStore interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	ClearItems(ctx context.Context, cartID string) error
}

// ProductStore must implement DecrementStock as a single conditional update:
// it subtracts only when stock covers quantity and otherwise returns
// repository.ErrInsufficientStock.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// TicketStore rejects a duplicate code with repository.ErrDuplicateTicketCode.
type TicketStore interface {
	InsertTicket(ctx context.Context, ticket *domain.Ticket) error
}

type CartInvalidator interface {
	Delete(ctx context.Context, cartID string) error
}
