package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
)

var (
	ErrCartNotFound         = errors.New("cart not found")
	ErrItemNotFound         = errors.New("item not found in cart")
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateProductCode = errors.New("product code already exists")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrDuplicateTicketCode  = errors.New("ticket code already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
)

// CartRepository defines the interface for cart data operations
type CartRepository interface {
	CreateCart(ctx context.Context) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, item domain.CartItem) error
	ReplaceItems(ctx context.Context, cartID string, items []domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	ClearItems(ctx context.Context, cartID string) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, products []*domain.Product) error

	// DecrementStock subtracts quantity only if the current stock covers it.
	// Returns ErrInsufficientStock when it does not; stock is never negative.
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
}

type TicketRepository interface {
	InsertTicket(ctx context.Context, ticket *domain.Ticket) error
	GetTicketByCode(ctx context.Context, code string) (*domain.Ticket, error)
	ListByPurchaser(ctx context.Context, purchaser string) ([]*domain.Ticket, error)
	ListUnpublished(ctx context.Context, limit int) ([]*domain.Ticket, error)
	MarkPublished(ctx context.Context, code string, at time.Time) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
	ResetPassword(ctx context.Context, id, passwordHash string) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}
