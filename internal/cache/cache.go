package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	Set(ctx context.Context, cartID string, cart *domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}

// CatalogCache holds rendered catalog pages. Any catalog write drops every page.
type CatalogCache interface {
	GetPage(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error)
	SetPage(ctx context.Context, query domain.ProductQuery, page *domain.ProductPage) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
