package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/cache"
	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	minItemQuantity = 1
	maxItemQuantity = 99
)

// ProductReader is what the cart service needs to know about the catalog.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CartService struct {
	repo     repository.CartRepository
	products ProductReader
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
	logger   *zap.Logger
}

func NewCartService(repo repository.CartRepository, products ProductReader, cache cache.CartCache, logger *zap.Logger) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cache,
		logger:   logger,
	}
}

func (s *CartService) CreateCart(ctx context.Context) (*domain.Cart, error) {
	return s.repo.CreateCart(ctx)
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.String("cartId", cartID), zap.Error(err))
		}

		cart, err = s.repo.GetCart(ctx, cartID)
		if err != nil {
			return nil, err
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), cartID, cart); errSet != nil {
				s.logger.Warn("cache set error", zap.String("cartId", cartID), zap.Error(errSet))
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem adds quantity of a product to the cart, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return err
	}

	if err := s.repo.AddItem(ctx, cartID, domain.CartItem{ProductID: productID, Quantity: quantity}); err != nil {
		s.logger.Warn("repo add item error", zap.String("cartId", cartID), zap.Error(err))
		return err
	}

	s.invalidateCache(cartID)
	return nil
}

// ReplaceItems overwrites the cart's lines. Every product must exist.
func (s *CartService) ReplaceItems(ctx context.Context, cartID string, items []domain.CartItem) error {
	for _, item := range items {
		if err := validateQuantity(item.Quantity); err != nil {
			return fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if _, err := s.products.GetProduct(ctx, item.ProductID); err != nil {
			return err
		}
	}

	if err := s.repo.ReplaceItems(ctx, cartID, items); err != nil {
		s.logger.Warn("repo replace items error", zap.String("cartId", cartID), zap.Error(err))
		return err
	}

	s.invalidateCache(cartID)
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	if err := s.repo.UpdateItemQuantity(ctx, cartID, productID, quantity); err != nil {
		s.logger.Warn("repo update item quantity error", zap.String("cartId", cartID), zap.Error(err))
		return err
	}

	s.invalidateCache(cartID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) error {
	if err := s.repo.RemoveItem(ctx, cartID, productID); err != nil {
		s.logger.Warn("repo remove item error", zap.String("cartId", cartID), zap.Error(err))
		return err
	}

	s.invalidateCache(cartID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, cartID string) error {
	if err := s.repo.ClearItems(ctx, cartID); err != nil {
		s.logger.Warn("repo clear cart error", zap.String("cartId", cartID), zap.Error(err))
		return err
	}

	s.invalidateCache(cartID)
	return nil
}

func (s *CartService) invalidateCache(cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		s.logger.Warn("cache invalidate error", zap.String("cartId", cartID), zap.Error(err))
	}
}

func validateQuantity(quantity int) error {
	if quantity < minItemQuantity || quantity > maxItemQuantity {
		return ErrInvalidQuantity
	}
	return nil
}
