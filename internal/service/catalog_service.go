package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/cache"
	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductInput is the admin payload for a new product. Every field but
// the images is required.
type CreateProductInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Code        string          `json:"code"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Available   *bool           `json:"available"`
	Image       string          `json:"image"`
	Thumbnails  []string        `json:"thumbnails"`
}

func (in CreateProductInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(in.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(in.Category) == "" {
		missing = append(missing, "category")
	}
	if in.Available == nil {
		missing = append(missing, "available")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if err := validatePrice(in.Price); err != nil {
		return err
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	return nil
}

// Prices are whole cents: ticket amounts are summed from them and stored at
// that scale.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if !price.Equal(price.Truncate(2)) {
		return fmt.Errorf("%w: price must have at most two decimal places", ErrInvalidInput)
	}
	return nil
}

type CatalogService struct {
	repo   repository.ProductRepository
	cache  cache.CatalogCache
	logger *zap.Logger
}

func NewCatalogService(repo repository.ProductRepository, cache cache.CatalogCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, logger: logger}
}

func (s *CatalogService) ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error) {
	if query.Sort != "" && query.Sort != "asc" && query.Sort != "desc" {
		return nil, fmt.Errorf("%w: sort must be asc or desc", ErrInvalidInput)
	}

	page, err := s.cache.GetPage(ctx, query)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("catalog cache get error", zap.Error(err))
	}

	page, err = s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPage(ctx, query, page); err != nil {
		s.logger.Warn("catalog cache set error", zap.Error(err))
	}
	return page, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Available:   *in.Available,
		Image:       in.Image,
		Thumbnails:  in.Thumbnails,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate()
	s.logger.Info("product created", zap.String("productId", product.ID), zap.String("code", product.Code))
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}

	product, err := s.repo.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.invalidate()
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.invalidate()
	s.logger.Info("product deleted", zap.String("productId", id))
	return nil
}

// Seed replaces the whole catalog with the sample products.
func (s *CatalogService) Seed(ctx context.Context) ([]*domain.Product, error) {
	products := SampleProducts()
	if err := s.repo.ReplaceAll(ctx, products); err != nil {
		return nil, err
	}

	s.invalidate()
	s.logger.Info("catalog seeded", zap.Int("products", len(products)))
	return products, nil
}

func (s *CatalogService) invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidate error", zap.Error(err))
	}
}

func SampleProducts() []*domain.Product {
	return []*domain.Product{
		{
			Title:       "Smartphone XYZ",
			Description: "Un smartphone potente con la última tecnología",
			Code:        "SMART001",
			Price:       decimal.RequireFromString("599.99"),
			Stock:       50,
			Category:    "Electrónicos",
			Available:   true,
			Thumbnails:  []string{"/images/smartphone.jpg"},
		},
		{
			Title:       "Laptop Pro",
			Description: "Laptop profesional para trabajo y gaming",
			Code:        "LAPTOP001",
			Price:       decimal.RequireFromString("1299.99"),
			Stock:       25,
			Category:    "Computadoras",
			Available:   true,
			Thumbnails:  []string{"/images/laptop.jpg"},
		},
		{
			Title:       "Auriculares Wireless",
			Description: "Auriculares bluetooth con cancelación de ruido",
			Code:        "AUDIO001",
			Price:       decimal.RequireFromString("199.99"),
			Stock:       100,
			Category:    "Accesorios",
			Available:   true,
			Thumbnails:  []string{"/images/auriculares.jpg"},
		},
	}
}
