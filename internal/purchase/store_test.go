package purchase

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory CartStore, ProductStore and TicketStore with the
// same conditional-decrement and unique-code semantics as the Mongo stores.
type memStore struct {
	mu       sync.Mutex
	carts    map[string]*domain.Cart
	products map[string]*domain.Product
	tickets  map[string]*domain.Ticket
	writes   int

	getCartErr    error
	getProductErr error
	decrementErr  map[string]error
	incrementErr  error
	insertErr     error
	clearErr      error

	// afterGetProduct runs outside the lock after every product read.
	afterGetProduct func(id string)
}

func newMemStore() *memStore {
	return &memStore{
		carts:        map[string]*domain.Cart{},
		products:     map[string]*domain.Product{},
		tickets:      map[string]*domain.Ticket{},
		decrementErr: map[string]error{},
	}
}

func (s *memStore) addProduct(id, price string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &domain.Product{ID: id, Price: decimal.RequireFromString(price), Stock: stock, Available: true}
}

func (s *memStore) addCart(id string, items ...domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[id] = &domain.Cart{ID: id, Items: items}
}

func (s *memStore) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) cartItems(id string) []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[id].Items
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) ticketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *memStore) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getCartErr != nil {
		return nil, s.getCartErr
	}
	cart, ok := s.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (s *memStore) ClearItems(ctx context.Context, cartID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	cart, ok := s.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	s.writes++
	cart.Items = []domain.CartItem{}
	return nil
}

func (s *memStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.readProduct(ctx, id)
	if s.afterGetProduct != nil {
		s.afterGetProduct(id)
	}
	return p, err
}

func (s *memStore) readProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getProductErr != nil {
		return nil, s.getProductErr
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *memStore) DecrementStock(ctx context.Context, id string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.decrementErr[id]; err != nil {
		return err
	}
	p, ok := s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	s.writes++
	p.Stock -= quantity
	return nil
}

func (s *memStore) IncrementStock(ctx context.Context, id string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrementErr != nil {
		return s.incrementErr
	}
	p, ok := s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	s.writes++
	p.Stock += quantity
	return nil
}

func (s *memStore) InsertTicket(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, exists := s.tickets[ticket.Code]; exists {
		return repository.ErrDuplicateTicketCode
	}
	s.writes++
	ticket.ID = ticket.Code
	s.tickets[ticket.Code] = ticket
	return nil
}

type recordingInvalidator struct {
	mu      sync.Mutex
	deleted []string
}

func (r *recordingInvalidator) Delete(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, cartID)
	return nil
}
