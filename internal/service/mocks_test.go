package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/cache"
	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
)

type mockCartRepository struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartRepository) CreateCart(context.Context) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.cart = &domain.Cart{ID: "new-cart", Items: []domain.CartItem{}}
	return m.cart, nil
}

func (m *mockCartRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	return m.cart, nil
}

func (m *mockCartRepository) AddItem(_ context.Context, _ string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == item.ProductID {
			m.cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	m.cart.Items = append(m.cart.Items, item)
	return nil
}

func (m *mockCartRepository) ReplaceItems(_ context.Context, _ string, items []domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cart.Items = items
	return nil
}

func (m *mockCartRepository) UpdateItemQuantity(_ context.Context, _ string, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepository) RemoveItem(_ context.Context, _ string, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, item := range m.cart.Items {
		if item.ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockCartRepository) ClearItems(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cart.Items = []domain.CartItem{}
	return nil
}

func (m *mockCartRepository) items() []domain.CartItem {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart.Items
}

type mockCache struct {
	m       sync.RWMutex
	cart    *domain.Cart
	err     error
	deletes int
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	m.deletes++
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

// mockProductRepository implements repository.ProductRepository over a map.
type mockProductRepository struct {
	m        sync.RWMutex
	products map[string]*domain.Product
	lists    int
	err      error
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: map[string]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) ListProducts(_ context.Context, q domain.ProductQuery) (*domain.ProductPage, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lists++
	if m.err != nil {
		return nil, m.err
	}
	page := &domain.ProductPage{Page: 1, TotalPages: 1}
	for _, p := range m.products {
		page.Products = append(page.Products, p)
	}
	return page, nil
}

func (m *mockProductRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.products {
		if existing.Code == p.Code {
			return repository.ErrDuplicateProductCode
		}
	}
	p.ID = "id-" + p.Code
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) UpdateProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	return p, nil
}

func (m *mockProductRepository) DeleteProduct(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) ReplaceAll(ctx context.Context, products []*domain.Product) error {
	m.m.Lock()
	m.products = map[string]*domain.Product{}
	m.m.Unlock()
	for _, p := range products {
		if err := m.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockProductRepository) DecrementStock(context.Context, string, int) error { return nil }
func (m *mockProductRepository) IncrementStock(context.Context, string, int) error { return nil }

func (m *mockProductRepository) listCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.lists
}

type mockCatalogCache struct {
	m             sync.Mutex
	pages         map[domain.ProductQuery]*domain.ProductPage
	invalidations int
}

func newMockCatalogCache() *mockCatalogCache {
	return &mockCatalogCache{pages: map[domain.ProductQuery]*domain.ProductPage{}}
}

func (m *mockCatalogCache) GetPage(_ context.Context, q domain.ProductQuery) (*domain.ProductPage, error) {
	m.m.Lock()
	defer m.m.Unlock()
	page, ok := m.pages[q]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return page, nil
}

func (m *mockCatalogCache) SetPage(_ context.Context, q domain.ProductQuery, page *domain.ProductPage) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.pages[q] = page
	return nil
}

func (m *mockCatalogCache) Invalidate(context.Context) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.pages = map[domain.ProductQuery]*domain.ProductPage{}
	m.invalidations++
	return nil
}

type mockUserRepository struct {
	m     sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[string]*domain.User{}}
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrEmailTaken
		}
	}
	m.seq++
	u.ID = fmt.Sprintf("user-%d", m.seq)
	copied := *u
	m.users[u.ID] = &copied
	return nil
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) SetResetToken(_ context.Context, id, token string, expires time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetPasswordToken = token
	u.ResetPasswordExpires = expires
	return nil
}

func (m *mockUserRepository) FindByResetToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if token != "" && u.ResetPasswordToken == token && u.ResetPasswordExpires.After(now) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) ResetPassword(_ context.Context, id, hash string) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = time.Time{}
	return nil
}

func (m *mockUserRepository) ListUsers(context.Context) ([]*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	users := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (m *mockUserRepository) UpdateUser(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if patch.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, repository.ErrEmailTaken
			}
		}
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Age != nil {
		u.Age = *patch.Age
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) DeleteUser(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type stubTokenIssuer struct{}

func (stubTokenIssuer) Issue(user *domain.User) (string, error) {
	return "token-for-" + user.ID, nil
}

type recordingMailer struct {
	m     sync.Mutex
	email string
	token string
	err   error
}

func (r *recordingMailer) SendPasswordReset(_ context.Context, email, token string) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.email = email
	r.token = token
	return r.err
}
