package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_EmptyCart(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store)

	_, err := r.Reconcile(context.Background(), &domain.Cart{ID: "c1"})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, store.writeCount())
}

func TestReconcile_PartitionsInCartOrder(t *testing.T) {
	store := newMemStore()
	store.addProduct("P1", "10.00", 5)
	store.addProduct("P2", "2.50", 2)
	store.addProduct("P3", "0.10", 3)
	r := NewReconciler(store)

	cart := &domain.Cart{ID: "c1", Items: []domain.CartItem{
		{ProductID: "P3", Quantity: 3},
		{ProductID: "missing", Quantity: 1},
		{ProductID: "P2", Quantity: 100},
		{ProductID: "P1", Quantity: 2},
	}}

	got, err := r.Reconcile(context.Background(), cart)
	require.NoError(t, err)

	require.Len(t, got.Purchasable, 2)
	assert.Equal(t, "P3", got.Purchasable[0].ProductID)
	assert.Equal(t, "P1", got.Purchasable[1].ProductID)
	assert.True(t, decimal.RequireFromString("0.10").Equal(got.Purchasable[0].UnitPrice))

	assert.Equal(t, []domain.Rejection{
		{ProductID: "missing", Reason: "not found"},
		{ProductID: "P2", Reason: "insufficient stock, available=2 requested=100"},
	}, got.Rejected)

	assert.True(t, decimal.RequireFromString("20.30").Equal(got.Total), "total %s", got.Total)
	assert.Zero(t, store.writeCount())
}

func TestReconcile_NothingPurchasable(t *testing.T) {
	store := newMemStore()
	store.addProduct("P1", "10", 5)
	r := NewReconciler(store)

	got, err := r.Reconcile(context.Background(), &domain.Cart{ID: "c1", Items: []domain.CartItem{
		{ProductID: "P1", Quantity: 10},
	}})
	assert.ErrorIs(t, err, ErrNoPurchasableItems)
	require.NotNil(t, got)
	assert.Len(t, got.Rejected, 1)
}

func TestReconcile_StockExactlyCovers(t *testing.T) {
	store := newMemStore()
	store.addProduct("P1", "10", 5)
	r := NewReconciler(store)

	got, err := r.Reconcile(context.Background(), &domain.Cart{ID: "c1", Items: []domain.CartItem{
		{ProductID: "P1", Quantity: 5},
	}})
	require.NoError(t, err)
	assert.Len(t, got.Purchasable, 1)
	assert.Empty(t, got.Rejected)
}

func TestReconcile_InvalidQuantityIsRejected(t *testing.T) {
	store := newMemStore()
	store.addProduct("P1", "10", 5)
	r := NewReconciler(store)

	got, err := r.Reconcile(context.Background(), &domain.Cart{ID: "c1", Items: []domain.CartItem{
		{ProductID: "P1", Quantity: 0},
		{ProductID: "P1", Quantity: 1},
	}})
	require.NoError(t, err)
	require.Len(t, got.Rejected, 1)
	assert.Equal(t, "invalid quantity 0", got.Rejected[0].Reason)
}

func TestReconcile_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.addProduct("P1", "10", 5)
	store.getProductErr = errors.New("connection reset")
	r := NewReconciler(store)

	_, err := r.Reconcile(context.Background(), &domain.Cart{ID: "c1", Items: []domain.CartItem{
		{ProductID: "P1", Quantity: 1},
	}})

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseReconcile, pe.Phase)
	assert.False(t, pe.Partial)
	assert.NotErrorIs(t, err, ErrInconsistentState)
}

func TestReconcile_CancelledContext(t *testing.T) {
	store := newMemStore()
	store.addProduct("P1", "10", 5)
	r := NewReconciler(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Reconcile(ctx, &domain.Cart{ID: "c1", Items: []domain.CartItem{
		{ProductID: "P1", Quantity: 1},
	}})
	assert.ErrorIs(t, err, context.Canceled)
}
