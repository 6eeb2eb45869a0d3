package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
)

const compensationTimeout = 5 * time.Second

type Mutator struct {
	carts    CartStore
	products ProductStore
}

func NewMutator(carts CartStore, products ProductStore) *Mutator {
	return &Mutator{carts: carts, products: products}
}

// CommitStock decrements stock for each item with a conditional update. Items
// whose decrement no longer fits the current stock are returned as
// rejections instead of being committed. On a store failure every decrement
// already made is restored before the error is returned.
func (m *Mutator) CommitStock(ctx context.Context, items []domain.LineItem) ([]domain.LineItem, []domain.Rejection, error) {
	committed := make([]domain.LineItem, 0, len(items))
	lost := make([]domain.Rejection, 0)

	for _, item := range items {
		err := ctx.Err()
		if err == nil {
			err = m.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		}

		switch {
		case err == nil:
			committed = append(committed, item)
		case errors.Is(err, repository.ErrInsufficientStock):
			lost = append(lost, m.lostRejection(ctx, item))
		case errors.Is(err, repository.ErrProductNotFound):
			lost = append(lost, domain.NotFoundRejection(item.ProductID))
		default:
			pe := &PersistenceError{Phase: PhaseCommitStock, Op: "decrement stock", Err: err}
			if restoreErr := m.RestoreStock(ctx, committed); restoreErr != nil {
				pe.Err = errors.Join(err, restoreErr)
				pe.Partial = true
			}
			return nil, nil, pe
		}
	}

	return committed, lost, nil
}

// RestoreStock adds back stock taken by CommitStock. It runs even when ctx is
// already cancelled, bounded by its own timeout.
func (m *Mutator) RestoreStock(ctx context.Context, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for _, item := range items {
		if err := m.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &PersistenceError{Phase: PhaseCommitStock, Op: "restore stock", Err: errors.Join(errs...)}
	}
	return nil
}

func (m *Mutator) ClearCart(ctx context.Context, cart *domain.Cart) error {
	if err := m.carts.ClearItems(ctx, cart.ID); err != nil {
		return &PersistenceError{Phase: PhaseClearCart, Op: "clear cart", Err: err}
	}
	cart.Items = []domain.CartItem{}
	return nil
}

// ApplySideEffects commits stock for items and then empties the cart. Lines
// lost to concurrent purchases are returned; a cart-clear failure after stock
// was committed is reported as partial.
func (m *Mutator) ApplySideEffects(ctx context.Context, items []domain.LineItem, cart *domain.Cart) ([]domain.Rejection, error) {
	_, lost, err := m.CommitStock(ctx, items)
	if err != nil {
		return nil, err
	}

	if err := m.ClearCart(ctx, cart); err != nil {
		var pe *PersistenceError
		if errors.As(err, &pe) {
			pe.Partial = true
		}
		return lost, err
	}
	return lost, nil
}

// lostRejection explains a failed conditional decrement with a fresh read.
func (m *Mutator) lostRejection(ctx context.Context, item domain.LineItem) domain.Rejection {
	product, err := m.products.GetProduct(ctx, item.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return domain.NotFoundRejection(item.ProductID)
	}
	if err != nil {
		return domain.Rejection{ProductID: item.ProductID, Reason: domain.ReasonInsufficientStock}
	}
	return domain.InsufficientStockRejection(item.ProductID, product.Stock, item.Quantity)
}
