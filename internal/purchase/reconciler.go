package purchase

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"github.com/shopspring/decimal"
)

// Reconciliation is a cart split against live stock. Both slices keep cart order.
type Reconciliation struct {
	Purchasable []domain.LineItem
	Rejected    []domain.Rejection
	Total       decimal.Decimal
}

type Reconciler struct {
	products ProductStore
}

func NewReconciler(products ProductStore) *Reconciler {
	return &Reconciler{products: products}
}

// Reconcile re-reads every product in the cart and decides which lines can be
// bought at current stock. It never writes.
func (r *Reconciler) Reconcile(ctx context.Context, cart *domain.Cart) (*Reconciliation, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	result := &Reconciliation{
		Purchasable: make([]domain.LineItem, 0, len(cart.Items)),
		Rejected:    make([]domain.Rejection, 0),
		Total:       decimal.Zero,
	}

	for _, item := range cart.Items {
		if err := ctx.Err(); err != nil {
			return nil, &PersistenceError{Phase: PhaseReconcile, Op: "read product", Err: err}
		}

		if item.Quantity <= 0 {
			result.Rejected = append(result.Rejected, domain.InvalidQuantityRejection(item.ProductID, item.Quantity))
			continue
		}

		product, err := r.products.GetProduct(ctx, item.ProductID)
		if errors.Is(err, repository.ErrProductNotFound) {
			result.Rejected = append(result.Rejected, domain.NotFoundRejection(item.ProductID))
			continue
		}
		if err != nil {
			return nil, &PersistenceError{Phase: PhaseReconcile, Op: "read product", Err: err}
		}

		if product.Stock < item.Quantity {
			result.Rejected = append(result.Rejected,
				domain.InsufficientStockRejection(item.ProductID, product.Stock, item.Quantity))
			continue
		}

		line := domain.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		}
		result.Purchasable = append(result.Purchasable, line)
		result.Total = result.Total.Add(line.Subtotal())
	}

	if len(result.Purchasable) == 0 {
		return result, ErrNoPurchasableItems
	}
	return result, nil
}
