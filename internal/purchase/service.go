package purchase

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"go.uber.org/zap"
)

type Option func(*Service)

// WithCartCache drops the cached copy of a cart once a purchase clears it.
func WithCartCache(c CartInvalidator) Option {
	return func(s *Service) { s.cartCache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.issuer.now = now }
}

func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.issuer.newCode = gen }
}

// Service turns a cart into a ticket. Stock is committed with conditional
// decrements before the ticket is written, so concurrent purchases of the
// same product can never drive its stock negative.
type Service struct {
	carts      CartStore
	reconciler *Reconciler
	issuer     *Issuer
	mutator    *Mutator
	cartCache  CartInvalidator
	logger     *zap.Logger
}

func NewService(carts CartStore, products ProductStore, tickets TicketStore, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		carts:      carts,
		reconciler: NewReconciler(products),
		issuer:     NewIssuer(tickets),
		mutator:    NewMutator(carts, products),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase buys every line of the cart that stock allows. When the ticket has
// been issued but the cart could not be cleared, the result is returned
// together with an error matching ErrInconsistentState.
func (s *Service) Purchase(ctx context.Context, cartID, purchaser string) (*domain.PurchaseResult, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, &PersistenceError{Phase: PhaseLoad, Op: "get cart", Err: err}
	}

	reconciled, err := s.reconciler.Reconcile(ctx, cart)
	if err != nil {
		s.logger.Info("purchase rejected",
			zap.String("cartId", cartID),
			zap.Error(err))
		return nil, err
	}

	committed, lost, err := s.mutator.CommitStock(ctx, reconciled.Purchasable)
	if err != nil {
		s.logFailure(cartID, err)
		return nil, err
	}

	rejected := inCartOrder(cart.Items, reconciled.Rejected, lost)
	if len(committed) == 0 {
		s.logger.Info("purchase lost every line to concurrent purchases",
			zap.String("cartId", cartID),
			zap.Int("rejected", len(rejected)))
		return nil, ErrNoPurchasableItems
	}

	ticket, err := s.issuer.Issue(ctx, committed, purchaser)
	if err != nil {
		if restoreErr := s.mutator.RestoreStock(ctx, committed); restoreErr != nil {
			err = &PersistenceError{
				Phase:   PhaseIssueTicket,
				Op:      "insert ticket",
				Partial: true,
				Err:     errors.Join(err, restoreErr),
			}
		}
		s.logFailure(cartID, err)
		return nil, err
	}

	result := &domain.PurchaseResult{
		Ticket:   ticket,
		Rejected: rejected,
		Total:    ticket.Amount,
	}

	if err := s.mutator.ClearCart(ctx, cart); err != nil {
		var pe *PersistenceError
		if errors.As(err, &pe) {
			pe.Partial = true
		}
		s.logger.Error("ticket issued but cart was not cleared",
			zap.String("cartId", cartID),
			zap.String("ticketCode", ticket.Code),
			zap.Error(err))
		return result, err
	}
	s.invalidateCart(cartID)

	s.logger.Info("purchase completed",
		zap.String("cartId", cartID),
		zap.String("ticketCode", ticket.Code),
		zap.Int("purchased", len(committed)),
		zap.Int("rejected", len(rejected)),
		zap.String("total", ticket.Amount.String()))

	return result, nil
}

// inCartOrder merges rejection lists, each already in cart order, into a
// single list ordered by the position of the product in the cart.
func inCartOrder(items []domain.CartItem, lists ...[]domain.Rejection) []domain.Rejection {
	pos := make(map[string]int, len(items))
	for i, item := range items {
		if _, ok := pos[item.ProductID]; !ok {
			pos[item.ProductID] = i
		}
	}

	merged := make([]domain.Rejection, 0, len(items))
	for _, list := range lists {
		merged = append(merged, list...)
	}
	slices.SortStableFunc(merged, func(a, b domain.Rejection) int {
		return cmp.Compare(pos[a.ProductID], pos[b.ProductID])
	})
	return merged
}

func (s *Service) logFailure(cartID string, err error) {
	if errors.Is(err, ErrInconsistentState) {
		s.logger.Error("purchase failed with partial state",
			zap.String("cartId", cartID),
			zap.Error(err))
		return
	}
	s.logger.Warn("purchase failed",
		zap.String("cartId", cartID),
		zap.Error(err))
}

func (s *Service) invalidateCart(cartID string) {
	if s.cartCache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cartCache.Delete(ctx, cartID); err != nil {
		s.logger.Warn("cart cache invalidate failed",
			zap.String("cartId", cartID),
			zap.Error(err))
	}
}
