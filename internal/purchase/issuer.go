package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/google/uuid"
)

// CodeGenerator mints a ticket code for a ticket created at now.
type CodeGenerator func(now time.Time) string

// NewTicketCode returns TICKET-<unix millis>-<12 random hex digits>. The
// unique index on the stored code is the authoritative guarantee.
func NewTicketCode(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TICKET-%d-%s", now.UnixMilli(), random[:12])
}

type Issuer struct {
	tickets TicketStore
	now     func() time.Time
	newCode CodeGenerator
}

func NewIssuer(tickets TicketStore) *Issuer {
	return &Issuer{
		tickets: tickets,
		now:     time.Now,
		newCode: NewTicketCode,
	}
}

// Issue persists an immutable ticket for items. Prices are taken from the
// line items as captured during reconciliation. A code collision fails the
// write; there is no retry with a fresh code.
func (i *Issuer) Issue(ctx context.Context, items []domain.LineItem, purchaser string) (*domain.Ticket, error) {
	if len(items) == 0 {
		return nil, ErrNoPurchasableItems
	}

	now := i.now().UTC().Truncate(time.Millisecond)
	ticket := &domain.Ticket{
		Code:        i.newCode(now),
		PurchasedAt: now,
		Purchaser:   purchaser,
		Amount:      domain.SumLineItems(items),
		Items:       append([]domain.LineItem(nil), items...),
	}

	if err := i.tickets.InsertTicket(ctx, ticket); err != nil {
		return nil, &PersistenceError{Phase: PhaseIssueTicket, Op: "insert ticket", Err: err}
	}

	return ticket, nil
}
