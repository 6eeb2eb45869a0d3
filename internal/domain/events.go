package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventPurchaseCompleted = "PurchaseCompleted"

// PurchaseCompletedEvent is the message published for every issued ticket.
type PurchaseCompletedEvent struct {
	TicketCode  string          `json:"ticket_code"`
	Purchaser   string          `json:"purchaser"`
	Amount      decimal.Decimal `json:"amount"`
	Items       []LineItem      `json:"items"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

func NewPurchaseCompletedEvent(t *Ticket) PurchaseCompletedEvent {
	return PurchaseCompletedEvent{
		TicketCode:  t.Code,
		Purchaser:   t.Purchaser,
		Amount:      t.Amount,
		Items:       t.Items,
		PurchasedAt: t.PurchasedAt,
	}
}

// PurchaseRecord is a ticket as projected into the purchase history ledger.
type PurchaseRecord struct {
	ID          string          `json:"id"`
	TicketCode  string          `json:"ticket_code"`
	Purchaser   string          `json:"purchaser"`
	Amount      decimal.Decimal `json:"amount"`
	Items       []LineItem      `json:"items"`
	PurchasedAt time.Time       `json:"purchased_at"`
	RecordedAt  time.Time       `json:"recorded_at"`
}
