package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a purchasable cart line with the unit price captured at
// reconciliation time. Receipts keep this price; it is never re-read.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SumLineItems returns the exact sum of price x quantity over items.
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Ticket is an immutable purchase receipt.
type Ticket struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	PurchasedAt time.Time       `json:"purchase_datetime"`
	Purchaser   string          `json:"purchaser"`
	Amount      decimal.Decimal `json:"amount"`
	Items       []LineItem      `json:"products"`
	PublishedAt *time.Time      `json:"-"`
}

const (
	ReasonNotFound          = "not found"
	ReasonInsufficientStock = "insufficient stock"
)

// Rejection is a cart line left out of a purchase. It is reported to the
// purchaser, not treated as an error.
type Rejection struct {
	ProductID string `json:"product"`
	Reason    string `json:"reason"`
}

func NotFoundRejection(productID string) Rejection {
	return Rejection{ProductID: productID, Reason: ReasonNotFound}
}

func InsufficientStockRejection(productID string, available, requested int) Rejection {
	return Rejection{
		ProductID: productID,
		Reason:    fmt.Sprintf("%s, available=%d requested=%d", ReasonInsufficientStock, available, requested),
	}
}

func InvalidQuantityRejection(productID string, requested int) Rejection {
	return Rejection{ProductID: productID, Reason: fmt.Sprintf("invalid quantity %d", requested)}
}

type PurchaseResult struct {
	Ticket   *Ticket         `json:"ticket"`
	Rejected []Rejection     `json:"rejected"`
	Total    decimal.Decimal `json:"total"`
}
