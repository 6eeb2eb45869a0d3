package repository

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Items     []cartItemDocument `bson:"products"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type cartItemDocument struct {
	ProductID primitive.ObjectID `bson:"product"`
	Quantity  int                `bson:"quantity"`
}

type productDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Code        string               `bson:"code"`
	Price       primitive.Decimal128 `bson:"price"`
	Stock       int                  `bson:"stock"`
	Category    string               `bson:"category"`
	Available   bool                 `bson:"available"`
	Image       string               `bson:"image"`
	Thumbnails  []string             `bson:"thumbnails"`
}

type ticketDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Code        string               `bson:"code"`
	PurchasedAt time.Time            `bson:"purchase_datetime"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Purchaser   string               `bson:"purchaser"`
	Items       []ticketItemDocument `bson:"products"`
	PublishedAt *time.Time           `bson:"published_at"`
}

type ticketItemDocument struct {
	ProductID primitive.ObjectID   `bson:"product"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type userDocument struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty"`
	FirstName            string              `bson:"first_name"`
	LastName             string              `bson:"last_name"`
	Email                string              `bson:"email"`
	Age                  int                 `bson:"age"`
	Password             string              `bson:"password"`
	Cart                 *primitive.ObjectID `bson:"cart"`
	Role                 string              `bson:"role"`
	ResetPasswordToken   string              `bson:"reset_password_token,omitempty"`
	ResetPasswordExpires *time.Time          `bson:"reset_password_expires,omitempty"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert decimal128 %s: %w", d.String(), err)
	}
	return v, nil
}

// parseID converts a hex id into an ObjectID. A malformed id cannot match any
// document, so callers map the error to their not-found sentinel.
func parseID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}

func (d *cartDocument) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:        d.ID.Hex(),
		Items:     make([]domain.CartItem, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for i, item := range d.Items {
		cart.Items[i] = domain.CartItem{
			ProductID: item.ProductID.Hex(),
			Quantity:  item.Quantity,
		}
	}
	return cart
}

func cartItemDocuments(items []domain.CartItem) ([]cartItemDocument, error) {
	docs := make([]cartItemDocument, len(items))
	for i, item := range items {
		oid, err := parseID(item.ProductID)
		if err != nil {
			return nil, ErrProductNotFound
		}
		docs[i] = cartItemDocument{ProductID: oid, Quantity: item.Quantity}
	}
	return docs, nil
}

func newProductDocument(p *domain.Product) (*productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	doc := &productDocument{
		Title:       p.Title,
		Description: p.Description,
		Code:        p.Code,
		Price:       price,
		Stock:       p.Stock,
		Category:    p.Category,
		Available:   p.Available,
		Image:       p.Image,
		Thumbnails:  p.Thumbnails,
	}
	if doc.Image == "" {
		doc.Image = domain.DefaultProductImage
	}
	if doc.Thumbnails == nil {
		doc.Thumbnails = []string{}
	}
	if p.ID != "" {
		oid, err := parseID(p.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q: %w", p.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *productDocument) toDomain() (*domain.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Code:        d.Code,
		Price:       price,
		Stock:       d.Stock,
		Category:    d.Category,
		Available:   d.Available,
		Image:       d.Image,
		Thumbnails:  d.Thumbnails,
	}, nil
}

func newTicketDocument(t *domain.Ticket) (*ticketDocument, error) {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return nil, err
	}
	doc := &ticketDocument{
		Code:        t.Code,
		PurchasedAt: t.PurchasedAt,
		Amount:      amount,
		Purchaser:   t.Purchaser,
		Items:       make([]ticketItemDocument, len(t.Items)),
	}
	for i, item := range t.Items {
		oid, err := parseID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q: %w", item.ProductID, err)
		}
		price, err := toDecimal128(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		doc.Items[i] = ticketItemDocument{ProductID: oid, Quantity: item.Quantity, Price: price}
	}
	return doc, nil
}

func (d *ticketDocument) toDomain() (*domain.Ticket, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	ticket := &domain.Ticket{
		ID:          d.ID.Hex(),
		Code:        d.Code,
		PurchasedAt: d.PurchasedAt,
		Purchaser:   d.Purchaser,
		Amount:      amount,
		Items:       make([]domain.LineItem, len(d.Items)),
		PublishedAt: d.PublishedAt,
	}
	for i, item := range d.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return nil, err
		}
		ticket.Items[i] = domain.LineItem{
			ProductID: item.ProductID.Hex(),
			Quantity:  item.Quantity,
			UnitPrice: price,
		}
	}
	return ticket, nil
}

func newUserDocument(u *domain.User) (*userDocument, error) {
	doc := &userDocument{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       u.Age,
		Password:  u.PasswordHash,
		Role:      string(u.Role),
	}
	if doc.Role == "" {
		doc.Role = string(domain.RoleUser)
	}
	if u.CartID != "" {
		oid, err := parseID(u.CartID)
		if err != nil {
			return nil, fmt.Errorf("invalid cart id %q: %w", u.CartID, err)
		}
		doc.Cart = &oid
	}
	return doc, nil
}

func (d *userDocument) toDomain() *domain.User {
	user := &domain.User{
		ID:                 d.ID.Hex(),
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		Email:              d.Email,
		Age:                d.Age,
		PasswordHash:       d.Password,
		Role:               domain.Role(d.Role),
		ResetPasswordToken: d.ResetPasswordToken,
	}
	if d.Cart != nil {
		user.CartID = d.Cart.Hex()
	}
	if d.ResetPasswordExpires != nil {
		user.ResetPasswordExpires = *d.ResetPasswordExpires
	}
	return user
}
