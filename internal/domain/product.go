package domain

import "github.com/shopspring/decimal"

const DefaultProductImage = "/images/logo.svg"

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Code        string          `json:"code"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
	Image       string          `json:"image"`
	Thumbnails  []string        `json:"thumbnails"`
}

// ProductPatch carries the fields an admin update may change; nil means unchanged.
type ProductPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Available   *bool            `json:"available,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Thumbnails  []string         `json:"thumbnails,omitempty"`
}

// ProductQuery selects one page of the catalog.
type ProductQuery struct {
	Limit int
	Page  int
	Sort  string // "asc" or "desc" by price, empty for natural order
	Query string // category pattern, or "true"/"false" for availability
}

type ProductPage struct {
	Products    []*Product `json:"payload"`
	TotalPages  int        `json:"totalPages"`
	Page        int        `json:"page"`
	PrevPage    *int       `json:"prevPage"`
	NextPage    *int       `json:"nextPage"`
	HasPrevPage bool       `json:"hasPrevPage"`
	HasNextPage bool       `json:"hasNextPage"`
}
