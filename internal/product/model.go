package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

// Variant is the per-size stock of a product.
type Variant struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type Product struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image"`
	Images      []string        `json:"images"`
	Brand       *string         `json:"brand"`
	Category    *string         `json:"category"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"isActive"`
	Variants    []Variant       `json:"variants,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Summary is what checkout needs to re-validate and re-price a cart line.
type Summary struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	IsActive bool
}

type ListOptions struct {
	Page     int              `form:"page" binding:"min=1"`
	Limit    int              `form:"limit" binding:"min=1,max=100"`
	Category string           `form:"category"`
	Brand    string           `form:"brand"`
	MinPrice *decimal.Decimal `form:"minPrice" binding:"omitempty,gt=0"`
	MaxPrice *decimal.Decimal `form:"maxPrice" binding:"omitempty,gt=0"`
	Size     string           `form:"size"`
	Color    string           `form:"color"`
	Search   string           `form:"search"`
}

type ListResult struct {
	Items      []Product
	Total      int
	Page       int
	Limit      int
	TotalPages int
}
