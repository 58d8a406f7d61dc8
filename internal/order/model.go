package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

const (
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentCash     = "cash"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100

	MaxIdempotencyKeyLength = 255

	// MaxQuantity bounds a single cart line.
	MaxQuantity = 1000
)

// MaxTotal is the largest amount orders.total (NUMERIC(12,2)) can hold.
var MaxTotal = decimal.RequireFromString("9999999999.99")

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Status          Status          `json:"status"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress *string         `json:"shippingAddress"`
	PaymentMethod   *string         `json:"paymentMethod"`
	IdempotencyKey  *string         `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem keeps the unit price and product name as they were at checkout.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"-"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// LineItem is one cart line as submitted by the client. It never carries a price.
type LineItem struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,lte=1000"`
}

type CreateOrderInput struct {
	Items           []LineItem `json:"items" binding:"required,min=1,dive"`
	ShippingAddress *string    `json:"shippingAddress" binding:"omitempty,min=1"`
	PaymentMethod   *string    `json:"paymentMethod" binding:"omitempty,oneof=card transfer cash"`

	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-"`
}

type ListOptions struct {
	Page  int `form:"page" binding:"min=1"`
	Limit int `form:"limit" binding:"min=1,max=100"`
}

type ListResult struct {
	Orders     []Order
	Total      int
	Page       int
	Limit      int
	TotalPages int
}
