package order

import (
	"errors"
	"strings"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrIdempotencyKeyReused means the key belongs to an order created
	// outside the replay window.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used")

	// ErrDuplicateIdempotencyKey is returned by the repository when a
	// concurrent request won the insert for the same key.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	ErrQuantityOutOfRange = errors.New("quantity must be between 1 and 1000")
	ErrTotalOutOfRange    = errors.New("order total exceeds the maximum allowed")
)

// MissingProductsError lists the requested product ids that do not exist.
type MissingProductsError struct {
	IDs []string
}

func (e *MissingProductsError) Error() string {
	return "products not found: " + strings.Join(e.IDs, ", ")
}

// InactiveProductsError lists the names of requested products that cannot be bought.
type InactiveProductsError struct {
	Names []string
}

func (e *InactiveProductsError) Error() string {
	return "products inactive: " + strings.Join(e.Names, ", ")
}
