package order

import (
	"zapas-be/internal/product"

	"github.com/shopspring/decimal"
)

// DistinctProductIDs returns each referenced product id once, in the order
// it first appears in the cart.
func DistinctProductIDs(items []LineItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))

	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// CheckQuantities rejects lines outside 1..MaxQuantity.
func CheckQuantities(items []LineItem) error {
	for _, it := range items {
		if it.Quantity <= 0 || it.Quantity > MaxQuantity {
			return ErrQuantityOutOfRange
		}
	}
	return nil
}

// Price validates the cart against the catalog rows found for it and builds
// the order lines from server-side prices. It fails with
// *MissingProductsError before *InactiveProductsError, and with
// ErrTotalOutOfRange when the total does not fit MaxTotal.
func Price(items []LineItem, found []product.Summary) (decimal.Decimal, []OrderItem, error) {
	byID := make(map[string]product.Summary, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	ids := DistinctProductIDs(items)

	var missing []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return decimal.Zero, nil, &MissingProductsError{IDs: missing}
	}

	var inactive []string
	for _, id := range ids {
		if p := byID[id]; !p.IsActive {
			inactive = append(inactive, p.Name)
		}
	}
	if len(inactive) > 0 {
		return decimal.Zero, nil, &InactiveProductsError{Names: inactive}
	}

	total := decimal.Zero
	lines := make([]OrderItem, 0, len(items))

	for _, it := range items {
		p := byID[it.ProductID]
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		lines = append(lines, OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			Price:       p.Price,
		})
	}

	if total.GreaterThan(MaxTotal) {
		return decimal.Zero, nil, ErrTotalOutOfRange
	}

	return total, lines, nil
}
