package order

import (
	"errors"
	"testing"

	"zapas-be/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summary(id, name, price string, active bool) product.Summary {
	return product.Summary{ID: id, Name: name, Price: decimal.RequireFromString(price), IsActive: active}
}

func lineTotal(lines []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func TestPrice_TotalsExactly(t *testing.T) {
	t.Run("Integer prices", func(t *testing.T) {
		items := []LineItem{{ProductID: "a", Quantity: 3}, {ProductID: "b", Quantity: 2}}
		found := []product.Summary{summary("b", "Trail", "7900", true), summary("a", "Urbanas", "12900", true)}

		total, lines, err := Price(items, found)
		require.NoError(t, err)

		assert.Equal(t, "54500", total.String())
		assert.True(t, total.Equal(lineTotal(lines)))
		require.Len(t, lines, 2)
		assert.Equal(t, "a", lines[0].ProductID)
		assert.Equal(t, "12900", lines[0].Price.String())
		assert.Equal(t, 3, lines[0].Quantity)
	})

	t.Run("Cents do not drift", func(t *testing.T) {
		items := []LineItem{{ProductID: "p1", Quantity: 2}}
		found := []product.Summary{summary("p1", "Zapatillas Sostenibles Clásicas", "89.99", true)}

		total, lines, err := Price(items, found)
		require.NoError(t, err)

		assert.Equal(t, "179.98", total.StringFixed(2))
		require.Len(t, lines, 1)
		assert.Equal(t, "89.99", lines[0].Price.String(), "unit price, not line total")
		assert.Equal(t, 2, lines[0].Quantity)
		assert.Equal(t, "Zapatillas Sostenibles Clásicas", lines[0].ProductName)
	})

	t.Run("Many small amounts", func(t *testing.T) {
		var items []LineItem
		for i := 0; i < 10; i++ {
			items = append(items, LineItem{ProductID: "p", Quantity: 1})
		}

		total, _, err := Price(items, []product.Summary{summary("p", "Cordones", "0.10", true)})
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(1)))
	})

	t.Run("Repeated product keeps one row per line", func(t *testing.T) {
		items := []LineItem{{ProductID: "a", Quantity: 1}, {ProductID: "a", Quantity: 2}}

		total, lines, err := Price(items, []product.Summary{summary("a", "Urbanas", "10.50", true)})
		require.NoError(t, err)
		assert.Len(t, lines, 2)
		assert.Equal(t, "31.5", total.String())
	})
}

func TestPrice_MissingProducts(t *testing.T) {
	items := []LineItem{{ProductID: "A", Quantity: 1}, {ProductID: "B", Quantity: 1}, {ProductID: "C", Quantity: 4}}

	_, lines, err := Price(items, []product.Summary{summary("A", "Urbanas", "10", true)})

	var missing *MissingProductsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"B", "C"}, missing.IDs)
	assert.Equal(t, "products not found: B, C", err.Error())
	assert.Nil(t, lines)
}

func TestPrice_InactiveProducts(t *testing.T) {
	items := []LineItem{{ProductID: "on", Quantity: 1}, {ProductID: "off", Quantity: 1}}
	found := []product.Summary{summary("on", "Urbanas", "10", true), summary("off", "Edición Limitada", "150", false)}

	_, lines, err := Price(items, found)

	var inactive *InactiveProductsError
	require.True(t, errors.As(err, &inactive))
	assert.Equal(t, []string{"Edición Limitada"}, inactive.Names)
	assert.Nil(t, lines)
}

func TestPrice_MissingReportedBeforeInactive(t *testing.T) {
	items := []LineItem{{ProductID: "off", Quantity: 1}, {ProductID: "gone", Quantity: 1}}

	_, _, err := Price(items, []product.Summary{summary("off", "Edición Limitada", "150", false)})

	var missing *MissingProductsError
	assert.True(t, errors.As(err, &missing))
}

func TestDistinctProductIDs(t *testing.T) {
	items := []LineItem{{ProductID: "b"}, {ProductID: "a"}, {ProductID: "b"}, {ProductID: "c"}}
	assert.Equal(t, []string{"b", "a", "c"}, DistinctProductIDs(items))
	assert.Empty(t, DistinctProductIDs(nil))
}

func TestPrice_LinesAreDecoupledFromCatalogRows(t *testing.T) {
	items := []LineItem{{ProductID: "p1", Quantity: 2}}
	found := []product.Summary{summary("p1", "Clásicas", "89.99", true)}

	total, lines, err := Price(items, found)
	require.NoError(t, err)

	found[0].Price = decimal.RequireFromString("99.99")
	found[0].Name = "Clásicas 2.0"

	assert.Equal(t, "89.99", lines[0].Price.String())
	assert.Equal(t, "Clásicas", lines[0].ProductName)
	assert.Equal(t, "179.98", total.String())
}

func TestPrice_TotalOutOfRange(t *testing.T) {
	items := []LineItem{{ProductID: "p", Quantity: MaxQuantity}, {ProductID: "p", Quantity: MaxQuantity}}

	_, lines, err := Price(items, []product.Summary{summary("p", "Edición Oro", "99999999.99", true)})
	assert.ErrorIs(t, err, ErrTotalOutOfRange)
	assert.Nil(t, lines)
}

func TestCheckQuantities(t *testing.T) {
	assert.NoError(t, CheckQuantities([]LineItem{{Quantity: 1}, {Quantity: MaxQuantity}}))
	assert.ErrorIs(t, CheckQuantities([]LineItem{{Quantity: MaxQuantity + 1}}), ErrQuantityOutOfRange)
	assert.ErrorIs(t, CheckQuantities([]LineItem{{Quantity: 0}}), ErrQuantityOutOfRange)
	assert.ErrorIs(t, CheckQuantities([]LineItem{{Quantity: -3}}), ErrQuantityOutOfRange)
}
