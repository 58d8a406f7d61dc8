package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"zapas-be/internal/product"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userX = "11111111-1111-4111-8111-111111111111"
	userY = "22222222-2222-4222-8222-222222222222"
	prodA = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	prodB = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
	ordID = "0e0e0e0e-0e0e-4e0e-8e0e-0e0e0e0e0e0e"
)

var summaryCols = []string{"id", "name", "price", "is_active"}

var orderCols = []string{
	"id", "user_id", "status", "total", "shipping_address",
	"payment_method", "idempotency_key", "created_at", "updated_at",
}

var itemCols = []string{"id", "order_id", "product_id", "product_name", "quantity", "price", "created_at"}

func pricedBuilder(userID string, items []LineItem) Builder {
	return func(found []product.Summary) (*Order, error) {
		total, lines, err := Price(items, found)
		if err != nil {
			return nil, err
		}
		return &Order{UserID: userID, Status: StatusPending, Total: total, Items: lines}, nil
	}
}

func TestRepository_CreateOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	items := []LineItem{{ProductID: prodA, Quantity: 3}, {ProductID: prodB, Quantity: 2}}

	expectCatalog := func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, name, price, is_active FROM products WHERE id = ANY\(\$1\) FOR SHARE`).
			WithArgs(pq.Array([]string{prodA, prodB})).
			WillReturnRows(sqlmock.NewRows(summaryCols).
				AddRow(prodA, "Urbanas", "12900", true).
				AddRow(prodB, "Trail", "7900", true))
	}

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		expectCatalog(mock)
		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs(userX, "PENDING", decimal.RequireFromString("54500"), nil, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(ordID, now, now))

		prep := mock.ExpectPrepare(`INSERT INTO order_items`)
		prep.ExpectQuery().
			WithArgs(ordID, prodA, "Urbanas", 3, decimal.RequireFromString("12900")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("i1", now))
		prep.ExpectQuery().
			WithArgs(ordID, prodB, "Trail", 2, decimal.RequireFromString("7900")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("i2", now))
		mock.ExpectCommit()

		o, err := repo.CreateOrder(ctx, []string{prodA, prodB}, pricedBuilder(userX, items))
		require.NoError(t, err)

		assert.Equal(t, ordID, o.ID)
		assert.Equal(t, "54500", o.Total.String())
		require.Len(t, o.Items, 2)
		assert.Equal(t, "i1", o.Items[0].ID)
		assert.Equal(t, ordID, o.Items[1].OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ItemInsertFailureRollsBackEverything", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		expectCatalog(mock)
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(ordID, now, now))

		prep := mock.ExpectPrepare(`INSERT INTO order_items`)
		prep.ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("i1", now))
		prep.ExpectQuery().
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		o, err := repo.CreateOrder(ctx, []string{prodA, prodB}, pricedBuilder(userX, items))
		assert.Nil(t, o)
		assert.ErrorContains(t, err, "insert order item")

		// No commit was expected, so the header insert never became visible.
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InactiveProductWritesNothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM products WHERE id = ANY`).
			WillReturnRows(sqlmock.NewRows(summaryCols).
				AddRow(prodA, "Urbanas", "12900", true).
				AddRow(prodB, "Edición Limitada", "7900", false))
		mock.ExpectRollback()

		_, err = repo.CreateOrder(ctx, []string{prodA, prodB}, pricedBuilder(userX, items))

		var inactive *InactiveProductsError
		require.True(t, errors.As(err, &inactive))
		assert.Equal(t, []string{"Edición Limitada"}, inactive.Names)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("HeaderFailure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		expectCatalog(mock)
		mock.ExpectQuery(`INSERT INTO orders`).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err = repo.CreateOrder(ctx, []string{prodA, prodB}, pricedBuilder(userX, items))
		assert.ErrorContains(t, err, "insert order")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateIdempotencyKey", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		expectCatalog(mock)
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_user_idempotency_key"})
		mock.ExpectRollback()

		_, err = repo.CreateOrder(ctx, []string{prodA, prodB}, pricedBuilder(userX, items))
		assert.ErrorIs(t, err, ErrDuplicateIdempotencyKey)
	})

	t.Run("BeginFailure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		_, err = NewRepository(db).CreateOrder(ctx, []string{prodA}, pricedBuilder(userX, items))
		assert.ErrorContains(t, err, "begin order tx")
	})
}

// recordingMatcher keeps every SQL statement the repository sends.
type recordingMatcher struct {
	seen []string
}

func (m *recordingMatcher) Match(expected, actual string) error {
	m.seen = append(m.seen, actual)
	return sqlmock.QueryMatcherRegexp.Match(expected, actual)
}

func TestRepository_FindByIDForUser(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	addr := "Av. Corrientes 1234"

	matcher := &recordingMatcher{}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	t.Run("ReadsSnapshotColumns", func(t *testing.T) {
		cols := append(append([]string{}, orderCols...), "i_id", "i_product_id", "i_product_name", "i_quantity", "i_price", "i_created_at")
		mock.ExpectQuery(`(?s)FROM orders o\s+LEFT JOIN order_items i ON i.order_id = o.id\s+WHERE o.id = \$1 AND o.user_id = \$2`).
			WithArgs(ordID, userX).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(ordID, userX, "PENDING", "179.98", addr, "card", nil, now, now,
					"i1", prodA, "Zapatillas Sostenibles Clásicas", 2, "89.99", now))

		o, err := repo.FindByIDForUser(ctx, ordID, userX)
		require.NoError(t, err)

		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, "179.98", o.Total.StringFixed(2))
		assert.Equal(t, addr, *o.ShippingAddress)
		require.Len(t, o.Items, 1)
		assert.Equal(t, "89.99", o.Items[0].Price.String())
		assert.Equal(t, "Zapatillas Sostenibles Clásicas", o.Items[0].ProductName)

		// Item price and name come from order_items, never from the live product row.
		require.NotEmpty(t, matcher.seen)
		assert.NotContains(t, matcher.seen[len(matcher.seen)-1], "products")
	})

	t.Run("ForeignAndMissingLookTheSame", func(t *testing.T) {
		mock.ExpectQuery(`WHERE o.id = \$1 AND o.user_id = \$2`).
			WithArgs(ordID, userY).
			WillReturnRows(sqlmock.NewRows(orderCols))
		mock.ExpectQuery(`WHERE o.id = \$1 AND o.user_id = \$2`).
			WithArgs("99999999-9999-4999-8999-999999999999", userY).
			WillReturnRows(sqlmock.NewRows(orderCols))

		_, foreignErr := repo.FindByIDForUser(ctx, ordID, userY)
		_, missingErr := repo.FindByIDForUser(ctx, "99999999-9999-4999-8999-999999999999", userY)

		assert.ErrorIs(t, foreignErr, ErrOrderNotFound)
		assert.Equal(t, foreignErr, missingErr)
	})

	t.Run("QueryError", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders o`).WillReturnError(errors.New("timeout"))

		_, err := repo.FindByIDForUser(ctx, ordID, userX)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_FindByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery(`WHERE o.user_id = \$1 AND o.idempotency_key = \$2`).
		WithArgs(userX, "key-1").
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(ordID, userX, "PENDING", "89.99", nil, nil, "key-1", now, now))
	mock.ExpectQuery(`FROM order_items\s+WHERE order_id = ANY\(\$1\)`).
		WithArgs(pq.Array([]string{ordID})).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow("i1", ordID, prodA, "Urbanas", 1, "89.99", now))

	o, err := repo.FindByIdempotencyKey(ctx, userX, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", *o.IdempotencyKey)
	assert.Len(t, o.Items, 1)

	mock.ExpectQuery(`WHERE o.user_id = \$1 AND o.idempotency_key = \$2`).
		WithArgs(userX, "unknown").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByIdempotencyKey(ctx, userX, "unknown")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRepository_ListForUser(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	const ord2 = "0f0f0f0f-0f0f-4f0f-8f0f-0f0f0f0f0f0f"

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE user_id = \$1`).
			WithArgs(userX).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))
		mock.ExpectQuery(`(?s)FROM orders o\s+WHERE o.user_id = \$1\s+ORDER BY o.created_at DESC, o.id DESC\s+LIMIT \$2 OFFSET \$3`).
			WithArgs(userX, 12, 12).
			WillReturnRows(sqlmock.NewRows(orderCols).
				AddRow(ord2, userX, "PENDING", "10", nil, nil, nil, now, now).
				AddRow(ordID, userX, "DELIVERED", "20", nil, "cash", nil, now.Add(-time.Hour), now))
		mock.ExpectQuery(`FROM order_items\s+WHERE order_id = ANY\(\$1\)`).
			WithArgs(pq.Array([]string{ord2, ordID})).
			WillReturnRows(sqlmock.NewRows(itemCols).
				AddRow("i1", ordID, prodA, "Urbanas", 1, "20", now).
				AddRow("i2", ord2, prodB, "Trail", 1, "10", now))

		orders, total, err := repo.ListForUser(ctx, userX, ListOptions{Page: 2, Limit: 12})
		require.NoError(t, err)

		assert.Equal(t, 14, total)
		require.Len(t, orders, 2)
		assert.Equal(t, ord2, orders[0].ID)
		assert.Equal(t, "i2", orders[0].Items[0].ID)
		assert.Equal(t, "i1", orders[1].Items[0].ID)
		assert.Equal(t, StatusDelivered, orders[1].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptySkipsItemQuery", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`FROM orders o`).WillReturnRows(sqlmock.NewRows(orderCols))

		orders, total, err := repo.ListForUser(ctx, userX, ListOptions{Page: 1, Limit: 12})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.NotNil(t, orders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
