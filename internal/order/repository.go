package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"zapas-be/internal/db"
	"zapas-be/internal/logger"
	"zapas-be/internal/product"
	"zapas-be/internal/utils"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const idempotencyConstraint = "orders_user_idempotency_key"

// Builder turns the catalog rows read inside the order transaction into the
// order to insert. Returning an error aborts the transaction.
type Builder func(found []product.Summary) (*Order, error)

type Repository interface {
	CreateOrder(ctx context.Context, productIDs []string, build Builder) (*Order, error)
	FindByIDForUser(ctx context.Context, orderID, userID string) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*Order, error)
	ListForUser(ctx context.Context, userID string, opts ListOptions) ([]Order, int, error)
}

type repository struct {
	db      *sql.DB
	catalog func(q db.DBTX) product.Repository
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn, catalog: product.NewRepository}
}

// CreateOrder reads the referenced products and writes the order header and
// every item in one transaction. Nothing is persisted unless all of it succeeds.
func (r *repository) CreateOrder(ctx context.Context, productIDs []string, build Builder) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	found, err := r.catalog(tx).FindByIDs(ctx, productIDs)
	if err != nil {
		log.Error("failed to load products", zap.Error(err))
		return nil, err
	}

	o, err := build(found)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, status, total,
			shipping_address, payment_method, idempotency_key
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at
	`,
		o.UserID,
		o.Status,
		o.Total,
		o.ShippingAddress,
		o.PaymentMethod,
		o.IdempotencyKey,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, idempotencyConstraint) {
			return nil, ErrDuplicateIdempotencyKey
		}
		log.Error("failed to insert order", zap.Error(err))
		return nil, fmt.Errorf("insert order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (
			order_id, product_id, product_name, quantity, price
		) VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`)
	if err != nil {
		log.Error("failed to prepare item insert", zap.Error(err))
		return nil, fmt.Errorf("prepare order items: %w", err)
	}
	defer stmt.Close()

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID

		err := stmt.QueryRowContext(ctx,
			o.ID, it.ProductID, it.ProductName, it.Quantity, it.Price,
		).Scan(&it.ID, &it.CreatedAt)
		if err != nil {
			log.Error("failed to insert order item",
				zap.String("order_id", o.ID),
				zap.String("product_id", it.ProductID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.String("order_id", o.ID), zap.Error(err))
		return nil, fmt.Errorf("commit order: %w", err)
	}

	log.Info("order persisted",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
	)

	return o, nil
}

const orderColumns = `o.id, o.user_id, o.status, o.total, o.shipping_address,
	o.payment_method, o.idempotency_key, o.created_at, o.updated_at`

// FindByIDForUser only matches orders owned by userID, so a foreign order and
// a missing one both yield ErrOrderNotFound.
func (r *repository) FindByIDForUser(ctx context.Context, orderID, userID string) (*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`,
			i.id, i.product_id, i.product_name, i.quantity, i.price, i.created_at
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		WHERE o.id = $1 AND o.user_id = $2
		ORDER BY i.created_at, i.id
	`, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	defer rows.Close()

	var o *Order
	for rows.Next() {
		var (
			head      Order
			itemID    sql.NullString
			productID sql.NullString
			name      sql.NullString
			quantity  sql.NullInt64
			price     decimal.NullDecimal
			createdAt sql.NullTime
		)

		if err := rows.Scan(
			&head.ID, &head.UserID, &head.Status, &head.Total, &head.ShippingAddress,
			&head.PaymentMethod, &head.IdempotencyKey, &head.CreatedAt, &head.UpdatedAt,
			&itemID, &productID, &name, &quantity, &price, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if o == nil {
			head.Items = []OrderItem{}
			o = &head
		}

		if itemID.Valid {
			o.Items = append(o.Items, OrderItem{
				ID:          itemID.String,
				OrderID:     o.ID,
				ProductID:   productID.String,
				ProductName: name.String,
				Quantity:    int(quantity.Int64),
				Price:       price.Decimal,
				CreatedAt:   createdAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.user_id = $1 AND o.idempotency_key = $2
	`, userID, key)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order by idempotency key: %w", err)
	}

	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = orEmpty(items[o.ID])

	return o, nil
}

func (r *repository) ListForUser(ctx context.Context, userID string, opts ListOptions) ([]Order, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListForUser"),
		zap.Int("page", opts.Page),
		zap.Int("limit", opts.Limit),
	)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2 OFFSET $3
	`, userID, opts.Limit, utils.Offset(opts.Page, opts.Limit))
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, total, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = orEmpty(items[orders[i].ID])
	}

	return orders, total, nil
}

func (r *repository) itemsFor(ctx context.Context, orderIDs []string) (map[string][]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]OrderItem, len(orderIDs))
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.Price, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Total, &o.ShippingAddress,
		&o.PaymentMethod, &o.IdempotencyKey, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func orEmpty(items []OrderItem) []OrderItem {
	if items == nil {
		return []OrderItem{}
	}
	return items
}

