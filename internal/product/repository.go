package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"zapas-be/internal/db"
	"zapas-be/internal/logger"
	"zapas-be/internal/utils"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	FindMany(ctx context.Context, opts ListOptions) ([]Product, int, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]Summary, error)
	Upsert(ctx context.Context, p *Product) error
}

type repository struct {
	db   db.DBTX
	inTx bool
}

// NewRepository accepts a pool or a transaction. Inside a transaction
// FindByIDs locks the returned rows FOR SHARE until commit.
func NewRepository(q db.DBTX) Repository {
	_, inTx := q.(*sql.Tx)
	return &repository{db: q, inTx: inTx}
}

const productColumns = `p.id, p.slug, p.name, p.description, p.price, p.image, p.images,
	p.brand, p.category, p.sizes, p.colors, p.stock, p.is_active, p.created_at, p.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.Price, &p.Image, pq.Array(&p.Images),
		&p.Brand, &p.Category, pq.Array(&p.Sizes), pq.Array(&p.Colors),
		&p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindMany(ctx context.Context, opts ListOptions) ([]Product, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FindMany"),
	)

	where := " WHERE p.is_active = true"
	args := []any{}
	argIndex := 1

	if opts.Category != "" {
		where += fmt.Sprintf(" AND p.category = $%d", argIndex)
		args = append(args, opts.Category)
		argIndex++
	}

	if opts.Brand != "" {
		where += fmt.Sprintf(" AND p.brand = $%d", argIndex)
		args = append(args, opts.Brand)
		argIndex++
	}

	if opts.MinPrice != nil {
		where += fmt.Sprintf(" AND p.price >= $%d", argIndex)
		args = append(args, *opts.MinPrice)
		argIndex++
	}

	if opts.MaxPrice != nil {
		where += fmt.Sprintf(" AND p.price <= $%d", argIndex)
		args = append(args, *opts.MaxPrice)
		argIndex++
	}

	if opts.Size != "" {
		where += fmt.Sprintf(" AND $%d = ANY(p.sizes)", argIndex)
		args = append(args, opts.Size)
		argIndex++
	}

	if opts.Color != "" {
		where += fmt.Sprintf(" AND $%d = ANY(p.colors)", argIndex)
		args = append(args, opts.Color)
		argIndex++
	}

	if opts.Search != "" {
		where += fmt.Sprintf(
			" AND (p.name ILIKE $%d OR p.description ILIKE $%d OR p.brand ILIKE $%d)",
			argIndex, argIndex, argIndex,
		)
		args = append(args, "%"+escapeLike(opts.Search)+"%")
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+where, args...).Scan(&total); err != nil {
		log.Error("failed to count products", zap.Error(err))
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := "SELECT " + productColumns + " FROM products p" + where +
		" ORDER BY p.created_at DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, opts.Limit, utils.Offset(opts.Page, opts.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	log.Debug("products listed", zap.Int("count", len(products)), zap.Int("total", total))
	return products, total, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Product, error) {
	return r.findOne(ctx, "p.id = $1", id)
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*Product, error) {
	return r.findOne(ctx, "p.slug = $1", slug)
}

func (r *repository) findOne(ctx context.Context, cond string, arg string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products p WHERE "+cond, arg)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product: %w", err)
	}

	p.Variants, err = r.variants(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) variants(ctx context.Context, productID string) ([]Variant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT size, stock FROM product_variants WHERE product_id = $1 ORDER BY position, size`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var out []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.Size, &v.Stock); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) FindByIDs(ctx context.Context, ids []string) ([]Summary, error) {
	if len(ids) == 0 {
		return []Summary{}, nil
	}

	query := `SELECT id, name, price, is_active FROM products WHERE id = ANY($1)`
	if r.inTx {
		query += " FOR SHARE"
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0, len(ids))
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan product summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert inserts or updates p by slug and replaces its variants. Callers
// should run it on a transaction.
func (r *repository) Upsert(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (
			slug, name, description, price, image, images,
			brand, category, sizes, colors, stock, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image = EXCLUDED.image,
			images = EXCLUDED.images,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			sizes = EXCLUDED.sizes,
			colors = EXCLUDED.colors,
			stock = EXCLUDED.stock,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`,
		p.Slug, p.Name, p.Description, p.Price, p.Image, pq.Array(p.Images),
		p.Brand, p.Category, pq.Array(p.Sizes), pq.Array(p.Colors), p.Stock, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Slug, err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear variants of %q: %w", p.Slug, err)
	}

	for i, v := range p.Variants {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO product_variants (product_id, size, stock, position) VALUES ($1, $2, $3, $4)`,
			p.ID, v.Size, v.Stock, i,
		)
		if err != nil {
			return fmt.Errorf("insert variant %s of %q: %w", v.Size, p.Slug, err)
		}
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
