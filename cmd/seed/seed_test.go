package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"zapas-be/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		items, err := parseCatalog([]byte(`
products:
  - name: "Zapatillas Sostenibles Clásicas"
    price: "89.99"
    sizes: ["40", "41"]
    variants:
      - {size: "40", stock: 3}
  - name: Tree Flyer
    slug: tree-flyer
    price: 169
    isActive: false
`))
		require.NoError(t, err)
		require.Len(t, items, 2)

		first := items[0]
		assert.Equal(t, "zapatillas-sostenibles-clasicas", first.Slug)
		assert.True(t, first.Price.Equal(decimal.RequireFromString("89.99")))
		assert.True(t, first.IsActive)
		assert.Nil(t, first.Description)
		assert.Equal(t, []string{}, first.Colors)
		require.Len(t, first.Variants, 1)
		assert.Equal(t, 3, first.Variants[0].Stock)

		assert.Equal(t, "tree-flyer", items[1].Slug)
		assert.False(t, items[1].IsActive)
		assert.True(t, items[1].Price.Equal(decimal.NewFromInt(169)))
	})

	t.Run("Reports every problem", func(t *testing.T) {
		_, err := parseCatalog([]byte(`
products:
  - name: ""
    price: "10"
  - name: Free
    price: "0"
  - name: Runner
    price: "1"
  - name: Runner
    price: "2"
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "products.0.name is required")
		assert.Contains(t, err.Error(), "products.1.price must be greater than 0")
		assert.Contains(t, err.Error(), `products.3.slug "runner" duplicates products.2`)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := parseCatalog([]byte("products: []"))
		assert.EqualError(t, err, "catalog has no products")
	})
}

func TestShippedCatalog(t *testing.T) {
	items, err := loadCatalog("../../seed/products.yaml")
	require.NoError(t, err)
	require.Len(t, items, 8)
	assert.Equal(t, "Zapatillas Sostenibles Clásicas", items[0].Name)
	assert.Equal(t, "89.99", items[0].Price.StringFixed(2))
}

func TestSeedCatalog(t *testing.T) {
	items, err := parseCatalog([]byte(`
products:
  - name: Runner Natural
    price: "129.00"
    variants:
      - {size: "40", stock: 2}
  - name: Tree Skipper
    price: "119.00"
`))
	require.NoError(t, err)

	t.Run("Upserts in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		later := created.Add(time.Hour)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO products").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("p1", created, created))
		mock.ExpectExec("DELETE FROM product_variants").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO product_variants").
			WithArgs("p1", "40", 2, 0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("INSERT INTO products").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("p2", created, later))
		mock.ExpectExec("DELETE FROM product_variants").WithArgs("p2").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		res, err := seedCatalog(context.Background(), db, items)

		require.NoError(t, err)
		assert.Equal(t, seedResult{Created: 1, Updated: 1}, res)
		assert.Equal(t, "p1", items[0].ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO products").WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		_, err = seedCatalog(context.Background(), db, items)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "runner-natural")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRootCommand(t *testing.T) {
	t.Run("Dry run does not touch the database", func(t *testing.T) {
		orig := openDBFunc
		defer func() { openDBFunc = orig }()
		openDBFunc = func(*config.Config) (*sql.DB, error) {
			t.Fatal("database opened during dry run")
			return nil, nil
		}

		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--file", "../../seed/products.yaml", "--dry-run"})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "8 products in ../../seed/products.yaml\n", out.String())
	})

	t.Run("Requires a database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_HOST", "")

		cmd := newRootCmd()
		cmd.SetArgs([]string{"--file", "../../seed/products.yaml"})
		assert.EqualError(t, cmd.Execute(), "DATABASE_URL or DB_HOST not set")
	})

	t.Run("Passes flags to the connection", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectBegin().WillReturnError(errors.New("no tx"))
		mock.ExpectClose()

		orig := openDBFunc
		defer func() { openDBFunc = orig }()
		var got *config.Config
		openDBFunc = func(cfg *config.Config) (*sql.DB, error) {
			got = cfg
			return db, nil
		}

		cmd := newRootCmd()
		cmd.SetArgs([]string{"--file", "../../seed/products.yaml", "--database-url", "postgres://seed", "--driver", "pgx"})

		err = cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no tx")
		assert.Equal(t, "postgres://seed", got.DBURL)
		assert.Equal(t, "pgx", got.DBDriver)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
