package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"zapas-be/internal/product"
	"zapas-be/internal/utils"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

type catalogEntry struct {
	Name        string            `yaml:"name"`
	Slug        string            `yaml:"slug"`
	Description string            `yaml:"description"`
	Price       decimal.Decimal   `yaml:"price"`
	Image       string            `yaml:"image"`
	Images      []string          `yaml:"images"`
	Brand       string            `yaml:"brand"`
	Category    string            `yaml:"category"`
	Sizes       []string          `yaml:"sizes"`
	Colors      []string          `yaml:"colors"`
	Stock       int               `yaml:"stock"`
	IsActive    *bool             `yaml:"isActive"`
	Variants    []product.Variant `yaml:"variants"`
}

type seedResult struct {
	Created int
	Updated int
}

func loadCatalog(path string) ([]*product.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(raw)
}

// parseCatalog reports every invalid entry at once. A missing slug is derived
// from the name; isActive defaults to true.
func parseCatalog(raw []byte) ([]*product.Product, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, errors.New("catalog has no products")
	}

	var problems []string
	seen := make(map[string]int, len(file.Products))
	items := make([]*product.Product, 0, len(file.Products))

	for i, e := range file.Products {
		slug := strings.TrimSpace(e.Slug)
		if slug == "" {
			slug = utils.Slugify(e.Name)
		}

		switch {
		case strings.TrimSpace(e.Name) == "":
			problems = append(problems, fmt.Sprintf("products.%d.name is required", i))
		case slug == "":
			problems = append(problems, fmt.Sprintf("products.%d.slug is empty", i))
		case !e.Price.IsPositive():
			problems = append(problems, fmt.Sprintf("products.%d.price must be greater than 0", i))
		case e.Stock < 0:
			problems = append(problems, fmt.Sprintf("products.%d.stock must not be negative", i))
		}

		if prev, dup := seen[slug]; dup && slug != "" {
			problems = append(problems, fmt.Sprintf("products.%d.slug %q duplicates products.%d", i, slug, prev))
		}
		seen[slug] = i

		active := true
		if e.IsActive != nil {
			active = *e.IsActive
		}

		items = append(items, &product.Product{
			Slug:        slug,
			Name:        strings.TrimSpace(e.Name),
			Description: utils.NilIfEmpty(e.Description),
			Price:       e.Price,
			Image:       utils.NilIfEmpty(e.Image),
			Images:      orEmpty(e.Images),
			Brand:       utils.NilIfEmpty(e.Brand),
			Category:    utils.NilIfEmpty(e.Category),
			Sizes:       orEmpty(e.Sizes),
			Colors:      orEmpty(e.Colors),
			Stock:       e.Stock,
			IsActive:    active,
			Variants:    e.Variants,
		})
	}

	if len(problems) > 0 {
		return nil, errors.New("invalid catalog: " + strings.Join(problems, "; "))
	}
	return items, nil
}

// seedCatalog upserts every product in a single transaction.
func seedCatalog(ctx context.Context, database *sql.DB, items []*product.Product) (seedResult, error) {
	var res seedResult

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	repo := product.NewRepository(tx)
	for _, p := range items {
		if err := repo.Upsert(ctx, p); err != nil {
			return seedResult{}, err
		}
		if p.CreatedAt.Equal(p.UpdatedAt) {
			res.Created++
		} else {
			res.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return seedResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
