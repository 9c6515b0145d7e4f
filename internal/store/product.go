// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// ProductStore manages the product catalog.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore returns a new ProductStore.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, store_id, category_id, name, description, price_cents, image_urls, stock, created_at`

func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var (
		p      models.Product
		images []byte
	)
	err := scanner.Scan(
		&p.ID, &p.StoreID, &p.CategoryID, &p.Name, &p.Description,
		&p.PriceCents, &images, &p.Stock, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.ImageURLs); err != nil {
			return nil, fmt.Errorf("decode image_urls: %w", err)
		}
	}
	return &p, nil
}

func encodeImages(urls []string) ([]byte, error) {
	if urls == nil {
		urls = []string{}
	}
	return json.Marshal(urls)
}

// List returns the products of a store, newest first, narrowed by the
// optional name query (case-insensitive substring) and category.
func (s *ProductStore) List(ctx context.Context, storeID uuid.UUID, f models.ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE store_id = $1`
	args := []any{storeID}

	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		query += fmt.Sprintf(` AND category_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindByID returns a product scoped to its store, or nil if not found.
func (s *ProductStore) FindByID(ctx context.Context, storeID, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND store_id = $2`, id, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// Create inserts a product. p.StoreID must be set.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	images, err := encodeImages(p.ImageURLs)
	if err != nil {
		return nil, fmt.Errorf("encode image_urls: %w", err)
	}
	created, err := scanProduct(s.db.QueryRowContext(ctx, `
		INSERT INTO products (store_id, category_id, name, description, price_cents, image_urls, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		p.StoreID, p.CategoryID, p.Name, p.Description, p.PriceCents, images, p.Stock,
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update overwrites the editable fields of a product. Returns nil if the
// product does not belong to p.StoreID.
func (s *ProductStore) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	images, err := encodeImages(p.ImageURLs)
	if err != nil {
		return nil, fmt.Errorf("encode image_urls: %w", err)
	}
	updated, err := scanProduct(s.db.QueryRowContext(ctx, `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, price_cents = $4, image_urls = $5, stock = $6
		WHERE id = $7 AND store_id = $8
		RETURNING `+productColumns,
		p.CategoryID, p.Name, p.Description, p.PriceCents, images, p.Stock, p.ID, p.StoreID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// Delete removes a product and returns the deleted row so the caller can
// clean up its images. Returns nil if nothing matched.
func (s *ProductStore) Delete(ctx context.Context, storeID, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`DELETE FROM products WHERE id = $1 AND store_id = $2 RETURNING `+productColumns, id, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return p, nil
}

// escapeLike escapes the ILIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
