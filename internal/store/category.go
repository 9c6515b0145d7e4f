// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// ErrCategoryInUse is returned by Delete while a product still references
// the category.
var ErrCategoryInUse = errors.New("category is used by at least one product")

// CategoryStore manages product categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, store_id, name, created_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(&c.ID, &c.StoreID, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByStore returns the categories of a store ordered by name.
func (s *CategoryStore) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE store_id = $1 ORDER BY name`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category scoped to its store. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, storeID, id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND store_id = $2`, id, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// Create inserts a category for a store.
func (s *CategoryStore) Create(ctx context.Context, storeID uuid.UUID, name string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		INSERT INTO categories (store_id, name) VALUES ($1, $2)
		RETURNING `+categoryColumns,
		storeID, name,
	))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Rename changes a category's name. Returns nil if the category does not
// belong to the store.
func (s *CategoryStore) Rename(ctx context.Context, storeID, id uuid.UUID, name string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		UPDATE categories SET name = $1 WHERE id = $2 AND store_id = $3
		RETURNING `+categoryColumns,
		name, id, storeID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	return c, nil
}

// Delete removes a category unless a product references it, in which
// case ErrCategoryInUse is returned. Returns false when no row matched.
func (s *CategoryStore) Delete(ctx context.Context, storeID, id uuid.UUID) (bool, error) {
	var inUse bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)`, id,
	).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	if inUse {
		return false, ErrCategoryInUse
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category rows: %w", err)
	}
	return n > 0, nil
}
