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

// StoreStore manages the stores table (one row per tenant storefront).
type StoreStore struct {
	db *sql.DB
}

// NewStoreStore returns a new StoreStore.
func NewStoreStore(db *sql.DB) *StoreStore {
	return &StoreStore{db: db}
}

const storeColumns = `id, name, owner_id, custom_domain, created_at`

func scanStore(scanner interface{ Scan(...any) error }) (*models.Store, error) {
	var st models.Store
	if err := scanner.Scan(&st.ID, &st.Name, &st.OwnerID, &st.CustomDomain, &st.CreatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// Create inserts a store owned by ownerID.
func (s *StoreStore) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Store, error) {
	st, err := scanStore(s.db.QueryRowContext(ctx, `
		INSERT INTO stores (name, owner_id) VALUES ($1, $2)
		RETURNING `+storeColumns,
		name, ownerID,
	))
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return st, nil
}

// FindByID returns a store by ID, or nil if it does not exist.
func (s *StoreStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	st, err := scanStore(s.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find store: %w", err)
	}
	return st, nil
}

// ListByOwner returns the stores owned by a user, newest first.
func (s *StoreStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	return s.list(ctx, `SELECT `+storeColumns+` FROM stores WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

// ListAll returns every store, newest first.
func (s *StoreStore) ListAll(ctx context.Context) ([]models.Store, error) {
	return s.list(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY created_at DESC`)
}

func (s *StoreStore) list(ctx context.Context, query string, args ...any) ([]models.Store, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var items []models.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		items = append(items, *st)
	}
	return items, rows.Err()
}

// Delete removes a store. The theme document, categories and products
// are removed by ON DELETE CASCADE. Returns false when no row matched.
func (s *StoreStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete store: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete store rows: %w", err)
	}
	return n > 0, nil
}
