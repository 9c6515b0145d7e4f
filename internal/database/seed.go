// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
)

// Seed credentials for development. The superadmin is prompted to set up
// 2FA on first login (totp_enabled = false).
const (
	SeedAdminEmail    = "admin@storefront.local"
	SeedAdminPassword = "admin123"
	SeedStoreName     = "Demo Store"
)

// Seed populates the database with initial development data: a superadmin,
// a demo store with a default theme document and a couple of products.
// It does nothing when any user exists already.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	settings, err := json.Marshal(models.DefaultThemeSettings())
	if err != nil {
		return fmt.Errorf("seed encode theme: %w", err)
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, SeedAdminEmail, string(hash), "Admin", string(models.RoleSuperAdmin), false).Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	var storeID string
	err = tx.QueryRow(`INSERT INTO stores (name, owner_id) VALUES ($1, $2) RETURNING id`,
		SeedStoreName, userID).Scan(&storeID)
	if err != nil {
		return fmt.Errorf("seed insert store: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO theme_settings (store_id, published_settings, draft_settings)
		VALUES ($1, $2, $2)
	`, storeID, settings)
	if err != nil {
		return fmt.Errorf("seed insert theme: %w", err)
	}

	var categoryID string
	err = tx.QueryRow(`INSERT INTO categories (store_id, name) VALUES ($1, $2) RETURNING id`,
		storeID, "Mugs").Scan(&categoryID)
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	products := []struct {
		name, description string
		price             int64
		stock             int
	}{
		{"Classic Mug", "A sturdy **ceramic** mug. Dishwasher safe.", 1250, 40},
		{"Travel Mug", "Keeps coffee hot for *hours*.", 2400, 15},
	}
	for _, p := range products {
		_, err = tx.Exec(`
			INSERT INTO products (store_id, category_id, name, description, price_cents, stock)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, storeID, categoryID, p.name, p.description, p.price, p.stock)
		if err != nil {
			return fmt.Errorf("seed insert product %q: %w", p.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default superadmin and demo store",
		"email", SeedAdminEmail,
		"password", SeedAdminPassword,
		"store_id", storeID,
	)

	return nil
}
