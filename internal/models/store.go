// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is a tenant storefront owned by a single admin. Deleting a store
// cascades to its theme document, categories and products.
type Store struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	OwnerID      uuid.UUID `json:"owner_id"`
	CustomDomain *string   `json:"custom_domain,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnedBy reports whether the given user owns the store.
func (s *Store) OwnedBy(userID uuid.UUID) bool {
	return s.OwnerID == userID
}
