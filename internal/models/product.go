// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// placeholderImage is shown for products without any uploaded image.
const placeholderImage = "https://placehold.co/600x600.png"

// Product is a sellable item in a store's catalog. Price is stored in
// minor units (cents) to avoid float rounding.
type Product struct {
	ID          uuid.UUID  `json:"id"`
	StoreID     uuid.UUID  `json:"store_id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"` // Markdown
	PriceCents  int64      `json:"price_cents"`
	ImageURLs   []string   `json:"image_urls"`
	Stock       int        `json:"stock"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CoverImage returns the first image URL or a placeholder.
func (p *Product) CoverImage() string {
	if len(p.ImageURLs) > 0 && p.ImageURLs[0] != "" {
		return p.ImageURLs[0]
	}
	return placeholderImage
}

// FormattedPrice renders the price as a USD amount, e.g. "$12.50".
func (p *Product) FormattedPrice() string {
	sign := ""
	cents := p.PriceCents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Query      string     // case-insensitive name match
	CategoryID *uuid.UUID // exact category match
}

// IsZero reports whether no filter is set.
func (f ProductFilter) IsZero() bool {
	return f.Query == "" && f.CategoryID == nil
}
