// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"storefront/internal/models"
)

// Validation limits for account and catalog input.
const (
	minPasswordLen      = 6
	maxPasswordLen      = 72 // bcrypt ignores anything longer
	minStoreNameLen     = 2
	maxNameLen          = 200
	maxDescriptionLen   = 10_000
	maxImagesPerProduct = 10
)

// validateEmail checks that s is a plain address.
func validateEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Email is required."
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@"):], ".") {
		return "Please enter a valid email address."
	}
	return ""
}

func validatePassword(s string) string {
	n := utf8.RuneCountInString(s)
	if n < minPasswordLen {
		return "Password must be at least 6 characters."
	}
	if len(s) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	return ""
}

func validateStoreName(s string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < minStoreNameLen {
		return "Store name must be at least 2 characters."
	}
	if n > maxNameLen {
		return "Store name is too long (max 200 characters)."
	}
	return ""
}

func validateCategoryName(s string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n == 0 {
		return "Category name is required."
	}
	if n > maxNameLen {
		return "Category name is too long (max 200 characters)."
	}
	return ""
}

// productInput is the JSON body of product create and update.
type productInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Stock       int      `json:"stock"`
	CategoryID  *string  `json:"category_id"`
	ImageURLs   []string `json:"image_urls"`
}

// validateProduct checks product input and returns the first error found.
func validateProduct(in *productInput) string {
	n := utf8.RuneCountInString(strings.TrimSpace(in.Name))
	switch {
	case n == 0:
		return "Product name is required."
	case n > maxNameLen:
		return "Product name is too long (max 200 characters)."
	case utf8.RuneCountInString(in.Description) > maxDescriptionLen:
		return "Description is too long (max 10,000 characters)."
	case in.PriceCents < 0:
		return "Price cannot be negative."
	case in.Stock < 0:
		return "Stock cannot be negative."
	case len(in.ImageURLs) > maxImagesPerProduct:
		return "A product can have at most 10 images."
	}
	for _, u := range in.ImageURLs {
		if !models.IsAssetURL(u) {
			return "Image URLs must be http(s) URLs."
		}
	}
	return ""
}
