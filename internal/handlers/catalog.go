// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/storage"
	"storefront/internal/store"
)

// ImageRemover deletes stored product images by public URL.
type ImageRemover interface {
	ExtractKey(rawURL string) (string, bool)
	Delete(ctx context.Context, key string) error
}

// Catalog groups the category and product handlers of one store.
type Catalog struct {
	stores     *store.StoreStore
	categories *store.CategoryStore
	products   *store.ProductStore
	pageCache  *cache.PageCache
	images     ImageRemover
}

// NewCatalog creates a new Catalog handler group. pageCache and
// storageClient may be nil.
func NewCatalog(stores *store.StoreStore, categories *store.CategoryStore, products *store.ProductStore, pageCache *cache.PageCache, storageClient *storage.Client) *Catalog {
	c := &Catalog{stores: stores, categories: categories, products: products, pageCache: pageCache}
	if storageClient != nil {
		c.images = storageClient
	}
	return c
}

// invalidate drops the cached storefront after a catalog change.
func (h *Catalog) invalidate(ctx context.Context, storeID uuid.UUID) {
	if h.pageCache != nil {
		h.pageCache.InvalidateStore(ctx, storeID)
	}
}

// ListCategories returns the categories of a store.
func (h *Catalog) ListCategories(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := h.categories.ListByStore(r.Context(), st.ID)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not load categories.", err))
		return
	}
	if items == nil {
		items = []models.Category{}
	}
	apperr.WriteJSON(w, http.StatusOK, items)
}

type categoryInput struct {
	Name string `json:"name"`
}

// CreateCategory adds a category to a store.
func (h *Catalog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}
	if msg := validateCategoryName(in.Name); msg != "" {
		apperr.WriteError(w, apperr.Validation(msg))
		return
	}

	c, err := h.categories.Create(r.Context(), st.ID, strings.TrimSpace(in.Name))
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not create the category.", err))
		return
	}
	h.invalidate(r.Context(), st.ID)
	apperr.WriteJSON(w, http.StatusCreated, c)
}

// UpdateCategory renames a category.
func (h *Catalog) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := uuidParam(r, "categoryID")
	if err != nil {
		apperr.WriteError(w, apperr.NotFound("Category not found."))
		return
	}
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}
	if msg := validateCategoryName(in.Name); msg != "" {
		apperr.WriteError(w, apperr.Validation(msg))
		return
	}

	c, err := h.categories.Rename(r.Context(), st.ID, id, strings.TrimSpace(in.Name))
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not update the category.", err))
		return
	}
	if c == nil {
		apperr.WriteError(w, apperr.NotFound("Category not found."))
		return
	}
	h.invalidate(r.Context(), st.ID)
	apperr.WriteJSON(w, http.StatusOK, c)
}

// DeleteCategory removes a category that no product uses.
func (h *Catalog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := uuidParam(r, "categoryID")
	if err != nil {
		apperr.WriteError(w, apperr.NotFound("Category not found."))
		return
	}

	deleted, err := h.categories.Delete(r.Context(), st.ID, id)
	if errors.Is(err, store.ErrCategoryInUse) {
		apperr.WriteError(w, apperr.Validation("This category still has products. Move or delete them first."))
		return
	}
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not delete the category.", err))
		return
	}
	if !deleted {
		apperr.WriteError(w, apperr.NotFound("Category not found."))
		return
	}
	h.invalidate(r.Context(), st.ID)
	apperr.WriteJSON(w, http.StatusOK, nil)
}

// productFilter reads the q and category query parameters.
func productFilter(r *http.Request) models.ProductFilter {
	f := models.ProductFilter{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if id, err := uuid.Parse(r.URL.Query().Get("category")); err == nil {
		f.CategoryID = &id
	}
	return f
}

// ListProducts returns a store's products, optionally filtered.
func (h *Catalog) ListProducts(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := h.products.List(r.Context(), st.ID, productFilter(r))
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not load products.", err))
		return
	}
	if items == nil {
		items = []models.Product{}
	}
	apperr.WriteJSON(w, http.StatusOK, items)
}

// productFromInput validates input and resolves its category within the
// store.
func (h *Catalog) productFromInput(ctx context.Context, storeID uuid.UUID, in *productInput) (*models.Product, error) {
	if msg := validateProduct(in); msg != "" {
		return nil, apperr.Validation(msg)
	}
	p := &models.Product{
		StoreID:     storeID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		ImageURLs:   in.ImageURLs,
	}
	if in.CategoryID != nil && *in.CategoryID != "" {
		id, err := uuid.Parse(*in.CategoryID)
		if err != nil {
			return nil, apperr.Validation("Unknown category.")
		}
		c, err := h.categories.FindByID(ctx, storeID, id)
		if err != nil {
			return nil, apperr.Upstream("Could not load the category.", err)
		}
		if c == nil {
			return nil, apperr.Validation("Unknown category.")
		}
		p.CategoryID = &c.ID
	}
	return p, nil
}

// CreateProduct adds a product to a store.
func (h *Catalog) CreateProduct(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in productInput
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}
	p, err := h.productFromInput(r.Context(), st.ID, &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	created, err := h.products.Create(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not create the product.", err))
		return
	}
	h.invalidate(r.Context(), st.ID)
	apperr.WriteJSON(w, http.StatusCreated, created)
}

// UpdateProduct overwrites a product's editable fields.
func (h *Catalog) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := uuidParam(r, "productID")
	if err != nil {
		apperr.WriteError(w, apperr.NotFound("Product not found."))
		return
	}
	var in productInput
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}
	p, err := h.productFromInput(r.Context(), st.ID, &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p.ID = id

	updated, err := h.products.Update(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not update the product.", err))
		return
	}
	if updated == nil {
		apperr.WriteError(w, apperr.NotFound("Product not found."))
		return
	}
	h.invalidate(r.Context(), st.ID)
	apperr.WriteJSON(w, http.StatusOK, updated)
}

// DeleteProduct removes a product and, best effort, its stored images.
func (h *Catalog) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := uuidParam(r, "productID")
	if err != nil {
		apperr.WriteError(w, apperr.NotFound("Product not found."))
		return
	}

	deleted, err := h.products.Delete(r.Context(), st.ID, id)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not delete the product.", err))
		return
	}
	if deleted == nil {
		apperr.WriteError(w, apperr.NotFound("Product not found."))
		return
	}
	h.removeImages(r.Context(), deleted.ImageURLs)
	h.invalidate(r.Context(), st.ID)
	apperr.WriteJSON(w, http.StatusOK, nil)
}

// removeImages deletes the objects behind urls that live in our bucket.
// Failures are logged; the product is already gone.
func (h *Catalog) removeImages(ctx context.Context, urls []string) {
	if h.images == nil {
		return
	}
	for _, u := range urls {
		key, ok := h.images.ExtractKey(u)
		if !ok {
			continue
		}
		if err := h.images.Delete(ctx, key); err != nil {
			slog.Warn("product image delete failed", "key", key, "error", err)
		}
	}
}
