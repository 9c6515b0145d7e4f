// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/session"
)

type catalogFixture struct {
	env   *testEnv
	store *models.Store
	sess  *session.Data
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	env := newTestEnv(t)
	owner, st := createAdmin(t, env, models.RoleAdmin)
	return &catalogFixture{env: env, store: st, sess: testSession(owner.ID, owner.Role)}
}

func (f *catalogFixture) req(t *testing.T, method string, body any, params ...string) *http.Request {
	t.Helper()
	return withRoute(jsonRequest(t, method, "/", body), f.sess, append([]string{"storeID", f.store.ID.String()}, params...)...)
}

func (f *catalogFixture) createCategory(t *testing.T, name string) models.Category {
	t.Helper()
	rec := httptest.NewRecorder()
	f.env.Catalog.CreateCategory(rec, f.req(t, http.MethodPost, map[string]string{"name": name}))
	var c models.Category
	decodeResult(t, rec, http.StatusCreated, &c)
	return c
}

func (f *catalogFixture) createProduct(t *testing.T, body map[string]any) models.Product {
	t.Helper()
	rec := httptest.NewRecorder()
	f.env.Catalog.CreateProduct(rec, f.req(t, http.MethodPost, body))
	var p models.Product
	decodeResult(t, rec, http.StatusCreated, &p)
	return p
}

func TestCategoriesCRUD(t *testing.T) {
	f := newCatalogFixture(t)

	c := f.createCategory(t, "Mugs")
	if c.Name != "Mugs" || c.StoreID != f.store.ID {
		t.Fatalf("category = %+v", c)
	}

	rec := httptest.NewRecorder()
	f.env.Catalog.UpdateCategory(rec, f.req(t, http.MethodPut, map[string]string{"name": "Cups"}, "categoryID", c.ID.String()))
	var renamed models.Category
	decodeResult(t, rec, http.StatusOK, &renamed)
	if renamed.Name != "Cups" {
		t.Errorf("name = %q", renamed.Name)
	}

	rec = httptest.NewRecorder()
	f.env.Catalog.ListCategories(rec, f.req(t, http.MethodGet, nil))
	var items []models.Category
	decodeResult(t, rec, http.StatusOK, &items)
	if len(items) != 1 || items[0].ID != c.ID {
		t.Errorf("categories = %+v", items)
	}

	rec = httptest.NewRecorder()
	f.env.Catalog.DeleteCategory(rec, f.req(t, http.MethodDelete, nil, "categoryID", c.ID.String()))
	decodeResult(t, rec, http.StatusOK, nil)

	rec = httptest.NewRecorder()
	f.env.Catalog.DeleteCategory(rec, f.req(t, http.MethodDelete, nil, "categoryID", c.ID.String()))
	decodeResult(t, rec, http.StatusNotFound, nil)
}

func TestCategoryDeleteRefusedWhileInUse(t *testing.T) {
	f := newCatalogFixture(t)
	c := f.createCategory(t, "Mugs")
	f.createProduct(t, map[string]any{"name": "Blue Mug", "price_cents": 1250, "category_id": c.ID.String()})

	rec := httptest.NewRecorder()
	f.env.Catalog.DeleteCategory(rec, f.req(t, http.MethodDelete, nil, "categoryID", c.ID.String()))
	res := decodeResult(t, rec, http.StatusBadRequest, nil)
	if res.Error == "" {
		t.Error("expected an explanation")
	}
}

func TestProductsCRUD(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.createCategory(t, "Mugs")

	p := f.createProduct(t, map[string]any{
		"name":        "Blue Mug",
		"description": "A **blue** mug.",
		"price_cents": 1250,
		"stock":       4,
		"category_id": c.ID.String(),
		"image_urls":  []string{"https://cdn.example.com/blue-mug.png"},
	})
	if p.CategoryID == nil || *p.CategoryID != c.ID || len(p.ImageURLs) != 1 {
		t.Fatalf("product = %+v", p)
	}
	f.createProduct(t, map[string]any{"name": "Red Plate", "price_cents": 900})

	t.Run("filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := f.req(t, http.MethodGet, nil)
		req.URL.RawQuery = "q=mug"
		f.env.Catalog.ListProducts(rec, req)
		var items []models.Product
		decodeResult(t, rec, http.StatusOK, &items)
		if len(items) != 1 || items[0].ID != p.ID {
			t.Errorf("q=mug returned %d products", len(items))
		}

		rec = httptest.NewRecorder()
		req = f.req(t, http.MethodGet, nil)
		req.URL.RawQuery = "category=" + c.ID.String()
		f.env.Catalog.ListProducts(rec, req)
		items = nil
		decodeResult(t, rec, http.StatusOK, &items)
		if len(items) != 1 {
			t.Errorf("category filter returned %d products", len(items))
		}
	})

	t.Run("update invalidates cache", func(t *testing.T) {
		f.env.PageCache.Set(ctx, cache.StorefrontKey(f.store.ID), []byte("stale"))

		rec := httptest.NewRecorder()
		f.env.Catalog.UpdateProduct(rec, f.req(t, http.MethodPut, map[string]any{"name": "Navy Mug", "price_cents": 1500}, "productID", p.ID.String()))
		var updated models.Product
		decodeResult(t, rec, http.StatusOK, &updated)
		if updated.Name != "Navy Mug" || updated.PriceCents != 1500 || updated.CategoryID != nil {
			t.Errorf("updated = %+v", updated)
		}
		if _, ok := f.env.PageCache.Get(ctx, cache.StorefrontKey(f.store.ID)); ok {
			t.Error("storefront cache not invalidated")
		}
	})

	t.Run("rejects", func(t *testing.T) {
		tests := []struct {
			name   string
			body   map[string]any
			status int
		}{
			{"negative price", map[string]any{"name": "X", "price_cents": -1}, http.StatusBadRequest},
			{"unknown category", map[string]any{"name": "X", "category_id": uuid.NewString()}, http.StatusBadRequest},
			{"bad image", map[string]any{"name": "X", "image_urls": []string{"file:///etc/passwd"}}, http.StatusBadRequest},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			f.env.Catalog.CreateProduct(rec, f.req(t, http.MethodPost, tt.body))
			if rec.Code != tt.status {
				t.Errorf("%s: status %d, want %d", tt.name, rec.Code, tt.status)
			}
		}

		rec := httptest.NewRecorder()
		f.env.Catalog.UpdateProduct(rec, f.req(t, http.MethodPut, map[string]any{"name": "X"}, "productID", uuid.NewString()))
		decodeResult(t, rec, http.StatusNotFound, nil)
	})

	t.Run("delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.env.Catalog.DeleteProduct(rec, f.req(t, http.MethodDelete, nil, "productID", p.ID.String()))
		decodeResult(t, rec, http.StatusOK, nil)

		rec = httptest.NewRecorder()
		f.env.Catalog.DeleteProduct(rec, f.req(t, http.MethodDelete, nil, "productID", p.ID.String()))
		decodeResult(t, rec, http.StatusNotFound, nil)
	})
}

func TestCatalogDeniesOtherAdmins(t *testing.T) {
	f := newCatalogFixture(t)
	f.sess = testSession(uuid.New(), models.RoleAdmin)

	rec := httptest.NewRecorder()
	f.env.Catalog.ListProducts(rec, f.req(t, http.MethodGet, nil))
	decodeResult(t, rec, http.StatusForbidden, nil)

	rec = httptest.NewRecorder()
	f.env.Catalog.CreateCategory(rec, f.req(t, http.MethodPost, map[string]string{"name": "Mugs"}))
	decodeResult(t, rec, http.StatusForbidden, nil)
}

type fakeImages struct {
	deleted []string
}

func (f *fakeImages) ExtractKey(rawURL string) (string, bool) {
	const prefix = "https://cdn.example.com/"
	if len(rawURL) <= len(prefix) || rawURL[:len(prefix)] != prefix {
		return "", false
	}
	return rawURL[len(prefix):], true
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func TestDeleteProductRemovesStoredImages(t *testing.T) {
	f := newCatalogFixture(t)
	images := &fakeImages{}
	f.env.Catalog.images = images

	p := f.createProduct(t, map[string]any{
		"name":       "Blue Mug",
		"image_urls": []string{"https://cdn.example.com/blue-mug.png", "https://elsewhere.example/x.png"},
	})

	rec := httptest.NewRecorder()
	f.env.Catalog.DeleteProduct(rec, f.req(t, http.MethodDelete, nil, "productID", p.ID.String()))
	decodeResult(t, rec, http.StatusOK, nil)

	if len(images.deleted) != 1 || images.deleted[0] != "blue-mug.png" {
		t.Errorf("deleted = %v", images.deleted)
	}
}
