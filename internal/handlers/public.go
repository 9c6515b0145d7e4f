// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/preview"
	"storefront/internal/render"
	"storefront/internal/store"
	"storefront/internal/theme"
)

// Public groups the customer-facing storefront handlers. Published,
// unfiltered storefronts are served from the Valkey page cache; preview
// and filtered renders always hit the database.
type Public struct {
	renderer   *render.Renderer
	stores     *store.StoreStore
	categories *store.CategoryStore
	products   *store.ProductStore
	themes     *theme.Service
	pageCache  *cache.PageCache
	previews   *preview.Server
}

// NewPublic creates a new Public handler group. pageCache may be nil.
func NewPublic(renderer *render.Renderer, stores *store.StoreStore, categories *store.CategoryStore, products *store.ProductStore, themes *theme.Service, pageCache *cache.PageCache, previews *preview.Server) *Public {
	return &Public{
		renderer:   renderer,
		stores:     stores,
		categories: categories,
		products:   products,
		themes:     themes,
		pageCache:  pageCache,
		previews:   previews,
	}
}

// Storefront renders a store's home page. ?preview=true renders the
// draft theme instead of the published one.
func (p *Public) Storefront(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storeID, err := uuidParam(r, "storeID")
	if err != nil {
		p.renderer.Page(w, http.StatusNotFound, "not_found", nil)
		return
	}

	isPreview := r.URL.Query().Get("preview") == "true"
	filter := productFilter(r)
	cacheable := !isPreview && filter.IsZero() && p.pageCache != nil

	var gen int64
	if cacheable {
		if cached, ok := p.pageCache.Get(ctx, cache.StorefrontKey(storeID)); ok {
			metrics.RecordPageCache(true)
			render.WriteHTML(w, http.StatusOK, cached)
			return
		}
		metrics.RecordPageCache(false)
		gen = p.pageCache.Generation(ctx, storeID)
	}

	st, err := p.stores.FindByID(ctx, storeID)
	if err != nil {
		slog.Error("storefront store lookup failed", "store_id", storeID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if st == nil {
		p.renderer.Page(w, http.StatusNotFound, "not_found", nil)
		return
	}

	data, err := p.storefrontData(ctx, st, filter, isPreview)
	if err != nil {
		slog.Error("storefront load failed", "store_id", storeID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body, err := p.renderer.Render("storefront", data)
	if err != nil {
		slog.Error("storefront render failed", "store_id", storeID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if cacheable {
		p.pageCache.SetIfCurrent(ctx, storeID, gen, cache.StorefrontKey(storeID), body)
	}
	if isPreview {
		w.Header().Set("Cache-Control", "no-store")
	}
	render.WriteHTML(w, http.StatusOK, body)
}

func (p *Public) storefrontData(ctx context.Context, st *models.Store, filter models.ProductFilter, isPreview bool) (*render.StorefrontData, error) {
	doc, err := p.themes.StorefrontTheme(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	products, err := p.products.List(ctx, st.ID, filter)
	if err != nil {
		return nil, err
	}
	categories, err := p.categories.ListByStore(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	return &render.StorefrontData{
		Store:      st,
		Theme:      doc.Fields(isPreview).View(),
		Products:   products,
		Categories: categories,
		Query:      filter.Query,
		CategoryID: filter.CategoryID,
		Preview:    isPreview,
	}, nil
}

// PreviewSocket attaches a preview surface to the store's live edits.
func (p *Public) PreviewSocket(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuidParam(r, "storeID")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p.previews.Serve(w, r, storeID)
}

// Health reports whether the database and Valkey answer.
func Health(db *sql.DB, valkey *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{"database": "ok", "valkey": "ok"}
		if err := db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := valkey.Ping(ctx).Err(); err != nil {
			checks["valkey"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(apperr.Result{Success: status == http.StatusOK, Data: checks})
	}
}
