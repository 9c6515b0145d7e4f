// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// public_test.go contains integration tests for the storefront page, its
// page cache and preview mode. Tests are skipped when PostgreSQL or
// Valkey are unavailable.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/models"
)

func getStorefront(t *testing.T, env *testEnv, storeID, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/store/"+storeID+"?"+query, nil)
	req = withRoute(req, nil, "storeID", storeID)
	rec := httptest.NewRecorder()
	env.Public.Storefront(rec, req)
	return rec
}

func TestStorefront_RendersPublishedTheme(t *testing.T) {
	env := newTestEnv(t)
	owner, st := createAdmin(t, env, models.RoleAdmin)
	ctx := context.Background()
	actor := models.Actor{UserID: owner.ID, Role: owner.Role}

	if _, err := env.Products.Create(ctx, &models.Product{StoreID: st.ID, Name: "Blue Mug", PriceCents: 1250}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := env.Service.GetThemeSettings(ctx, actor, st.ID); err != nil {
		t.Fatalf("fetch theme: %v", err)
	}
	var patch models.DraftPatch
	patch.Set(models.FieldDraftHeaderBgColor, "#111111")
	if _, err := env.Service.SaveDraftTheme(ctx, actor, st.ID, &patch); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	rec := getStorefront(t, env, st.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := strings.ToLower(rec.Body.String())
	for _, want := range []string{"test store", "blue mug", "$12.50"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "#111111") {
		t.Error("published storefront shows an unpublished draft color")
	}
	if strings.Contains(body, "preview.js") {
		t.Error("published storefront loads the preview script")
	}

	t.Run("preview shows draft", func(t *testing.T) {
		rec := getStorefront(t, env, st.ID.String(), "preview=true")
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", rec.Code)
		}
		body := strings.ToLower(rec.Body.String())
		if !strings.Contains(body, "#111111") {
			t.Error("preview does not show the draft color")
		}
		if !strings.Contains(body, "/static/preview.js") {
			t.Error("preview does not load the preview script")
		}
		if rec.Header().Get("Cache-Control") != "no-store" {
			t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
		}
	})

	t.Run("publish makes draft live", func(t *testing.T) {
		if _, err := env.Service.PublishTheme(ctx, actor, st.ID); err != nil {
			t.Fatalf("publish: %v", err)
		}
		rec := getStorefront(t, env, st.ID.String(), "")
		if !strings.Contains(strings.ToLower(rec.Body.String()), "#111111") {
			t.Error("published storefront does not show the published color")
		}
	})
}

func TestStorefront_PageCache(t *testing.T) {
	env := newTestEnv(t)
	owner, st := createAdmin(t, env, models.RoleAdmin)
	ctx := context.Background()
	key := cache.StorefrontKey(st.ID)

	rec := getStorefront(t, env, st.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	cached, ok := env.PageCache.Get(ctx, key)
	if !ok || string(cached) != rec.Body.String() {
		t.Fatal("published render was not cached")
	}

	// Served from cache on the next request.
	env.PageCache.Set(ctx, key, []byte("<p>from cache</p>"))
	rec = getStorefront(t, env, st.ID.String(), "")
	if rec.Body.String() != "<p>from cache</p>" {
		t.Error("cached page not served")
	}

	// Preview and filtered renders bypass the cache.
	rec = getStorefront(t, env, st.ID.String(), "preview=true")
	if strings.Contains(rec.Body.String(), "from cache") {
		t.Error("preview served from cache")
	}
	rec = getStorefront(t, env, st.ID.String(), "q=mug")
	if strings.Contains(rec.Body.String(), "from cache") {
		t.Error("filtered listing served from cache")
	}

	// Publishing drops the cached page.
	actor := models.Actor{UserID: owner.ID, Role: owner.Role}
	if _, err := env.Service.GetThemeSettings(ctx, actor, st.ID); err != nil {
		t.Fatalf("fetch theme: %v", err)
	}
	if _, err := env.Service.PublishTheme(ctx, actor, st.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, ok := env.PageCache.Get(ctx, key); ok {
		t.Error("publish did not invalidate the cached storefront")
	}
}

func TestStorefront_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		rec := getStorefront(t, env, id, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("store %q: got %d, want 404", id, rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
			t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
		}
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	Health(env.DB, env.Valkey)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var res struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.Data["database"] != "ok" || res.Data["valkey"] != "ok" {
		t.Errorf("health = %+v", res)
	}
}
