// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Integration tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"storefront/internal/cache"
	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/preview"
	"storefront/internal/render"
	"storefront/internal/session"
	"storefront/internal/store"
	"storefront/internal/theme"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "storefront")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "storefront")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "page:*", "pagegen:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Sessions   *session.Store
	Users      *store.UserStore
	Stores     *store.StoreStore
	Categories *store.CategoryStore
	Products   *store.ProductStore
	Themes     *store.ThemeStore
	PageCache  *cache.PageCache
	Hub        *preview.Hub
	Service    *theme.Service

	Auth          *Auth
	StoreHandlers *Stores
	Catalog       *Catalog
	Theme         *Theme
	Public        *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	users := store.NewUserStore(db)
	stores := store.NewStoreStore(db)
	categories := store.NewCategoryStore(db)
	products := store.NewProductStore(db)
	themes := store.NewThemeStore(db)
	pageCache := cache.NewPageCache(vk, time.Minute)
	hub := preview.NewHub(preview.DefaultBuffer)
	policy := preview.NewOriginPolicy([]string{testOrigin})
	service := theme.NewService(themes, stores, pageCache, hub)

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Sessions:   sessions,
		Users:      users,
		Stores:     stores,
		Categories: categories,
		Products:   products,
		Themes:     themes,
		PageCache:  pageCache,
		Hub:        hub,
		Service:    service,

		Auth:          NewAuth(sessions, users, stores),
		StoreHandlers: NewStores(stores, pageCache),
		Catalog:       NewCatalog(stores, categories, products, pageCache, nil),
		Theme:         NewTheme(service, hub, policy, time.Hour),
		Public:        NewPublic(renderer, stores, categories, products, service, pageCache, preview.NewServer(hub, policy)),
	}
}

// testOrigin is the only origin test sockets are allowed from.
const testOrigin = "http://editor.test"

// createAdmin inserts an admin with one store. Both are removed when the
// test ends.
func createAdmin(t *testing.T, env *testEnv, role models.Role) (*models.User, *models.Store) {
	t.Helper()
	email := "admin-" + uuid.NewString()[:8] + "@storefront.test"
	user, err := env.Users.Create(email, "s3cret-pass", "Test Admin", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { env.Users.Delete(user.ID) })

	st, err := env.Stores.Create(context.Background(), user.ID, "Test Store")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return user, st
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, role models.Role) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       "test@storefront.test",
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   true,
	}
}

// withRoute adds chi URL parameters (name, value pairs) and an optional
// session to a request.
func withRoute(r *http.Request, sess *session.Data, params ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if sess != nil {
		ctx = ctxWithSession(ctx, sess)
	}
	return r.WithContext(ctx)
}

// jsonRequest builds a request with body encoded as JSON.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// result mirrors apperr.Result with the data left raw.
type result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// decodeResult reads the response envelope, failing the test when the
// status differs from want. A non-nil data receives the payload.
func decodeResult(t *testing.T, rec *httptest.ResponseRecorder, want int, data any) result {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
	var res result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if res.Success != (want < 400) {
		t.Errorf("success = %v for status %d", res.Success, want)
	}
	if data != nil && len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return res
}
