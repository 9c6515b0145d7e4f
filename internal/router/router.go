// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// storefront service. Routes are organized into public storefront pages,
// the preview socket and the JSON admin API.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/web"
)

// Login and signup attempts allowed per client IP within loginWindow.
const (
	loginLimit  = 10
	loginWindow = 15 * time.Minute
)

// Handlers bundles the handler groups mounted by New.
type Handlers struct {
	Auth    *handlers.Auth
	Stores  *handlers.Stores
	Catalog *handlers.Catalog
	Theme   *handlers.Theme
	Uploads *handlers.Uploads
	Public  *handlers.Public
	Health  http.HandlerFunc
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. frameAncestors are the editor origins allowed
// to frame storefront previews. The returned rate limiter must be stopped
// on shutdown.
func New(sessionStore *session.Store, h Handlers, secureCookies bool, frameAncestors []string) (chi.Router, *middleware.RateLimiter) {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(metrics.Instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.NewSecureHeaders(frameAncestors))
	r.Use(middleware.LoadSession(sessionStore))

	// Operational endpoints: no auth, no CSRF.
	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())

	static, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Customer-facing storefront and the preview subscriber socket.
	r.Get("/store/{storeID}", h.Public.Storefront)
	r.Get("/store/{storeID}/preview/ws", h.Public.PreviewSocket)

	limiter := middleware.NewRateLimiter(loginLimit, loginWindow)

	r.Route(middleware.APIPrefix, func(r chi.Router) {
		r.Use(middleware.NewCSRF(secureCookies))

		r.With(limiter.Middleware).Post("/signup", h.Auth.Signup)
		r.With(limiter.Middleware).Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		// Session required, 2FA may still be pending.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", h.Auth.Me)
			r.Post("/2fa/setup", h.Auth.TwoFASetup)
			r.Post("/2fa/verify", h.Auth.TwoFAVerify)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)

			r.Route("/stores", func(r chi.Router) {
				r.Get("/", h.Stores.List)
				r.Post("/", h.Stores.Create)

				r.Route("/{storeID}", func(r chi.Router) {
					r.Get("/", h.Stores.Get)
					r.Delete("/", h.Stores.Delete)

					r.Route("/categories", func(r chi.Router) {
						r.Get("/", h.Catalog.ListCategories)
						r.Post("/", h.Catalog.CreateCategory)
						r.Put("/{categoryID}", h.Catalog.UpdateCategory)
						r.Delete("/{categoryID}", h.Catalog.DeleteCategory)
					})

					r.Route("/products", func(r chi.Router) {
						r.Get("/", h.Catalog.ListProducts)
						r.Post("/", h.Catalog.CreateProduct)
						r.Put("/{productID}", h.Catalog.UpdateProduct)
						r.Delete("/{productID}", h.Catalog.DeleteProduct)
					})

					r.Route("/theme", func(r chi.Router) {
						r.Get("/", h.Theme.Get)
						r.Patch("/draft", h.Theme.SaveDraft)
						r.Post("/publish", h.Theme.Publish)
						r.Get("/editor", h.Theme.Editor)
					})
				})
			})

			r.Post("/uploads/sign", h.Uploads.Sign)
		})
	})

	return r, limiter
}
