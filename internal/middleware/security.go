// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// NewSecureHeaders returns middleware adding security headers to every
// response. frameAncestors lists the extra origins (the theme editors)
// allowed to embed storefront pages for live preview; with none, pages may
// only be framed by the same origin.
func NewSecureHeaders(frameAncestors []string) func(http.Handler) http.Handler {
	csp := "frame-ancestors 'self'"
	if len(frameAncestors) > 0 {
		csp += " " + strings.Join(frameAncestors, " ")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Content-Security-Policy", csp)
			// Browsers that honor frame-ancestors ignore X-Frame-Options,
			// which cannot express a list of origins.
			if len(frameAncestors) == 0 {
				h.Set("X-Frame-Options", "SAMEORIGIN")
			}
			h.Set("X-XSS-Protection", "0")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "interest-cohort=()")

			// Admin API responses carry account and draft data.
			if isAPIRequest(r) {
				h.Set("Cache-Control", "no-store")
			}

			next.ServeHTTP(w, r)
		})
	}
}
