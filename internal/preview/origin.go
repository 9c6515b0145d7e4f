// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy is an explicit allow-list of browser origins permitted to
// open preview and editor sockets.
type OriginPolicy struct {
	allowed map[string]struct{}
}

// NewOriginPolicy builds a policy from origins such as
// "https://admin.example.com". Entries are compared case-insensitively
// without a trailing slash.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if n := normalizeOrigin(o); n != "" {
			p.allowed[n] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether origin is on the list. Empty and malformed
// origins are refused.
func (p *OriginPolicy) Allowed(origin string) bool {
	n := normalizeOrigin(origin)
	if n == "" {
		return false
	}
	_, ok := p.allowed[n]
	return ok
}

// CheckOrigin adapts the policy to websocket.Upgrader.CheckOrigin.
func (p *OriginPolicy) CheckOrigin(r *http.Request) bool {
	return p.Allowed(r.Header.Get("Origin"))
}

func normalizeOrigin(o string) string {
	o = strings.TrimRight(strings.TrimSpace(o), "/")
	if o == "" {
		return ""
	}
	u, err := url.Parse(o)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
