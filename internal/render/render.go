// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render renders the public storefront. Page templates are
// embedded and each is paired with the shared base layout.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/markdown"
	"storefront/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Theme fallbacks applied when a key is unset.
const (
	DefaultPrimaryColor  = "#6D28D9"
	DefaultHeaderBgColor = "#FFFFFF"
	DefaultFooterBgColor = "#F9FAFB"
	DefaultFontFamily    = "Inter"
	DefaultLayoutStyle   = "Grid"
	DefaultPageBgColor   = "#FFFFFF"
	DefaultGradientAngle = "to bottom right"
	DefaultGradientFrom  = "#FFFFFF"
	DefaultGradientTo    = "#E5E7EB"
)

// StorefrontData is the input of the storefront page.
type StorefrontData struct {
	Store      *models.Store
	Theme      models.ThemeView
	Products   []models.Product
	Categories []models.Category
	Query      string
	CategoryID *uuid.UUID
	// Preview pages read draft fields and attach to the preview socket.
	Preview bool
}

// Renderer executes the embedded storefront templates.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page template together with base.html.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"themeVars":   ThemeVars,
		"background":  BackgroundStyle,
		"fontFamily":  func(v models.ThemeView) string { return fontFamily(v) },
		"layout":      func(v models.ThemeView) string { return strings.ToLower(v.Get("layoutStyle", DefaultLayoutStyle)) },
		"description": markdown.Description,
		"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
			return ptr != nil && *ptr == val
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(
			templateFS, "templates/base.html", path.Join("templates", name),
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}
	return r, nil
}

// Render executes the named page into a byte slice so callers can cache
// the result.
func (rn *Renderer) Render(name string, data any) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Page renders the named page to w with the given status.
func (rn *Renderer) Page(w http.ResponseWriter, status int, name string, data any) {
	body, err := rn.Render(name, data)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	WriteHTML(w, status, body)
}

// WriteHTML writes an already rendered page.
func WriteHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
