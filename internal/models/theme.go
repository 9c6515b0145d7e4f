// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ThemeSettings maps free-form theme keys (primaryColor, fontFamily,
// layoutStyle, ...) to JSON values.
type ThemeSettings map[string]any

// DefaultThemeSettings returns the settings every new theme document starts
// with, mirrored into both draft and published.
func DefaultThemeSettings() ThemeSettings {
	return ThemeSettings{
		"primaryColor": "#6D28D9",
		"fontFamily":   "Inter",
		"layoutStyle":  "Grid",
	}
}

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (s ThemeSettings) Clone() ThemeSettings {
	out := make(ThemeSettings, len(s))
	maps.Copy(out, s)
	return out
}

// BackgroundType tags the Background variant.
type BackgroundType string

const (
	BackgroundColor    BackgroundType = "color"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundImage    BackgroundType = "image"
)

// Background is a tagged variant: color and image use Value, gradient
// uses From/To and an optional Angle.
type Background struct {
	Type  BackgroundType `json:"type"`
	Value string         `json:"value,omitempty"`
	From  string         `json:"from,omitempty"`
	To    string         `json:"to,omitempty"`
	Angle string         `json:"angle,omitempty"`
}

// Validate checks the mode-specific fields of the background.
func (b *Background) Validate() error {
	switch b.Type {
	case BackgroundColor:
		if !IsHexColor(b.Value) {
			return fmt.Errorf("background color %q is not a hex color", b.Value)
		}
	case BackgroundGradient:
		if !IsHexColor(b.From) || !IsHexColor(b.To) {
			return fmt.Errorf("gradient needs hex from/to colors")
		}
	case BackgroundImage:
		if !IsAssetURL(b.Value) {
			return fmt.Errorf("background image %q is not an http(s) URL", b.Value)
		}
	default:
		return fmt.Errorf("unknown background type %q", b.Type)
	}
	return nil
}

// BackgroundFrom converts a decoded JSON value (usually map[string]any)
// into a validated Background.
func BackgroundFrom(v any) (*Background, error) {
	switch b := v.(type) {
	case *Background:
		if b == nil {
			return nil, fmt.Errorf("background is missing")
		}
		return b, b.Validate()
	case Background:
		return &b, b.Validate()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode background: %w", err)
	}
	var b Background
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether s looks like #rgb or #rrggbb.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// IsAssetURL reports whether s is an absolute http(s) URL.
func IsAssetURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ThemeFields is one side (draft or published) of a theme document.
type ThemeFields struct {
	Settings      ThemeSettings `json:"settings"`
	LogoURL       *string       `json:"logo_url"`
	HeaderBgColor *string       `json:"header_bg_color"`
	FooterBgColor *string       `json:"footer_bg_color"`
	Background    *Background   `json:"background"`
}

// View flattens the fields into the key space used by the storefront
// renderer and the live preview channel.
func (f ThemeFields) View() ThemeView {
	v := ThemeView(f.Settings.Clone())
	if f.LogoURL != nil {
		v[ViewLogoURL] = *f.LogoURL
	}
	if f.HeaderBgColor != nil {
		v[ViewHeaderBgColor] = *f.HeaderBgColor
	}
	if f.FooterBgColor != nil {
		v[ViewFooterBgColor] = *f.FooterBgColor
	}
	if f.Background != nil {
		v[ViewBackground] = *f.Background
	}
	return v
}

// ThemeDocument holds the draft and published theme of one store. Only
// Publish writes the published side; it copies the whole draft.
type ThemeDocument struct {
	ID      uuid.UUID `json:"id"`
	StoreID uuid.UUID `json:"store_id"`

	PublishedSettings      ThemeSettings `json:"published_settings"`
	PublishedLogoURL       *string       `json:"published_logo_url"`
	PublishedHeaderBgColor *string       `json:"published_header_bg_color"`
	PublishedFooterBgColor *string       `json:"published_footer_bg_color"`
	PublishedBackground    *Background   `json:"published_background"`

	DraftSettings      ThemeSettings `json:"draft_settings"`
	DraftLogoURL       *string       `json:"draft_logo_url"`
	DraftHeaderBgColor *string       `json:"draft_header_bg_color"`
	DraftFooterBgColor *string       `json:"draft_footer_bg_color"`
	DraftBackground    *Background   `json:"draft_background"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Draft returns the work-in-progress side of the document.
func (d *ThemeDocument) Draft() ThemeFields {
	return ThemeFields{
		Settings:      d.DraftSettings,
		LogoURL:       d.DraftLogoURL,
		HeaderBgColor: d.DraftHeaderBgColor,
		FooterBgColor: d.DraftFooterBgColor,
		Background:    d.DraftBackground,
	}
}

// Published returns the live side of the document.
func (d *ThemeDocument) Published() ThemeFields {
	return ThemeFields{
		Settings:      d.PublishedSettings,
		LogoURL:       d.PublishedLogoURL,
		HeaderBgColor: d.PublishedHeaderBgColor,
		FooterBgColor: d.PublishedFooterBgColor,
		Background:    d.PublishedBackground,
	}
}

// Fields returns the draft side when preview is true, the published side
// otherwise.
func (d *ThemeDocument) Fields(preview bool) ThemeFields {
	if preview {
		return d.Draft()
	}
	return d.Published()
}

// Draft field keys accepted by DraftPatch.Set.
const (
	FieldDraftSettings      = "draft_settings"
	FieldDraftLogoURL       = "draft_logo_url"
	FieldDraftHeaderBgColor = "draft_header_bg_color"
	FieldDraftFooterBgColor = "draft_footer_bg_color"
	FieldDraftBackground    = "draft_background"

	// settingsPrefix addresses a single key nested under draft_settings,
	// e.g. "draft_settings.primaryColor".
	settingsPrefix = FieldDraftSettings + "."
)

// View keys shared by the renderer and the preview channel.
const (
	ViewLogoURL       = "logoUrl"
	ViewHeaderBgColor = "headerBgColor"
	ViewFooterBgColor = "footerBgColor"
	ViewBackground    = "background"
)

// SettingsField returns the draft field key for a nested settings key.
func SettingsField(key string) string {
	return settingsPrefix + key
}

// DraftPatch is a partial update of the draft side. Nil fields are left
// untouched; Settings keys are merged one by one into draft_settings.
type DraftPatch struct {
	Settings        ThemeSettings
	LogoURL         *string // "" clears
	HeaderBgColor   *string // "" clears
	FooterBgColor   *string // "" clears
	Background      *Background
	ClearBackground bool
}

// IsEmpty reports whether the patch changes nothing.
func (p *DraftPatch) IsEmpty() bool {
	return len(p.Settings) == 0 && p.LogoURL == nil && p.HeaderBgColor == nil &&
		p.FooterBgColor == nil && p.Background == nil && !p.ClearBackground
}

// Set validates value and records it under the draft field key. Later
// calls for the same key overwrite earlier ones.
func (p *DraftPatch) Set(key string, value any) error {
	switch {
	case key == FieldDraftLogoURL:
		s, err := optionalString(key, value)
		if err != nil {
			return err
		}
		if s != "" && !IsAssetURL(s) {
			return fmt.Errorf("%s must be an http(s) URL", key)
		}
		p.LogoURL = &s
	case key == FieldDraftHeaderBgColor, key == FieldDraftFooterBgColor:
		s, err := optionalString(key, value)
		if err != nil {
			return err
		}
		if s != "" && !IsHexColor(s) {
			return fmt.Errorf("%s must be a hex color, got %q", key, s)
		}
		if key == FieldDraftHeaderBgColor {
			p.HeaderBgColor = &s
		} else {
			p.FooterBgColor = &s
		}
	case key == FieldDraftBackground:
		if value == nil {
			p.Background, p.ClearBackground = nil, true
			return nil
		}
		b, err := BackgroundFrom(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		p.Background, p.ClearBackground = b, false
	case key == FieldDraftSettings:
		m, ok := value.(map[string]any)
		if !ok {
			if ts, isTS := value.(ThemeSettings); isTS {
				m, ok = ts, true
			}
		}
		if !ok {
			return fmt.Errorf("%s must be an object", key)
		}
		for k, v := range m {
			if err := p.setSetting(k, v); err != nil {
				return err
			}
		}
	case strings.HasPrefix(key, settingsPrefix):
		return p.setSetting(strings.TrimPrefix(key, settingsPrefix), value)
	default:
		return fmt.Errorf("unknown draft field %q", key)
	}
	return nil
}

func (p *DraftPatch) setSetting(key string, value any) error {
	if key == "" || strings.Contains(key, ".") {
		return fmt.Errorf("invalid settings key %q", key)
	}
	if key == "primaryColor" {
		s, ok := value.(string)
		if !ok || !IsHexColor(s) {
			return fmt.Errorf("primaryColor must be a hex color")
		}
	}
	if p.Settings == nil {
		p.Settings = ThemeSettings{}
	}
	p.Settings[key] = value
	return nil
}

func optionalString(key string, value any) (string, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return strings.TrimSpace(s), nil
}

// PatchFromFields builds a DraftPatch from a map of draft field keys.
// Keys are applied in sorted order so nested settings keys deterministically
// override a whole draft_settings object given in the same map.
func PatchFromFields(fields map[string]any) (*DraftPatch, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := &DraftPatch{}
	for _, k := range keys {
		if err := p.Set(k, fields[k]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ViewKey maps a draft field key to the key used by the storefront view
// and the preview channel. Returns "" for draft_settings as a whole.
func ViewKey(field string) string {
	switch {
	case field == FieldDraftLogoURL:
		return ViewLogoURL
	case field == FieldDraftHeaderBgColor:
		return ViewHeaderBgColor
	case field == FieldDraftFooterBgColor:
		return ViewFooterBgColor
	case field == FieldDraftBackground:
		return ViewBackground
	case strings.HasPrefix(field, settingsPrefix):
		return strings.TrimPrefix(field, settingsPrefix)
	}
	return ""
}

// ThemeView is the flattened theme used for rendering: settings keys plus
// logoUrl, headerBgColor, footerBgColor and background.
type ThemeView map[string]any

// Get returns the string value for key, or fallback when unset or empty.
func (v ThemeView) Get(key, fallback string) string {
	if s, ok := v[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Background returns the decoded background, or nil when absent or invalid.
func (v ThemeView) Background() *Background {
	raw, ok := v[ViewBackground]
	if !ok || raw == nil {
		return nil
	}
	b, err := BackgroundFrom(raw)
	if err != nil {
		return nil
	}
	return b
}

// Merge returns a copy of v with payload shallow-merged over it.
func (v ThemeView) Merge(payload map[string]any) ThemeView {
	out := make(ThemeView, len(v)+len(payload))
	maps.Copy(out, v)
	maps.Copy(out, payload)
	return out
}

// UploadGrant is a short-lived capability to PUT one object at Path.
// It is never persisted.
type UploadGrant struct {
	Path      string            `json:"path"`
	Token     string            `json:"token"` // presigned URL
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
	PublicURL string            `json:"public_url"`
}
