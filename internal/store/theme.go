// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// ThemeStore persists one theme document per store. Every write is a
// single statement so concurrent writers never observe a half-applied
// patch or publish.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore returns a new ThemeStore.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

const themeColumns = `id, store_id, updated_at,
	published_settings, published_logo_url, published_header_bg_color, published_footer_bg_color, published_background,
	draft_settings, draft_logo_url, draft_header_bg_color, draft_footer_bg_color, draft_background`

func scanTheme(scanner interface{ Scan(...any) error }) (*models.ThemeDocument, error) {
	var (
		d                          models.ThemeDocument
		pubSettings, draftSettings []byte
		pubBg, draftBg             []byte
	)
	err := scanner.Scan(
		&d.ID, &d.StoreID, &d.UpdatedAt,
		&pubSettings, &d.PublishedLogoURL, &d.PublishedHeaderBgColor, &d.PublishedFooterBgColor, &pubBg,
		&draftSettings, &d.DraftLogoURL, &d.DraftHeaderBgColor, &d.DraftFooterBgColor, &draftBg,
	)
	if err != nil {
		return nil, err
	}

	if d.PublishedSettings, err = decodeSettings(pubSettings); err != nil {
		return nil, fmt.Errorf("published_settings: %w", err)
	}
	if d.DraftSettings, err = decodeSettings(draftSettings); err != nil {
		return nil, fmt.Errorf("draft_settings: %w", err)
	}
	if d.PublishedBackground, err = decodeBackground(pubBg); err != nil {
		return nil, fmt.Errorf("published_background: %w", err)
	}
	if d.DraftBackground, err = decodeBackground(draftBg); err != nil {
		return nil, fmt.Errorf("draft_background: %w", err)
	}
	return &d, nil
}

func decodeSettings(raw []byte) (models.ThemeSettings, error) {
	s := models.ThemeSettings{}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeBackground tolerates stored values that no longer validate; they
// are kept as-is so a later edit can replace them.
func decodeBackground(raw []byte) (*models.Background, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var b models.Background
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Fetch returns the theme document of a store, creating it with the
// default settings mirrored into draft and published when absent.
// Concurrent first fetches converge on the same row.
func (s *ThemeStore) Fetch(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	doc, err := s.find(ctx, storeID)
	if err != nil {
		return nil, apperr.Upstream("Could not load theme settings.", err)
	}
	if doc != nil {
		return doc, nil
	}

	defaults, err := json.Marshal(models.DefaultThemeSettings())
	if err != nil {
		return nil, apperr.Upstream("Could not create theme settings.", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO theme_settings (store_id, published_settings, draft_settings)
		VALUES ($1, $2, $2)
		ON CONFLICT (store_id) DO NOTHING
	`, storeID, defaults)
	if isForeignKeyViolation(err) {
		return nil, apperr.NotFound("Store not found.")
	}
	if err != nil {
		return nil, apperr.Upstream("Could not create theme settings.", fmt.Errorf("insert theme: %w", err))
	}

	doc, err = s.find(ctx, storeID)
	if err != nil {
		return nil, apperr.Upstream("Could not load theme settings.", err)
	}
	if doc == nil {
		// Store deleted between the insert and the read.
		return nil, apperr.NotFound("Store not found.")
	}
	return doc, nil
}

// Find returns the theme document of a store without creating one.
func (s *ThemeStore) Find(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	doc, err := s.find(ctx, storeID)
	if err != nil {
		return nil, apperr.Upstream("Could not load theme settings.", err)
	}
	if doc == nil {
		return nil, apperr.NotFound("Theme settings not found.")
	}
	return doc, nil
}

func (s *ThemeStore) find(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	doc, err := scanTheme(s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM theme_settings WHERE store_id = $1`, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme: %w", err)
	}
	return doc, nil
}

// ApplyDraftPatch writes a partial draft update in one statement. Settings
// keys are merged into draft_settings; named draft columns are overwritten
// and every other column keeps its value.
func (s *ThemeStore) ApplyDraftPatch(ctx context.Context, storeID uuid.UUID, patch *models.DraftPatch) (*models.ThemeDocument, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, apperr.Validation("No draft changes to save.")
	}

	sets, args, err := draftAssignments(patch)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	args = append(args, storeID)
	query := fmt.Sprintf(`UPDATE theme_settings SET %s, updated_at = NOW() WHERE store_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), themeColumns)

	doc, err := scanTheme(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Theme settings not found.")
	}
	if err != nil {
		return nil, apperr.Upstream("Could not save draft theme.", fmt.Errorf("apply draft patch: %w", err))
	}
	return doc, nil
}

// draftAssignments builds the SET clauses in a fixed column order.
func draftAssignments(p *models.DraftPatch) ([]string, []any, error) {
	var (
		sets []string
		args []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf(clause, len(args)))
	}

	if len(p.Settings) > 0 {
		raw, err := json.Marshal(p.Settings)
		if err != nil {
			return nil, nil, fmt.Errorf("encode draft settings: %w", err)
		}
		add(`draft_settings = draft_settings || $%d::jsonb`, raw)
	}
	if p.LogoURL != nil {
		add(`draft_logo_url = $%d`, nullIfEmpty(*p.LogoURL))
	}
	if p.HeaderBgColor != nil {
		add(`draft_header_bg_color = $%d`, nullIfEmpty(*p.HeaderBgColor))
	}
	if p.FooterBgColor != nil {
		add(`draft_footer_bg_color = $%d`, nullIfEmpty(*p.FooterBgColor))
	}
	switch {
	case p.Background != nil:
		raw, err := json.Marshal(p.Background)
		if err != nil {
			return nil, nil, fmt.Errorf("encode draft background: %w", err)
		}
		add(`draft_background = $%d::jsonb`, raw)
	case p.ClearBackground:
		sets = append(sets, `draft_background = NULL`)
	}
	return sets, args, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Publish copies every draft column into its published counterpart in one
// statement. Draft columns are left untouched, so publishing twice is a
// no-op apart from updated_at.
func (s *ThemeStore) Publish(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	doc, err := scanTheme(s.db.QueryRowContext(ctx, `
		UPDATE theme_settings SET
			published_settings        = draft_settings,
			published_logo_url        = draft_logo_url,
			published_header_bg_color = draft_header_bg_color,
			published_footer_bg_color = draft_footer_bg_color,
			published_background      = draft_background,
			updated_at                = NOW()
		WHERE store_id = $1
		RETURNING `+themeColumns,
		storeID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Theme settings not found.")
	}
	if err != nil {
		return nil, apperr.Upstream("Could not publish theme.", fmt.Errorf("publish theme: %w", err))
	}
	return doc, nil
}
