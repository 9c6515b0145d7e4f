// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theme implements the draft/publish workflow for store themes:
// authorized reads and draft saves, publishing, and the per-editor
// session that coalesces rapid edits into few writes.
package theme

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/preview"
)

// Repository persists theme documents.
type Repository interface {
	Fetch(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error)
	Find(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error)
	ApplyDraftPatch(ctx context.Context, storeID uuid.UUID, patch *models.DraftPatch) (*models.ThemeDocument, error)
	Publish(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error)
}

// StoreLookup resolves a store for ownership checks. A missing store is
// (nil, nil).
type StoreLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// PageInvalidator drops cached storefront renderings of a store.
type PageInvalidator interface {
	InvalidateStore(ctx context.Context, storeID uuid.UUID)
}

// Broadcaster sends preview messages to every surface showing a store.
type Broadcaster interface {
	Broadcast(ctx context.Context, storeID uuid.UUID, msg preview.Message) error
}

// Service is the authorized entry point to a store's theme.
type Service struct {
	themes   Repository
	stores   StoreLookup
	pages    PageInvalidator
	previews Broadcaster
}

// NewService creates a theme service. pages and previews may be nil.
func NewService(themes Repository, stores StoreLookup, pages PageInvalidator, previews Broadcaster) *Service {
	return &Service{themes: themes, stores: stores, pages: pages, previews: previews}
}

// authorize checks that actor may manage storeID.
func (s *Service) authorize(ctx context.Context, actor models.Actor, storeID uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperr.PermissionDenied("Admin access required.")
	}
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return apperr.Upstream("Could not load the store.", err)
	}
	if st == nil {
		return apperr.NotFound("Store not found.")
	}
	if !actor.CanManage(st) {
		return apperr.PermissionDenied("You do not have access to this store.")
	}
	return nil
}

// GetThemeSettings returns the store's theme document, creating it with
// default settings on first access.
func (s *Service) GetThemeSettings(ctx context.Context, actor models.Actor, storeID uuid.UUID) (*models.ThemeDocument, error) {
	if err := s.authorize(ctx, actor, storeID); err != nil {
		return nil, err
	}
	return s.themes.Fetch(ctx, storeID)
}

// SaveDraftTheme applies patch to the draft side. The published side and
// the storefront cache are left alone.
func (s *Service) SaveDraftTheme(ctx context.Context, actor models.Actor, storeID uuid.UUID, patch *models.DraftPatch) (*models.ThemeDocument, error) {
	if err := s.authorize(ctx, actor, storeID); err != nil {
		return nil, err
	}
	if patch == nil || patch.IsEmpty() {
		return nil, apperr.Validation("No theme changes to save.")
	}
	doc, err := s.themes.ApplyDraftPatch(ctx, storeID, patch)
	metrics.RecordDraftSave(err)
	return doc, err
}

// PublishTheme copies the draft over the published theme, invalidates the
// cached storefront and tells open previews.
func (s *Service) PublishTheme(ctx context.Context, actor models.Actor, storeID uuid.UUID) (*models.ThemeDocument, error) {
	if err := s.authorize(ctx, actor, storeID); err != nil {
		return nil, err
	}
	doc, err := s.themes.Publish(ctx, storeID)
	metrics.RecordPublish(err)
	if err != nil {
		return nil, err
	}

	if s.pages != nil {
		s.pages.InvalidateStore(ctx, storeID)
	}
	if s.previews != nil {
		if err := s.previews.Broadcast(ctx, storeID, preview.ThemePublished()); err != nil {
			slog.Warn("publish notice not delivered", "store_id", storeID, "error", err)
		}
	}

	slog.Info("theme published", "store_id", storeID, "user_id", actor.UserID)
	return doc, nil
}

// StorefrontTheme returns the document used to render the public
// storefront. A store that never opened the editor gets an unsaved
// document holding the defaults.
func (s *Service) StorefrontTheme(ctx context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	doc, err := s.themes.Find(ctx, storeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return DefaultDocument(storeID), nil
	}
	return doc, err
}

// DefaultDocument returns an unsaved theme document with default settings
// on both sides.
func DefaultDocument(storeID uuid.UUID) *models.ThemeDocument {
	return &models.ThemeDocument{
		StoreID:           storeID,
		PublishedSettings: models.DefaultThemeSettings(),
		DraftSettings:     models.DefaultThemeSettings(),
	}
}
