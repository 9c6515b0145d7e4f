// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/preview"
)

func TestServiceAuthorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   models.Actor
		storeID uuid.UUID
		want    error
	}{
		{"owner", f.owner, f.storeID, nil},
		{"superadmin", models.Actor{UserID: uuid.New(), Role: models.RoleSuperAdmin}, f.storeID, nil},
		{"other admin", models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}, f.storeID, apperr.ErrPermissionDenied},
		{"customer", models.Actor{UserID: f.owner.UserID, Role: models.RoleUser}, f.storeID, apperr.ErrPermissionDenied},
		{"unknown store", f.owner, uuid.New(), apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GetThemeSettings(ctx, tt.actor, tt.storeID)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("GetThemeSettings: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want kind %v", err, apperr.KindOf(tt.want))
			}
		})
	}
}

func TestServiceGetThemeSettingsDefaults(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.GetThemeSettings(context.Background(), f.owner, f.storeID)
	if err != nil {
		t.Fatalf("GetThemeSettings: %v", err)
	}
	if doc.DraftSettings["primaryColor"] != "#6D28D9" || doc.PublishedSettings["primaryColor"] != "#6D28D9" {
		t.Errorf("defaults not mirrored: %+v", doc)
	}
}

func TestServiceSaveDraftTheme(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.GetThemeSettings(ctx, f.owner, f.storeID); err != nil {
		t.Fatal(err)
	}

	var p models.DraftPatch
	p.Set(models.FieldDraftHeaderBgColor, "#111111")
	doc, err := f.svc.SaveDraftTheme(ctx, f.owner, f.storeID, &p)
	if err != nil {
		t.Fatalf("SaveDraftTheme: %v", err)
	}
	if doc.DraftHeaderBgColor == nil || *doc.DraftHeaderBgColor != "#111111" {
		t.Errorf("DraftHeaderBgColor = %v", doc.DraftHeaderBgColor)
	}
	if doc.PublishedHeaderBgColor != nil {
		t.Error("draft save must not touch the published side")
	}
	if len(f.pages.invalidated) != 0 {
		t.Error("draft save must not invalidate the storefront cache")
	}

	if _, err := f.svc.SaveDraftTheme(ctx, f.owner, f.storeID, &models.DraftPatch{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty patch err = %v, want validation", err)
	}
}

func TestServicePublishTheme(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.GetThemeSettings(ctx, f.owner, f.storeID)

	var p models.DraftPatch
	p.Set(models.SettingsField("primaryColor"), "#000000")
	if _, err := f.svc.SaveDraftTheme(ctx, f.owner, f.storeID, &p); err != nil {
		t.Fatal(err)
	}

	doc, err := f.svc.PublishTheme(ctx, f.owner, f.storeID)
	if err != nil {
		t.Fatalf("PublishTheme: %v", err)
	}
	if doc.PublishedSettings["primaryColor"] != "#000000" {
		t.Errorf("published primaryColor = %v", doc.PublishedSettings["primaryColor"])
	}
	if len(f.pages.invalidated) != 1 || f.pages.invalidated[0] != f.storeID {
		t.Errorf("invalidated = %v", f.pages.invalidated)
	}
	msgs := f.previews.messages()
	if len(msgs) != 1 || msgs[0].Type != preview.TypeThemePublished {
		t.Errorf("preview messages = %+v", msgs)
	}

	// Publishing again is harmless.
	if _, err := f.svc.PublishTheme(ctx, f.owner, f.storeID); err != nil {
		t.Errorf("second publish: %v", err)
	}
}

func TestServicePublishWithoutDocument(t *testing.T) {
	f := newFixture()
	_, err := f.svc.PublishTheme(context.Background(), f.owner, f.storeID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
	if len(f.pages.invalidated) != 0 || len(f.previews.messages()) != 0 {
		t.Error("failed publish must have no side effects")
	}
}

func TestServiceStorefrontTheme(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.svc.StorefrontTheme(ctx, f.storeID)
	if err != nil {
		t.Fatalf("StorefrontTheme: %v", err)
	}
	if doc.PublishedSettings["fontFamily"] != "Inter" {
		t.Errorf("expected default document, got %+v", doc)
	}
	if _, err := f.themes.Find(ctx, f.storeID); err == nil {
		t.Error("storefront read must not create the document")
	}
}
