// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/preview"
)

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves virtual time forward and runs due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	now := c.now
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// memThemes is an in-memory Repository.
type memThemes struct {
	mu         sync.Mutex
	docs       map[uuid.UUID]*models.ThemeDocument
	patches    []*models.DraftPatch
	failWrites int
}

func newMemThemes() *memThemes {
	return &memThemes{docs: make(map[uuid.UUID]*models.ThemeDocument)}
}

func (m *memThemes) Fetch(_ context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[storeID]
	if !ok {
		doc = DefaultDocument(storeID)
		doc.ID = uuid.New()
		m.docs[storeID] = doc
	}
	cp := *doc
	return &cp, nil
}

func (m *memThemes) Find(_ context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[storeID]
	if !ok {
		return nil, apperr.NotFound("Theme not found.")
	}
	cp := *doc
	return &cp, nil
}

func (m *memThemes) ApplyDraftPatch(_ context.Context, storeID uuid.UUID, p *models.DraftPatch) (*models.ThemeDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites > 0 {
		m.failWrites--
		return nil, apperr.Upstream("Could not save the theme.", errors.New("connection reset"))
	}
	doc, ok := m.docs[storeID]
	if !ok {
		return nil, apperr.NotFound("Theme not found.")
	}
	m.patches = append(m.patches, p)
	settings := doc.DraftSettings.Clone()
	for k, v := range p.Settings {
		settings[k] = v
	}
	doc.DraftSettings = settings
	if p.HeaderBgColor != nil {
		doc.DraftHeaderBgColor = p.HeaderBgColor
	}
	if p.FooterBgColor != nil {
		doc.DraftFooterBgColor = p.FooterBgColor
	}
	if p.LogoURL != nil {
		doc.DraftLogoURL = p.LogoURL
	}
	if p.Background != nil || p.ClearBackground {
		doc.DraftBackground = p.Background
	}
	cp := *doc
	return &cp, nil
}

func (m *memThemes) Publish(_ context.Context, storeID uuid.UUID) (*models.ThemeDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[storeID]
	if !ok {
		return nil, apperr.NotFound("Theme not found.")
	}
	doc.PublishedSettings = doc.DraftSettings.Clone()
	doc.PublishedLogoURL = doc.DraftLogoURL
	doc.PublishedHeaderBgColor = doc.DraftHeaderBgColor
	doc.PublishedFooterBgColor = doc.DraftFooterBgColor
	doc.PublishedBackground = doc.DraftBackground
	cp := *doc
	return &cp, nil
}

func (m *memThemes) patchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patches)
}

type memStores map[uuid.UUID]*models.Store

func (m memStores) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	return m[id], nil
}

type recordingPages struct {
	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (r *recordingPages) InvalidateStore(_ context.Context, storeID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, storeID)
}

type recordingPreviews struct {
	mu   sync.Mutex
	sent []preview.Message
}

func (r *recordingPreviews) Broadcast(_ context.Context, _ uuid.UUID, msg preview.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingPreviews) messages() []preview.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]preview.Message(nil), r.sent...)
}

// fixture wires a service around one admin-owned store.
type fixture struct {
	svc      *Service
	themes   *memThemes
	pages    *recordingPages
	previews *recordingPreviews
	owner    models.Actor
	storeID  uuid.UUID
}

func newFixture() *fixture {
	owner := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	storeID := uuid.New()
	stores := memStores{storeID: {ID: storeID, Name: "Demo", OwnerID: owner.UserID}}
	f := &fixture{
		themes:   newMemThemes(),
		pages:    &recordingPages{},
		previews: &recordingPreviews{},
		owner:    owner,
		storeID:  storeID,
	}
	f.svc = NewService(f.themes, stores, f.pages, f.previews)
	return f
}
