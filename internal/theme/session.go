// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/preview"
)

// State is the lifecycle position of an editor session.
type State int

const (
	StateLoading State = iota
	StateIdle
	StateEditing
	StatePersisting
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StatePersisting:
		return "persisting"
	}
	return "unknown"
}

// Notification types sent to the editor.
const (
	NoticeState      = "STATE"
	NoticeSaved      = "SAVED"
	NoticeSaveFailed = "SAVE_FAILED"
	NoticePublished  = "PUBLISHED"
	NoticeError      = "ERROR"
)

// Notification reports session progress to the editor UI. Failures are
// informational; the session keeps running.
type Notification struct {
	Type  string                `json:"type"`
	State string                `json:"state,omitempty"`
	Keys  []string              `json:"keys,omitempty"`
	Error string                `json:"error,omitempty"`
	Theme *models.ThemeDocument `json:"theme,omitempty"`
}

// Editor is the subset of Service an editor session drives.
type Editor interface {
	GetThemeSettings(ctx context.Context, actor models.Actor, storeID uuid.UUID) (*models.ThemeDocument, error)
	SaveDraftTheme(ctx context.Context, actor models.Actor, storeID uuid.UUID, patch *models.DraftPatch) (*models.ThemeDocument, error)
	PublishTheme(ctx context.Context, actor models.Actor, storeID uuid.UUID) (*models.ThemeDocument, error)
}

// SessionOptions configures an EditorSession.
type SessionOptions struct {
	Clock    Clock
	Debounce time.Duration
	// Previews receives a THEME_UPDATE for every accepted edit. Optional.
	Previews Broadcaster
	// Notify receives progress notifications. Optional.
	Notify func(Notification)
	// SaveTimeout bounds a single draft write. Defaults to 10s.
	SaveTimeout time.Duration
}

// EditorSession holds the state of one editor working on one store's
// theme. Edits are applied locally and announced to previews at once,
// then written in coalesced batches. A failed write is reported and its
// fields are retried on the next cycle; local state is not rolled back.
type EditorSession struct {
	mu       sync.Mutex
	ctx      context.Context
	editor   Editor
	actor    models.Actor
	storeID  uuid.UUID
	opts     SessionOptions
	queue    *Coalescer
	state    State
	view     models.ThemeView
	inflight int
}

// NewEditorSession creates a session in the Loading state. ctx scopes
// the session; writes already started are not cancelled with it.
func NewEditorSession(ctx context.Context, editor Editor, actor models.Actor, storeID uuid.UUID, opts SessionOptions) *EditorSession {
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 10 * time.Second
	}
	s := &EditorSession{
		ctx:     ctx,
		editor:  editor,
		actor:   actor,
		storeID: storeID,
		opts:    opts,
		state:   StateLoading,
	}
	s.queue = NewCoalescer(opts.Clock, opts.Debounce, s.persist)
	return s
}

// State returns the current lifecycle state.
func (s *EditorSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the editor's current (optimistic) draft view.
func (s *EditorSession) View() models.ThemeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Merge(nil)
}

func (s *EditorSession) notify(n Notification) {
	if s.opts.Notify != nil {
		s.opts.Notify(n)
	}
}

func (s *EditorSession) stateNotice(st State) Notification {
	return Notification{Type: NoticeState, State: st.String()}
}

// Load fetches the draft and moves the session to Idle.
func (s *EditorSession) Load(ctx context.Context) (*models.ThemeDocument, error) {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return nil, apperr.Validation("Theme is already loaded.")
	}
	s.mu.Unlock()

	doc, err := s.editor.GetThemeSettings(ctx, s.actor, s.storeID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.view = doc.Draft().View()
	s.state = StateIdle
	s.mu.Unlock()

	s.notify(Notification{Type: NoticeState, State: StateIdle.String(), Theme: doc})
	return doc, nil
}

// Edit validates one field change, applies it locally, announces it to
// previews and queues it for writing.
func (s *EditorSession) Edit(key string, value any) error {
	var check models.DraftPatch
	if err := check.Set(key, value); err != nil {
		return apperr.Validation(err.Error())
	}
	change := viewChange(key, value)
	payload := preview.Payload(change)

	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return apperr.Validation("Theme is still loading.")
	}
	s.view = s.view.Merge(change)
	changed := s.state != StateEditing
	s.state = StateEditing
	s.mu.Unlock()

	if s.opts.Previews != nil && len(payload) > 0 {
		if err := s.opts.Previews.Broadcast(s.ctx, s.storeID, preview.ThemeUpdate(payload)); err != nil {
			slog.Debug("preview update not delivered", "store_id", s.storeID, "error", err)
		}
	}

	if settings, ok := settingsChange(key, value); ok {
		s.queue.Merge(models.FieldDraftSettings, settings)
	} else {
		s.queue.Add(key, value)
	}
	if changed {
		s.notify(s.stateNotice(StateEditing))
	}
	return nil
}

// settingsChange returns the settings entries a whole or nested
// draft_settings edit writes. Both forms queue under one key so the latest
// value of each setting wins regardless of which form carried it.
func settingsChange(key string, value any) (map[string]any, bool) {
	if key != models.FieldDraftSettings && !strings.HasPrefix(key, models.FieldDraftSettings+".") {
		return nil, false
	}
	return viewChange(key, value), true
}

// viewChange maps a draft field edit to the view keys it changes.
func viewChange(key string, value any) map[string]any {
	if key == models.FieldDraftSettings {
		switch m := value.(type) {
		case map[string]any:
			return maps.Clone(m)
		case models.ThemeSettings:
			return maps.Clone(map[string]any(m))
		}
		return nil
	}
	if vk := models.ViewKey(key); vk != "" {
		return map[string]any{vk: value}
	}
	return nil
}

// PreviewPayload returns the preview keys a draft field edit changes.
// Settings keys a preview does not know are left out.
func PreviewPayload(key string, value any) map[string]any {
	return preview.Payload(viewChange(key, value))
}

// Flush writes any pending fields now.
func (s *EditorSession) Flush() {
	s.queue.Flush()
}

// persist writes one coalesced batch. It runs on the coalescer's timer
// goroutine or on the caller of Flush.
func (s *EditorSession) persist(fields map[string]any) {
	s.mu.Lock()
	s.inflight++
	s.state = StatePersisting
	s.mu.Unlock()
	s.notify(s.stateNotice(StatePersisting))

	keys := slices.Sorted(maps.Keys(fields))
	doc, err := s.save(fields)
	if err != nil {
		// Only transient failures are worth resending.
		var requeued []string
		if apperr.KindOf(err) == apperr.KindUpstream {
			requeued = s.queue.Requeue(fields)
		}
		slog.Warn("draft save failed", "store_id", s.storeID, "keys", keys, "requeued", len(requeued), "error", err)
		s.notify(Notification{Type: NoticeSaveFailed, Keys: keys, Error: apperr.Message(err)})
	} else {
		s.notify(Notification{Type: NoticeSaved, Keys: keys, Theme: doc})
	}

	s.mu.Lock()
	s.inflight--
	next := s.state
	if s.inflight == 0 {
		if s.queue.Pending() > 0 {
			next = StateEditing
		} else {
			next = StateIdle
		}
	}
	s.state = next
	s.mu.Unlock()
	s.notify(s.stateNotice(next))
}

func (s *EditorSession) save(fields map[string]any) (*models.ThemeDocument, error) {
	patch, err := models.PatchFromFields(fields)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), s.opts.SaveTimeout)
	defer cancel()
	return s.editor.SaveDraftTheme(ctx, s.actor, s.storeID, patch)
}

// Publish makes the saved draft live. It is refused while loading or
// while edits are still queued; a write in flight is allowed to race.
func (s *EditorSession) Publish(ctx context.Context) (*models.ThemeDocument, error) {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	switch st {
	case StateLoading:
		return nil, apperr.Validation("Theme is still loading.")
	case StateEditing:
		return nil, apperr.Validation("Save pending changes before publishing.")
	}
	if s.queue.Pending() > 0 {
		return nil, apperr.Validation("Save pending changes before publishing.")
	}

	doc, err := s.editor.PublishTheme(ctx, s.actor, s.storeID)
	if err != nil {
		return nil, err
	}
	s.notify(Notification{Type: NoticePublished, Theme: doc})
	return doc, nil
}

// Close writes pending edits and stops the session.
func (s *EditorSession) Close() {
	s.queue.Flush()
	s.queue.Stop()
}
