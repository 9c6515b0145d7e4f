// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/preview"
	"storefront/internal/theme"
)

// Theme groups the theme editing handlers of the admin API.
type Theme struct {
	service  *theme.Service
	previews theme.Broadcaster
	upgrader *websocket.Upgrader
	debounce time.Duration
	clock    theme.Clock
}

// NewTheme creates a new Theme handler group. Editor sockets accept only
// the origins of policy and coalesce edits over debounce.
func NewTheme(service *theme.Service, previews theme.Broadcaster, policy *preview.OriginPolicy, debounce time.Duration) *Theme {
	return &Theme{
		service:  service,
		previews: previews,
		upgrader: preview.NewUpgrader(policy),
		debounce: debounce,
		clock:    theme.RealClock(),
	}
}

func storeIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuidParam(r, "storeID")
	if err != nil {
		return uuid.Nil, apperr.NotFound("Store not found.")
	}
	return id, nil
}

// Get returns the store's theme document, creating it on first access.
func (h *Theme) Get(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeIDParam(r)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	doc, err := h.service.GetThemeSettings(r.Context(), actorFrom(r), storeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, doc)
}

// SaveDraft applies a map of draft field keys to the draft, e.g.
// {"draft_header_bg_color": "#111111", "draft_settings.fontFamily": "Roboto"},
// and tells open previews.
func (h *Theme) SaveDraft(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeIDParam(r)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	var fields map[string]any
	if err := decodeJSON(w, r, &fields); err != nil {
		apperr.WriteError(w, err)
		return
	}
	patch, err := models.PatchFromFields(fields)
	if err != nil {
		apperr.WriteError(w, apperr.Validation(err.Error()))
		return
	}

	actor := actorFrom(r)
	doc, err := h.service.SaveDraftTheme(r.Context(), actor, storeID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.previews != nil {
		// Same key order as PatchFromFields, so previews match what was saved.
		payload := map[string]any{}
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			maps.Copy(payload, theme.PreviewPayload(k, fields[k]))
		}
		if len(payload) > 0 {
			if err := h.previews.Broadcast(r.Context(), storeID, preview.ThemeUpdate(payload)); err != nil {
				slog.Debug("preview update not delivered", "store_id", storeID, "error", err)
			}
		}
	}

	apperr.WriteJSON(w, http.StatusOK, doc)
}

// Publish makes the draft live.
func (h *Theme) Publish(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeIDParam(r)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	doc, err := h.service.PublishTheme(r.Context(), actorFrom(r), storeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, doc)
}

// Editor socket message types sent by the client.
const (
	editorFieldEdit = "FIELD_EDIT"
	editorFlush     = "FLUSH"
	editorPublish   = "PUBLISH"
)

// editorCommand is one client message on the editor socket.
type editorCommand struct {
	Type  string `json:"type"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Editor upgrades to a websocket that drives one EditorSession. The
// session lives as long as the socket; pending edits are written when
// the socket closes.
func (h *Theme) Editor(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeIDParam(r)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	actor := actorFrom(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("editor upgrade refused", "store_id", storeID, "error", err)
		return
	}
	defer conn.Close()

	out := make(chan theme.Notification, 64)
	done := make(chan struct{})
	notify := func(n theme.Notification) {
		select {
		case out <- n:
		case <-done:
		default:
			slog.Warn("editor notification dropped", "store_id", storeID, "type", n.Type)
		}
	}

	sess := theme.NewEditorSession(r.Context(), h.service, actor, storeID, theme.SessionOptions{
		Clock:    h.clock,
		Debounce: h.debounce,
		Previews: h.previews,
		Notify:   notify,
	})

	writerDone := make(chan struct{})
	go editorWriter(conn, out, done, writerDone)
	defer func() {
		sess.Close()
		close(done)
		<-writerDone
	}()

	if _, err := sess.Load(r.Context()); err != nil {
		notify(theme.Notification{Type: theme.NoticeError, Error: apperr.Message(err)})
		return
	}

	conn.SetReadLimit(preview.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(preview.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(preview.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(preview.PongWait))

		var cmd editorCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			notify(theme.Notification{Type: theme.NoticeError, Error: "Message is not valid JSON."})
			continue
		}
		switch cmd.Type {
		case editorFieldEdit:
			err = sess.Edit(cmd.Key, cmd.Value)
		case editorFlush:
			sess.Flush()
		case editorPublish:
			_, err = sess.Publish(r.Context())
		default:
			err = apperr.Validation("Unknown message type.")
		}
		if err != nil {
			notify(theme.Notification{Type: theme.NoticeError, Error: apperr.Message(err)})
		}
	}
}

// editorWriter sends notifications and pings until done is closed, then
// drains what is already queued.
func editorWriter(conn *websocket.Conn, out <-chan theme.Notification, done <-chan struct{}, finished chan<- struct{}) {
	defer close(finished)
	ticker := time.NewTicker(preview.PingPeriod)
	defer ticker.Stop()

	write := func(n theme.Notification) bool {
		conn.SetWriteDeadline(time.Now().Add(preview.WriteWait))
		return conn.WriteJSON(n) == nil
	}

	for {
		select {
		case n := <-out:
			if !write(n) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(preview.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			for {
				select {
				case n := <-out:
					if !write(n) {
						return
					}
				default:
					return
				}
			}
		}
	}
}
