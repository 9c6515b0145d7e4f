// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview carries live theme edits from an editor to the preview
// surfaces showing the same store. Delivery is fire-and-forget: a preview
// that is not connected, or falls behind, simply misses messages and
// catches up on its next full load.
package preview

import (
	"encoding/json"
	"fmt"
	"maps"

	"storefront/internal/models"
)

// MessageType tags the preview message union.
type MessageType string

const (
	// TypeThemeUpdate carries a partial theme view to merge into the preview.
	TypeThemeUpdate MessageType = "THEME_UPDATE"
	// TypeThemePublished tells previews that the draft went live.
	TypeThemePublished MessageType = "THEME_PUBLISHED"
)

// payloadKeys are the view keys a THEME_UPDATE may carry.
var payloadKeys = map[string]bool{
	"primaryColor":           true,
	"fontFamily":             true,
	"layoutStyle":            true,
	models.ViewLogoURL:       true,
	models.ViewHeaderBgColor: true,
	models.ViewFooterBgColor: true,
	models.ViewBackground:    true,
}

// Payload keeps only the keys of view a preview understands. Returns nil
// when none remain.
func Payload(view map[string]any) map[string]any {
	var out map[string]any
	for k, v := range view {
		if !payloadKeys[k] {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(view))
		}
		out[k] = v
	}
	return out
}

// Message is one preview notification.
type Message struct {
	Type    MessageType    `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ThemeUpdate builds a THEME_UPDATE message. The payload is copied.
func ThemeUpdate(payload map[string]any) Message {
	return Message{Type: TypeThemeUpdate, Payload: maps.Clone(payload)}
}

// ThemePublished builds a THEME_PUBLISHED message.
func ThemePublished() Message {
	return Message{Type: TypeThemePublished}
}

// Validate checks the message against the schema.
func (m Message) Validate() error {
	switch m.Type {
	case TypeThemeUpdate:
		if len(m.Payload) == 0 {
			return fmt.Errorf("THEME_UPDATE needs a non-empty payload")
		}
		for k, v := range m.Payload {
			if !payloadKeys[k] {
				return fmt.Errorf("unknown preview key %q", k)
			}
			if k == models.ViewBackground {
				if v == nil {
					continue
				}
				if _, err := models.BackgroundFrom(v); err != nil {
					return fmt.Errorf("background: %w", err)
				}
				continue
			}
			if _, ok := v.(string); !ok && v != nil {
				return fmt.Errorf("preview key %q must be a string", k)
			}
		}
	case TypeThemePublished:
		if len(m.Payload) != 0 {
			return fmt.Errorf("THEME_PUBLISHED carries no payload")
		}
	default:
		return fmt.Errorf("unknown preview message type %q", m.Type)
	}
	return nil
}

// Encode validates and serializes a message.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses and validates a message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode preview message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// State is the theme a preview surface currently shows.
type State struct {
	view      models.ThemeView
	published bool
}

// NewState starts from the draft view loaded on first paint.
func NewState(initial models.ThemeView) *State {
	return &State{view: initial.Merge(nil)}
}

// Apply folds a message into the state: THEME_UPDATE shallow-merges its
// payload, THEME_PUBLISHED only marks the state as live.
func (s *State) Apply(m Message) {
	switch m.Type {
	case TypeThemeUpdate:
		s.view = s.view.Merge(m.Payload)
		s.published = false
	case TypeThemePublished:
		s.published = true
	}
}

// View returns the current theme view.
func (s *State) View() models.ThemeView {
	return s.view
}

// Published reports whether the last message seen was a publish notice.
func (s *State) Published() bool {
	return s.published
}
