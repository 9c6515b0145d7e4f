// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"strings"
	"testing"

	"storefront/internal/models"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"theme update", `{"type":"THEME_UPDATE","payload":{"primaryColor":"#000000"}}`, ""},
		{"clear logo", `{"type":"THEME_UPDATE","payload":{"logoUrl":null}}`, ""},
		{"background", `{"type":"THEME_UPDATE","payload":{"background":{"type":"color","value":"#fff"}}}`, ""},
		{"published", `{"type":"THEME_PUBLISHED"}`, ""},
		{"unknown type", `{"type":"THEME_DELETED"}`, "unknown preview message type"},
		{"empty payload", `{"type":"THEME_UPDATE","payload":{}}`, "non-empty payload"},
		{"unknown key", `{"type":"THEME_UPDATE","payload":{"evil":"x"}}`, "unknown preview key"},
		{"non-string value", `{"type":"THEME_UPDATE","payload":{"fontFamily":12}}`, "must be a string"},
		{"bad background", `{"type":"THEME_UPDATE","payload":{"background":{"type":"video"}}}`, "background"},
		{"published with payload", `{"type":"THEME_PUBLISHED","payload":{"fontFamily":"Inter"}}`, "no payload"},
		{"not json", `nope`, "decode preview message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Decode error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeThemeUpdate(t *testing.T) {
	data, err := Encode(ThemeUpdate(map[string]any{"headerBgColor": "#111111"}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Type != TypeThemeUpdate || msg.Payload["headerBgColor"] != "#111111" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	if _, err := Encode(Message{Type: TypeThemeUpdate}); err == nil {
		t.Error("expected error for empty THEME_UPDATE")
	}
}

func TestThemeUpdateCopiesPayload(t *testing.T) {
	payload := map[string]any{"fontFamily": "Inter"}
	msg := ThemeUpdate(payload)
	payload["fontFamily"] = "Roboto"
	if msg.Payload["fontFamily"] != "Inter" {
		t.Error("ThemeUpdate must not alias the caller's payload")
	}
}

func TestStateApply(t *testing.T) {
	s := NewState(models.ThemeView{"primaryColor": "#6D28D9", "fontFamily": "Inter"})

	s.Apply(ThemeUpdate(map[string]any{"primaryColor": "#000000"}))
	if got := s.View().Get("primaryColor", ""); got != "#000000" {
		t.Errorf("primaryColor = %q, want #000000", got)
	}
	if got := s.View().Get("fontFamily", ""); got != "Inter" {
		t.Errorf("untouched key changed: fontFamily = %q", got)
	}
	if s.Published() {
		t.Error("state should not be published after an update")
	}

	s.Apply(ThemePublished())
	if !s.Published() {
		t.Error("state should be published after THEME_PUBLISHED")
	}
	if got := s.View().Get("primaryColor", ""); got != "#000000" {
		t.Errorf("publish must not change the view, primaryColor = %q", got)
	}
}

func TestPayloadFiltersUnknownKeys(t *testing.T) {
	got := Payload(map[string]any{"primaryColor": "#000", "heroText": "Hi"})
	if len(got) != 1 || got["primaryColor"] != "#000" {
		t.Errorf("Payload = %v", got)
	}
	if Payload(map[string]any{"heroText": "Hi"}) != nil {
		t.Error("expected nil when no key is known")
	}
}
