// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns user-supplied names into lowercase, hyphenated
// fragments safe for object keys and URLs.
package slug

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs.
const MaxLength = 60

var separators = regexp.MustCompile(`[\s_.-]+`)

// Generate creates a slug from s. Accented letters lose their marks,
// other symbols are dropped, and runs of separators become one hyphen.
// Example: "Café Mug, Large!" → "cafe-mug-large"
func Generate(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r), r == '-', r == '_', r == '.':
			return ' '
		}
		return -1
	}, decomposed)

	out := strings.Trim(separators.ReplaceAllString(cleaned, "-"), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// FileName splits a file name into a slugged base and its lowercased
// extension, e.g. "My Logo.PNG" → ("my-logo", ".png").
func FileName(name string) (base, ext string) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	ext = strings.ToLower(path.Ext(name))
	return Generate(strings.TrimSuffix(name, path.Ext(name))), ext
}
