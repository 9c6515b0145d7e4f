// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"html/template"
	"regexp"
	"strings"

	"storefront/internal/models"
)

var (
	fontPattern  = regexp.MustCompile(`^[A-Za-z0-9 \-]{1,64}$`)
	anglePattern = regexp.MustCompile(`^(to (top|bottom|left|right)( (top|bottom|left|right))?|-?\d{1,3}(\.\d+)?(deg|turn))$`)
)

// color returns c when it is a hex color, fallback otherwise.
func color(c, fallback string) string {
	if models.IsHexColor(c) {
		return c
	}
	return fallback
}

func fontFamily(v models.ThemeView) string {
	f := v.Get("fontFamily", DefaultFontFamily)
	if !fontPattern.MatchString(f) {
		return DefaultFontFamily
	}
	return f
}

// ThemeVars returns the CSS custom properties of a theme view. Every
// value is checked before it reaches the style attribute.
func ThemeVars(v models.ThemeView) template.CSS {
	return template.CSS(
		"--primary-color: " + color(v.Get("primaryColor", ""), DefaultPrimaryColor) +
			"; --header-bg-color: " + color(v.Get(models.ViewHeaderBgColor, ""), DefaultHeaderBgColor) +
			"; --footer-bg-color: " + color(v.Get(models.ViewFooterBgColor, ""), DefaultFooterBgColor) +
			"; --font-family-body: '" + fontFamily(v) + "', sans-serif;")
}

// BackgroundStyle returns the page background declaration for the view.
func BackgroundStyle(v models.ThemeView) template.CSS {
	return template.CSS(backgroundCSS(v.Background()))
}

func backgroundCSS(b *models.Background) string {
	if b == nil {
		return "background-color: " + DefaultPageBgColor + ";"
	}
	switch b.Type {
	case models.BackgroundGradient:
		angle := b.Angle
		if !anglePattern.MatchString(angle) {
			angle = DefaultGradientAngle
		}
		return "background-image: linear-gradient(" + angle + ", " +
			color(b.From, DefaultGradientFrom) + ", " + color(b.To, DefaultGradientTo) + ");"
	case models.BackgroundImage:
		if !models.IsAssetURL(b.Value) || strings.ContainsAny(b.Value, `'"()\ `+"\n") {
			return "background-color: " + DefaultPageBgColor + ";"
		}
		return "background-image: url('" + b.Value + "'); background-size: cover; background-position: center;"
	default:
		return "background-color: " + color(b.Value, DefaultPageBgColor) + ";"
	}
}
