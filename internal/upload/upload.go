// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package upload issues short-lived grants that let an admin's browser
// PUT one image straight into object storage.
package upload

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/slug"
	"storefront/internal/storage"
)

// DefaultTTL is how long a grant stays usable.
const DefaultTTL = 2 * time.Hour

// maxNameLength bounds the client-supplied file name.
const maxNameLength = 255

// imageExtensions are the accepted upload types.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
}

// Signer mints presigned single-object uploads.
type Signer interface {
	PresignUpload(ctx context.Context, key string, ttl time.Duration) (*storage.PresignedUpload, error)
	PublicURL(key string) string
}

// Granter hands out upload grants.
type Granter struct {
	signer Signer
	ttl    time.Duration
	now    func() time.Time
	random func() string
}

// NewGranter creates a granter. signer may be nil when storage is not
// configured; every grant then fails as an upstream error.
func NewGranter(signer Signer, ttl time.Duration) *Granter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Granter{signer: signer, ttl: ttl, now: time.Now, random: randomSuffix}
}

// Grant authorizes actor to upload one image named fileName. The object
// key is unique per call and the signed request refuses to overwrite an
// existing object.
func (g *Granter) Grant(ctx context.Context, actor models.Actor, fileName string) (grant *models.UploadGrant, err error) {
	defer func() { metrics.RecordUploadGrant(err) }()

	if !actor.IsAdmin() {
		return nil, apperr.PermissionDenied("Only store admins can upload files.")
	}
	key, err := g.objectKey(fileName)
	if err != nil {
		return nil, err
	}
	if g.signer == nil {
		return nil, apperr.Upstream("File storage is not configured.", nil)
	}

	signed, err := g.signer.PresignUpload(ctx, key, g.ttl)
	if err != nil {
		slog.Error("presign upload failed", "key", key, "error", err)
		return nil, apperr.Upstream("Could not create an upload URL.", err)
	}

	return &models.UploadGrant{
		Path:      key,
		Token:     signed.URL,
		Method:    signed.Method,
		Headers:   signed.Headers,
		ExpiresAt: signed.ExpiresAt,
		PublicURL: g.signer.PublicURL(key),
	}, nil
}

// objectKey builds "<slug>-<unix millis>-<random8><ext>".
func (g *Granter) objectKey(fileName string) (string, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", apperr.Validation("File name is required.")
	}
	if len(fileName) > maxNameLength {
		return "", apperr.Validation("File name is too long.")
	}
	base, ext := slug.FileName(fileName)
	if !imageExtensions[ext] {
		return "", apperr.Validation("Only JPEG, PNG, GIF, WebP and AVIF images can be uploaded.")
	}
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s-%d-%s%s", base, g.now().UnixMilli(), g.random(), ext), nil
}

const (
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength   = 8

	// suffixLimit is the largest multiple of the alphabet size that fits
	// in a byte. Bytes at or above it are discarded so every character is
	// equally likely.
	suffixLimit = 256 - 256%len(suffixAlphabet)
)

func randomSuffix() string {
	return suffixFrom(rand.Reader)
}

func suffixFrom(r io.Reader) string {
	out := make([]byte, 0, suffixLength)
	buf := make([]byte, suffixLength)
	for len(out) < suffixLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			panic(fmt.Sprintf("upload: reading random bytes: %v", err))
		}
		for _, c := range buf {
			if int(c) >= suffixLimit {
				continue
			}
			out = append(out, suffixAlphabet[int(c)%len(suffixAlphabet)])
			if len(out) == suffixLength {
				break
			}
		}
	}
	return string(out)
}
