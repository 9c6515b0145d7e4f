// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers of the admin JSON API and
// the public storefront.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into dst. Errors are validation
// errors carrying a message fit for the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("Request body is too large.")
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is required.")
		default:
			return apperr.Validation("Request body is not valid JSON.")
		}
	}
	return nil
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Not found.")
	}
	return id, nil
}

// actorFrom returns the identity of the logged-in caller. Routes using it
// sit behind RequireAuth.
func actorFrom(r *http.Request) models.Actor {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess.Actor()
	}
	return models.Actor{}
}

// writeServiceError logs upstream failures and writes the envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindUpstream {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	apperr.WriteError(w, err)
}

// StoreFinder loads a store by ID; a missing store is (nil, nil).
type StoreFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// managedStore resolves the {storeID} parameter and checks the caller may
// manage that store.
func managedStore(r *http.Request, stores StoreFinder) (*models.Store, error) {
	storeID, err := uuidParam(r, "storeID")
	if err != nil {
		return nil, apperr.NotFound("Store not found.")
	}
	st, err := stores.FindByID(r.Context(), storeID)
	if err != nil {
		return nil, apperr.Upstream("Could not load the store.", err)
	}
	if st == nil {
		return nil, apperr.NotFound("Store not found.")
	}
	if !actorFrom(r).CanManage(st) {
		return nil, apperr.PermissionDenied("You do not have access to this store.")
	}
	return st, nil
}
