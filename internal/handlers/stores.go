// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Stores groups the store management handlers.
type Stores struct {
	stores    *store.StoreStore
	pageCache *cache.PageCache
}

// NewStores creates a new Stores handler group. pageCache may be nil.
func NewStores(stores *store.StoreStore, pageCache *cache.PageCache) *Stores {
	return &Stores{stores: stores, pageCache: pageCache}
}

// List returns the stores the caller manages: their own, or every store
// for a superadmin.
func (h *Stores) List(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	var (
		items []models.Store
		err   error
	)
	if actor.Role == models.RoleSuperAdmin {
		items, err = h.stores.ListAll(r.Context())
	} else {
		items, err = h.stores.ListByOwner(r.Context(), actor.UserID)
	}
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not load stores.", err))
		return
	}
	if items == nil {
		items = []models.Store{}
	}
	apperr.WriteJSON(w, http.StatusOK, items)
}

// Create adds a store owned by the caller.
func (h *Stores) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}
	if msg := validateStoreName(in.Name); msg != "" {
		apperr.WriteError(w, apperr.Validation(msg))
		return
	}

	actor := actorFrom(r)
	st, err := h.stores.Create(r.Context(), actor.UserID, strings.TrimSpace(in.Name))
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not create the store.", err))
		return
	}
	slog.Info("store created", "store_id", st.ID, "owner_id", actor.UserID)
	apperr.WriteJSON(w, http.StatusCreated, st)
}

// Get returns one managed store.
func (h *Stores) Get(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, st)
}

// Delete removes a store with its theme and catalog.
func (h *Stores) Delete(w http.ResponseWriter, r *http.Request) {
	st, err := managedStore(r, h.stores)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if _, err := h.stores.Delete(r.Context(), st.ID); err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not delete the store.", err))
		return
	}
	if h.pageCache != nil {
		h.pageCache.InvalidateStore(r.Context(), st.ID)
	}
	slog.Info("store deleted", "store_id", st.ID)
	apperr.WriteJSON(w, http.StatusOK, nil)
}
