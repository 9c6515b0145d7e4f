// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"storefront/internal/apperr"
	"storefront/internal/upload"
)

// Uploads hands out signed upload grants.
type Uploads struct {
	granter *upload.Granter
}

// NewUploads creates a new Uploads handler group.
func NewUploads(granter *upload.Granter) *Uploads {
	return &Uploads{granter: granter}
}

// Sign returns a grant to PUT one image, for a body of {"file_name": "..."}.
func (h *Uploads) Sign(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FileName string `json:"file_name"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}
	grant, err := h.granter.Grant(r.Context(), actorFrom(r), in.FileName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, grant)
}
