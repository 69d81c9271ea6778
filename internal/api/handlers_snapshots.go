// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetSnapshot returns the de-identified submission snapshot for one piece
// of coursework, building it from the platform on a cache miss. The
// refresh query parameter forces a rebuild.
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	courseExternalID := chi.URLParam(r, "courseExternalID")
	assignmentExternalID := chi.URLParam(r, "assignmentExternalID")

	var err error
	var snap interface{}
	if r.URL.Query().Get("refresh") == "true" {
		snap, err = h.snapshots.Refresh(r.Context(), owner, courseExternalID, assignmentExternalID)
	} else {
		snap, err = h.snapshots.Get(r.Context(), owner, courseExternalID, assignmentExternalID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, snap)
}
