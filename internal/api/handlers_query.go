// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"net/http"
	"strings"
)

// Search matches persisted courses and assignments by title and
// description. Live-unsynced data is out of scope for search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, r, http.StatusBadRequest, "missing_query",
			"The q parameter is required", nil)
		return
	}

	result, err := h.query.Search(r.Context(), ownerID(r), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// Summary returns persisted aggregate counts for the caller.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.query.Summary(r.Context(), ownerID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}
