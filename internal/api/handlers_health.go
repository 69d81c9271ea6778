// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import "net/http"

// HealthLive reports process liveness. It never touches dependencies.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady reports readiness to serve: the database must answer.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "not_ready",
			"Database is not reachable", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
