// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	syncpkg "github.com/coursebridge/coursebridge/internal/sync"
	"github.com/coursebridge/coursebridge/internal/validation"
)

// selectiveSyncRequest names the remote courses a selective pass covers.
type selectiveSyncRequest struct {
	CourseExternalIDs []string `json:"course_external_ids" validate:"required,min=1,max=50,dive,required"`
}

// syncStatusResponse reports the last completed clean pass for an owner.
type syncStatusResponse struct {
	LastSyncAt *time.Time `json:"last_sync_at"`
	HasSynced  bool       `json:"has_synced"`
}

// pruneResponse lists the external IDs whose local mirrors were removed.
type pruneResponse struct {
	RemovedExternalIDs []string `json:"removed_external_ids"`
}

// FullSync runs a full reconciliation pass for the caller.
func (h *Handlers) FullSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.orchestrator.FullSync(r.Context(), ownerID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// SingleCourseSync reconciles one remote course and its coursework.
func (h *Handlers) SingleCourseSync(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")
	result, err := h.orchestrator.SingleCourseSync(r.Context(), ownerID(r), externalID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// SelectiveSync reconciles a caller-chosen subset of remote courses.
func (h *Handlers) SelectiveSync(w http.ResponseWriter, r *http.Request) {
	var req selectiveSyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		writeValidationError(w, r, ve)
		return
	}

	result, err := h.orchestrator.SelectiveSync(r.Context(), ownerID(r), req.CourseExternalIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// TriggerSync queues a background re-sync for one course. By default the
// pass is debounced, so repeated triggers coalesce into one; passing
// ?delay_seconds=0 runs it immediately.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	delay := syncpkg.DebounceDefault
	if raw := r.URL.Query().Get("delay_seconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			respondError(w, r, http.StatusBadRequest, "invalid_delay",
				"delay_seconds must be a non-negative integer", nil)
			return
		}
		delay = time.Duration(seconds) * time.Second
	}

	h.orchestrator.ScheduleDelayed(ownerID(r), externalID, "manual", delay)
	respondJSON(w, r, http.StatusAccepted, map[string]string{"scheduled": externalID})
}

// Prune removes local mirrors whose remote courses no longer exist. It
// refuses to run unless a complete remote listing can be obtained.
func (h *Handlers) Prune(w http.ResponseWriter, r *http.Request) {
	removed, err := h.pruner.Prune(r.Context(), ownerID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	respondJSON(w, r, http.StatusOK, pruneResponse{RemovedExternalIDs: removed})
}

// SyncStatus reports when the caller's last clean pass finished.
func (h *Handlers) SyncStatus(w http.ResponseWriter, r *http.Request) {
	resp := syncStatusResponse{}
	if t, ok := h.orchestrator.LastSyncTime(ownerID(r)); ok {
		resp.LastSyncAt = &t
		resp.HasSynced = true
	}
	respondJSON(w, r, http.StatusOK, resp)
}
