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
	"github.com/google/uuid"

	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/models"
	"github.com/coursebridge/coursebridge/internal/validation"
)

type createAssignmentRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=300"`
	Description string     `json:"description" validate:"max=4000"`
	DueAt       *time.Time `json:"due_at"`
}

// updateAssignmentRequest is a partial update; only present fields change.
type updateAssignmentRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string    `json:"description" validate:"omitempty,max=4000"`
	DueAt       *time.Time `json:"due_at"`
}

type setStatusRequest struct {
	Status models.AssignmentStatus `json:"status" validate:"required,oneof=pending completed overdue"`
}

// ListAssignments returns the integrated assignment listing. Status and
// due-window filters apply uniformly to persisted and live items.
func (h *Handlers) ListAssignments(w http.ResponseWriter, r *http.Request) {
	var filters models.AssignmentFilters
	filters.Status = models.AssignmentStatus(r.URL.Query().Get("status"))
	if raw := r.URL.Query().Get("due_within_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_filter",
				"due_within_days must be an integer", nil)
			return
		}
		filters.DueWithinDays = days
	}
	if ve := validation.ValidateStruct(&filters); ve != nil {
		writeValidationError(w, r, ve)
		return
	}

	views, err := h.query.ListAssignments(r.Context(), ownerID(r), filters)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, views)
}

// CreateAssignment creates a local assignment under a persisted course.
func (h *Handlers) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		writeValidationError(w, r, ve)
		return
	}

	owner := ownerID(r)
	course, err := h.db.GetCourse(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	a := models.NewLocalAssignment(uuid.NewString(), owner, course.ID, req.Title, req.Description, req.DueAt)
	if err := h.db.CreateAssignment(r.Context(), &a); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, a)
}

// GetAssignment returns one persisted assignment.
func (h *Handlers) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.db.GetAssignment(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, a)
}

// UpdateAssignment applies a partial update to an assignment's
// descriptive fields. Mirror rows refuse these; their content belongs to
// the platform.
func (h *Handlers) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var req updateAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		writeValidationError(w, r, ve)
		return
	}

	owner := ownerID(r)
	a, err := h.db.GetAssignment(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var touched []string
	fields := database.AssignmentFields{
		CourseID:    a.CourseID,
		Title:       a.Title,
		Description: a.Description,
		DueAt:       a.DueAt,
		Status:      a.Status,
	}
	if req.Title != nil {
		touched = append(touched, "title")
		fields.Title = *req.Title
	}
	if req.Description != nil {
		touched = append(touched, "description")
		fields.Description = *req.Description
	}
	if req.DueAt != nil {
		touched = append(touched, "due_at")
		fields.DueAt = req.DueAt
	}
	if len(touched) == 0 {
		respondJSON(w, r, http.StatusOK, a)
		return
	}

	if err := h.guard.AuthorizeAssignmentUpdate(a, touched); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.db.UpdateAssignmentInfo(r.Context(), owner, a.ID, fields); err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := h.db.GetAssignment(r.Context(), owner, a.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, updated)
}

// SetAssignmentStatus updates the completion status of a local
// assignment. On mirrors the status tracks the remote submission state
// and cannot be set locally.
func (h *Handlers) SetAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		writeValidationError(w, r, ve)
		return
	}

	owner := ownerID(r)
	a, err := h.db.GetAssignment(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.guard.AuthorizeAssignmentUpdate(a, []string{"status"}); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.db.SetAssignmentStatus(r.Context(), owner, a.ID, req.Status); err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := h.db.GetAssignment(r.Context(), owner, a.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, updated)
}

// DeleteAssignment removes an assignment. Mirrored assignments may be
// deleted, with the caveat that the next pass can recreate them.
func (h *Handlers) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	a, err := h.db.GetAssignment(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.guard.AuthorizeAssignmentDelete(a); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.db.DeleteAssignment(r.Context(), owner, a.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"deleted": a.ID})
}
