// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/models"
	syncpkg "github.com/coursebridge/coursebridge/internal/sync"
	"github.com/coursebridge/coursebridge/internal/validation"
)

type createCourseRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Instructor  string `json:"instructor" validate:"max=200"`
}

// updateCourseRequest is a partial update; only present fields change.
type updateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Instructor  *string `json:"instructor" validate:"omitempty,max=200"`
}

type scheduleEntryRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required,clocktime"`
	EndTime   string `json:"end_time" validate:"required,clocktime"`
	Location  string `json:"location" validate:"max=200"`
}

type replaceScheduleRequest struct {
	Entries []scheduleEntryRequest `json:"entries" validate:"max=50,dive"`
}

// ListCourses returns the integrated course listing: persisted rows plus
// live-unsynced remote courses, degrading to persisted-only when the
// platform is unreachable. ?include_live=false skips the remote lookup
// entirely.
func (h *Handlers) ListCourses(w http.ResponseWriter, r *http.Request) {
	includeLive := r.URL.Query().Get("include_live") != "false"
	views, err := h.query.ListCourses(r.Context(), ownerID(r), includeLive)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, views)
}

// CreateCourse creates a local (non-mirror) course.
func (h *Handlers) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		writeValidationError(w, r, ve)
		return
	}

	course := models.NewLocalCourse(uuid.NewString(), ownerID(r), req.Title, req.Description, req.Instructor)
	if err := h.db.CreateCourse(r.Context(), &course); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, course)
}

// GetCourse returns one persisted course with its schedule.
func (h *Handlers) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.db.GetCourse(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, course)
}

// UpdateCourse applies a partial update to a course. Mirror rows refuse
// every field here; their descriptive fields belong to the platform.
func (h *Handlers) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req updateCourseRequest
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

	var touched []string
	fields := database.CourseFields{
		Title:       course.Title,
		Description: course.Description,
		Instructor:  course.Instructor,
	}
	if req.Title != nil {
		touched = append(touched, "title")
		fields.Title = *req.Title
	}
	if req.Description != nil {
		touched = append(touched, "description")
		fields.Description = *req.Description
	}
	if req.Instructor != nil {
		touched = append(touched, "instructor")
		fields.Instructor = *req.Instructor
	}
	if len(touched) == 0 {
		respondJSON(w, r, http.StatusOK, course)
		return
	}

	if err := h.guard.AuthorizeCourseUpdate(course, touched); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.db.UpdateCourseInfo(r.Context(), owner, course.ID, fields); err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := h.db.GetCourse(r.Context(), owner, course.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, updated)
}

// ReplaceSchedule swaps a course's weekly schedule. Schedules are
// user-owned even on mirrors; on a mirror the write also queues a
// debounced re-sync so platform fields stay fresh alongside it.
func (h *Handlers) ReplaceSchedule(w http.ResponseWriter, r *http.Request) {
	var req replaceScheduleRequest
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
	if err := h.guard.AuthorizeCourseUpdate(course, []string{"schedule_entries"}); err != nil {
		writeDomainError(w, r, err)
		return
	}

	entries := make([]models.ScheduleEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = models.ScheduleEntry{
			CourseID:  course.ID,
			DayOfWeek: e.DayOfWeek,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Location:  e.Location,
			Source:    models.ScheduleSourceManual,
		}
	}
	if err := h.db.ReplaceScheduleEntries(r.Context(), course.ID, entries); err != nil {
		writeDomainError(w, r, err)
		return
	}

	if course.IsMirror && course.ExternalID != nil {
		h.orchestrator.ScheduleDelayed(owner, *course.ExternalID, "schedule_update", syncpkg.DebounceDefault)
	}

	updated, err := h.db.GetCourse(r.Context(), owner, course.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, updated)
}

// DeleteCourse removes a local course and everything under it. Mirrors
// are refused; they leave through the pruner.
func (h *Handlers) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	course, err := h.db.GetCourse(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.guard.AuthorizeCourseDelete(course); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.db.DeleteCourse(r.Context(), owner, course.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"deleted": course.ID})
}
