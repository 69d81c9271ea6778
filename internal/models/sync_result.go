// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package models

// SyncError describes one per-entity failure inside a reconciliation pass.
// The batch itself keeps going (best-effort) unless the error kind is
// auth or rate-limit, which would fail every subsequent call identically.
type SyncError struct {
	CourseExternalID string `json:"course_external_id"`
	Code             string `json:"code"`
	Message          string `json:"message"`
}

// SyncResult aggregates the outcome of one reconciliation pass. Partial
// success is never thrown away: counts reflect everything that committed
// before any short-circuiting error.
type SyncResult struct {
	CoursesSynced      int `json:"courses_synced"`
	CoursesCreated     int `json:"courses_created"`
	AssignmentsSynced  int `json:"assignments_synced"`
	AssignmentsCreated int `json:"assignments_created"`

	// Errors is ordered by the position of the failing course in the batch.
	Errors []SyncError `json:"errors,omitempty"`

	// Aborted is set when an auth or rate-limit failure stopped the batch
	// before all courses were attempted. Committed writes remain.
	Aborted bool `json:"aborted,omitempty"`
}

// Merge folds another result into r, preserving error order.
func (r *SyncResult) Merge(other SyncResult) {
	r.CoursesSynced += other.CoursesSynced
	r.CoursesCreated += other.CoursesCreated
	r.AssignmentsSynced += other.AssignmentsSynced
	r.AssignmentsCreated += other.AssignmentsCreated
	r.Errors = append(r.Errors, other.Errors...)
	r.Aborted = r.Aborted || other.Aborted
}

// Success reports whether the pass completed with zero per-entity errors.
func (r *SyncResult) Success() bool {
	return len(r.Errors) == 0 && !r.Aborted
}
