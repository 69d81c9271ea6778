// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package models

import "time"

// AssignmentStatus is the derived completion state of an assignment.
type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "pending"
	StatusCompleted AssignmentStatus = "completed"
	StatusOverdue   AssignmentStatus = "overdue"
)

// Valid reports whether s is one of the recognized assignment statuses.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// SubmissionState is the submission-state enum reported by the external
// classroom platform for one student's coursework submission.
type SubmissionState string

const (
	SubmissionStateNew       SubmissionState = "NEW"
	SubmissionStateCreated   SubmissionState = "CREATED"
	SubmissionStateTurnedIn  SubmissionState = "TURNED_IN"
	SubmissionStateReturned  SubmissionState = "RETURNED"
	SubmissionStateReclaimed SubmissionState = "RECLAIMED_BY_STUDENT"
)

// Submitted reports whether the state counts as a completed hand-in.
// Unknown or unrecognized states are conservatively treated as not
// submitted; they must never resolve to completed.
func (s SubmissionState) Submitted() bool {
	return s == SubmissionStateTurnedIn || s == SubmissionStateReturned
}

// Assignment is a persisted assignment row, local or mirrored, always
// belonging to exactly one Course. The mirror invariant matches Course:
// IsMirror == (ExternalID != nil).
type Assignment struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	ExternalID  *string          `json:"external_id,omitempty"`
	CourseID    string           `json:"course_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	DueAt       *time.Time       `json:"due_at,omitempty"`
	Status      AssignmentStatus `json:"status"`
	IsMirror    bool             `json:"is_mirror"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewLocalAssignment builds a user-created assignment.
func NewLocalAssignment(id, ownerID, courseID, title, description string, dueAt *time.Time) Assignment {
	now := time.Now().UTC()
	return Assignment{
		ID:          id,
		OwnerID:     ownerID,
		CourseID:    courseID,
		Title:       title,
		Description: description,
		DueAt:       dueAt,
		Status:      StatusPending,
		IsMirror:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
