// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package models

import "time"

// RecordSource tags where a list item came from in an integrated listing.
type RecordSource string

const (
	// SourceLocal is a user-created row with no external counterpart.
	SourceLocal RecordSource = "local"

	// SourceMirror is a persisted row mirroring an external entity.
	SourceMirror RecordSource = "mirror"

	// SourceLiveUnsynced is a remote entity observed during a read but not
	// yet persisted locally. Its ID is synthetic and non-persistent.
	SourceLiveUnsynced RecordSource = "live-unsynced"
)

// CourseView is one row of an integrated course listing.
type CourseView struct {
	ID          string       `json:"id"`
	ExternalID  *string      `json:"external_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Instructor  string       `json:"instructor,omitempty"`
	Source      RecordSource `json:"source"`

	ScheduleEntries []ScheduleEntry `json:"schedule_entries,omitempty"`
}

// AssignmentView is one row of an integrated assignment listing.
type AssignmentView struct {
	ID          string           `json:"id"`
	ExternalID  *string          `json:"external_id,omitempty"`
	CourseID    string           `json:"course_id,omitempty"`
	CourseTitle string           `json:"course_title,omitempty"`
	Title       string           `json:"title"`
	DueAt       *time.Time       `json:"due_at,omitempty"`
	Status      AssignmentStatus `json:"status"`
	Source      RecordSource     `json:"source"`
}

// AssignmentFilters narrows an integrated assignment listing. Filters apply
// uniformly to persisted and live-unsynced items before merging.
type AssignmentFilters struct {
	Status        AssignmentStatus `json:"status,omitempty" validate:"omitempty,oneof=pending completed overdue"`
	DueWithinDays int              `json:"due_within_days,omitempty" validate:"omitempty,min=1,max=365"`
}

// SearchResult groups course and assignment matches for one query.
type SearchResult struct {
	Courses     []CourseView     `json:"courses"`
	Assignments []AssignmentView `json:"assignments"`
}

// CourseSummary aggregates persisted counts for one owner. Live-unsynced
// data is deliberately excluded; the summary is a cheap local read.
type CourseSummary struct {
	TotalCourses  int `json:"total_courses"`
	LocalCourses  int `json:"local_courses"`
	MirrorCourses int `json:"mirror_courses"`

	TotalAssignments     int `json:"total_assignments"`
	PendingAssignments   int `json:"pending_assignments"`
	CompletedAssignments int `json:"completed_assignments"`
	OverdueAssignments   int `json:"overdue_assignments"`

	// DueWithinWeek counts assignments whose due date falls inside the
	// next seven days, pending ones only.
	DueWithinWeek int `json:"due_within_week"`
}
