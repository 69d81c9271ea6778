// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package models

import "time"

// ScheduleSource identifies how a schedule entry was produced.
type ScheduleSource string

const (
	// ScheduleSourceManual marks an entry the user typed in themselves.
	ScheduleSourceManual ScheduleSource = "manual"

	// ScheduleSourceInferred marks an entry produced by automated input
	// (e.g. timetable import) rather than direct user entry.
	ScheduleSourceInferred ScheduleSource = "inferred"
)

// Course is a persisted course row. It is either a local record created by
// the user (ExternalID nil) or a mirror of a course owned by the external
// classroom platform (ExternalID set).
//
// Invariant: IsMirror == (ExternalID != nil). Constructors and the store's
// upsert path both maintain this; nothing else may flip IsMirror.
type Course struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ExternalID  *string   `json:"external_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Instructor  string    `json:"instructor,omitempty"`
	IsMirror    bool      `json:"is_mirror"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// ScheduleEntries is ordered by (day_of_week, start_time). A course may
	// carry zero or more entries regardless of mirror status; the schedule
	// is the only field group mutable on a mirrored course.
	ScheduleEntries []ScheduleEntry `json:"schedule_entries,omitempty"`
}

// ScheduleEntry is one weekly time slot attached to a course.
type ScheduleEntry struct {
	ID        string         `json:"id"`
	CourseID  string         `json:"course_id"`
	DayOfWeek int            `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	StartTime string         `json:"start_time"`  // HH:MM, 24h
	EndTime   string         `json:"end_time"`    // HH:MM, 24h
	Location  string         `json:"location,omitempty"`
	Source    ScheduleSource `json:"source"`

	// IsDefaultPlaceholder marks an entry that was generated as a stand-in
	// rather than describing a real meeting time. The reconciler never
	// creates placeholders; the flag exists for imported data.
	IsDefaultPlaceholder bool `json:"is_default_placeholder"`
}

// NewLocalCourse builds a user-created course with no external counterpart.
func NewLocalCourse(id, ownerID, title, description, instructor string) Course {
	now := time.Now().UTC()
	return Course{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Instructor:  instructor,
		IsMirror:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewMirrorCourse builds a course mirroring an external platform course.
func NewMirrorCourse(id, ownerID, externalID, title, description, instructor string) Course {
	now := time.Now().UTC()
	return Course{
		ID:          id,
		OwnerID:     ownerID,
		ExternalID:  &externalID,
		Title:       title,
		Description: description,
		Instructor:  instructor,
		IsMirror:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
