// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package models

import "time"

// SnapshotTTL is the fixed lifetime of a cached submission snapshot.
const SnapshotTTL = time.Hour

// SubmissionSnapshot caches aggregate submission counts for one coursework
// item so repeated status checks do not re-query the remote platform, and
// so downstream automation never sees personally-identifying data.
//
// Keyed by (OwnerID, CourseExternalID, AssignmentExternalID). Valid while
// now < ExpiresAt; expired rows are purged lazily on read and swept
// periodically.
type SubmissionSnapshot struct {
	OwnerID              string        `json:"owner_id"`
	CourseExternalID     string        `json:"course_external_id"`
	AssignmentExternalID string        `json:"assignment_external_id"`
	TurnedInCount        int           `json:"turned_in_count"`
	ReturnedCount        int           `json:"returned_count"`
	AssignedCount        int           `json:"assigned_count"`
	Roster               []RosterEntry `json:"roster,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	ExpiresAt            time.Time     `json:"expires_at"`
}

// RosterEntry is a de-identified roster line inside a snapshot. It carries
// an opaque per-snapshot alias instead of the student's platform identity.
type RosterEntry struct {
	Alias string          `json:"alias"`
	State SubmissionState `json:"state"`
}

// Valid reports whether the snapshot is still within its TTL at the given
// instant.
func (s *SubmissionSnapshot) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
