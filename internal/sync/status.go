// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"time"

	"github.com/coursebridge/coursebridge/internal/models"
)

// defaultDueHorizon is assumed for coursework without a due date when
// deciding pending vs overdue. An undated assignment can never be overdue
// the moment it appears.
const defaultDueHorizon = 7 * 24 * time.Hour

// StatusResolver derives the local assignment status from the platform's
// submission state and due date. The clock is injectable for tests.
type StatusResolver struct {
	Now func() time.Time
}

// NewStatusResolver returns a resolver on the real clock.
func NewStatusResolver() *StatusResolver {
	return &StatusResolver{Now: func() time.Time { return time.Now().UTC() }}
}

// Resolve maps one submission state and due date to an assignment status.
//
// Submitted states (turned in or returned) always win: a completed
// assignment is completed no matter the due date. Unknown or unrecognized
// states count as not submitted, never as completed. Past the due date an
// unsubmitted assignment is overdue, otherwise pending.
func (r *StatusResolver) Resolve(state models.SubmissionState, dueAt *time.Time) models.AssignmentStatus {
	if state.Submitted() {
		return models.StatusCompleted
	}

	now := r.Now()
	due := now.Add(defaultDueHorizon)
	if dueAt != nil {
		due = *dueAt
	}
	if now.After(due) {
		return models.StatusOverdue
	}
	return models.StatusPending
}
