// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"testing"
	"time"

	"github.com/coursebridge/coursebridge/internal/models"
)

func TestStatusResolver(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	resolver := &StatusResolver{Now: func() time.Time { return now }}

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		state models.SubmissionState
		dueAt *time.Time
		want  models.AssignmentStatus
	}{
		{"turned in beats future due date", models.SubmissionStateTurnedIn, &future, models.StatusCompleted},
		{"turned in beats past due date", models.SubmissionStateTurnedIn, &past, models.StatusCompleted},
		{"returned counts as completed", models.SubmissionStateReturned, &past, models.StatusCompleted},
		{"new before due date is pending", models.SubmissionStateNew, &future, models.StatusPending},
		{"new past due date is overdue", models.SubmissionStateNew, &past, models.StatusOverdue},
		{"created past due date is overdue", models.SubmissionStateCreated, &past, models.StatusOverdue},
		{"reclaimed past due date is overdue", models.SubmissionStateReclaimed, &past, models.StatusOverdue},
		{"no due date is pending", models.SubmissionStateNew, nil, models.StatusPending},
		{"unknown state never completes", models.SubmissionState("SOMETHING_ELSE"), &future, models.StatusPending},
		{"unknown state past due is overdue", models.SubmissionState("SOMETHING_ELSE"), &past, models.StatusOverdue},
		{"empty state is not submitted", models.SubmissionState(""), &future, models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Resolve(tt.state, tt.dueAt); got != tt.want {
				t.Errorf("Resolve(%q, %v) = %q, want %q", tt.state, tt.dueAt, got, tt.want)
			}
		})
	}
}

func TestStatusResolverDefaultHorizon(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	resolver := &StatusResolver{Now: func() time.Time { return now }}

	// An undated assignment is judged against an assumed horizon a week
	// out, so it can only ever be pending at resolution time.
	if got := resolver.Resolve(models.SubmissionStateNew, nil); got != models.StatusPending {
		t.Errorf("undated assignment should be pending, got %q", got)
	}
}
