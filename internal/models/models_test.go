// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package models

import (
	"testing"
	"time"
)

func TestMirrorInvariantConstructors(t *testing.T) {
	local := NewLocalCourse("c1", "owner", "Algebra", "", "")
	if local.IsMirror {
		t.Error("local course must not be a mirror")
	}
	if local.ExternalID != nil {
		t.Error("local course must have nil ExternalID")
	}

	mirror := NewMirrorCourse("c2", "owner", "ext-1", "Biology", "", "Dr. Vane")
	if !mirror.IsMirror {
		t.Error("mirror course must be a mirror")
	}
	if mirror.ExternalID == nil || *mirror.ExternalID != "ext-1" {
		t.Errorf("mirror course ExternalID = %v, want ext-1", mirror.ExternalID)
	}
}

func TestSubmissionStateSubmitted(t *testing.T) {
	tests := []struct {
		state SubmissionState
		want  bool
	}{
		{SubmissionStateTurnedIn, true},
		{SubmissionStateReturned, true},
		{SubmissionStateNew, false},
		{SubmissionStateCreated, false},
		{SubmissionStateReclaimed, false},
		{SubmissionState("SOMETHING_FUTURE"), false},
		{SubmissionState(""), false},
	}
	for _, tt := range tests {
		if got := tt.state.Submitted(); got != tt.want {
			t.Errorf("Submitted(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRemoteCourseworkDueAt(t *testing.T) {
	w := RemoteCoursework{
		DueDate: &RemoteDate{Year: 2026, Month: 9, Day: 15},
		DueTime: &RemoteTimeOfDay{Hours: 14, Minutes: 30},
	}
	got := w.DueAt()
	if got == nil {
		t.Fatal("expected non-nil due time")
	}
	want := time.Date(2026, 9, 15, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DueAt = %v, want %v", got, want)
	}
}

func TestRemoteCourseworkDueAtDefaultsToEndOfDay(t *testing.T) {
	w := RemoteCoursework{DueDate: &RemoteDate{Year: 2026, Month: 9, Day: 15}}
	got := w.DueAt()
	if got == nil {
		t.Fatal("expected non-nil due time")
	}
	if got.Hour() != 23 || got.Minute() != 59 {
		t.Errorf("expected end-of-day default, got %v", got)
	}
}

func TestRemoteCourseworkDueAtAbsent(t *testing.T) {
	var w RemoteCoursework
	if got := w.DueAt(); got != nil {
		t.Errorf("expected nil due time, got %v", got)
	}
}

func TestRemoteCourseCreatedAt(t *testing.T) {
	c := RemoteCourse{CreationTime: "2026-03-01T10:00:00Z"}
	ts, ok := c.CreatedAt()
	if !ok {
		t.Fatal("expected parseable creation time")
	}
	if ts.Year() != 2026 || ts.Month() != time.March {
		t.Errorf("unexpected creation time %v", ts)
	}

	for _, raw := range []string{"", "yesterday", "2026-13-99"} {
		c := RemoteCourse{CreationTime: raw}
		if _, ok := c.CreatedAt(); ok {
			t.Errorf("CreatedAt(%q) should not parse", raw)
		}
	}
}

func TestSnapshotValid(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := SubmissionSnapshot{
		CreatedAt: created,
		ExpiresAt: created.Add(SnapshotTTL),
	}
	if !snap.Valid(created.Add(59 * time.Minute)) {
		t.Error("snapshot should be valid at T+59m")
	}
	if snap.Valid(created.Add(61 * time.Minute)) {
		t.Error("snapshot should be expired at T+61m")
	}
}

func TestSyncResultMerge(t *testing.T) {
	r := SyncResult{CoursesSynced: 1, Errors: []SyncError{{CourseExternalID: "a"}}}
	r.Merge(SyncResult{
		CoursesSynced:     2,
		AssignmentsSynced: 5,
		Errors:            []SyncError{{CourseExternalID: "b"}},
		Aborted:           true,
	})

	if r.CoursesSynced != 3 || r.AssignmentsSynced != 5 {
		t.Errorf("unexpected counts after merge: %+v", r)
	}
	if len(r.Errors) != 2 || r.Errors[0].CourseExternalID != "a" || r.Errors[1].CourseExternalID != "b" {
		t.Errorf("merge must preserve error order: %+v", r.Errors)
	}
	if !r.Aborted {
		t.Error("aborted flag must propagate")
	}
	if r.Success() {
		t.Error("result with errors must not report success")
	}
}
