// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coursebridge/coursebridge/internal/classroom"
	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/models"
)

// fakeClient implements classroom.ClientAPI from in-memory canned data.
// Per-method error hooks simulate platform failures.
type fakeClient struct {
	courses    []models.RemoteCourse
	coursework map[string][]models.RemoteCoursework // by course external ID
	states     map[string]models.SubmissionState    // by coursework external ID
	profile    *models.Profile

	listCoursesErr error
	courseworkErr  map[string]error // by course external ID
	submissionErr  map[string]error // by coursework external ID

	listCoursesCalls atomic.Int64
	getCourseCalls   atomic.Int64
	courseworkCalls  atomic.Int64
	submissionCalls  atomic.Int64
}

var _ classroom.ClientAPI = (*fakeClient)(nil)

func (f *fakeClient) ListCourses(ctx context.Context, ownerID string, states []string) ([]models.RemoteCourse, error) {
	f.listCoursesCalls.Add(1)
	if f.listCoursesErr != nil {
		return nil, f.listCoursesErr
	}
	return f.courses, nil
}

func (f *fakeClient) GetCourse(ctx context.Context, ownerID, externalID string) (*models.RemoteCourse, error) {
	f.getCourseCalls.Add(1)
	for i := range f.courses {
		if f.courses[i].ID == externalID {
			return &f.courses[i], nil
		}
	}
	return nil, classroom.ClassifyStatus(404, nil, "courses.get")
}

func (f *fakeClient) ListCoursework(ctx context.Context, ownerID, courseExternalID string) ([]models.RemoteCoursework, error) {
	f.courseworkCalls.Add(1)
	if err := f.courseworkErr[courseExternalID]; err != nil {
		return nil, err
	}
	return f.coursework[courseExternalID], nil
}

func (f *fakeClient) ListSubmissions(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) ([]models.RemoteSubmission, error) {
	state := f.states[courseworkExternalID]
	if state == "" {
		return nil, nil
	}
	return []models.RemoteSubmission{{ID: "sub-1", UserID: ownerID, State: state}}, nil
}

func (f *fakeClient) GetSubmissionState(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) (models.SubmissionState, error) {
	f.submissionCalls.Add(1)
	if err := f.submissionErr[courseworkExternalID]; err != nil {
		return "", err
	}
	if state, ok := f.states[courseworkExternalID]; ok {
		return state, nil
	}
	return models.SubmissionStateNew, nil
}

func (f *fakeClient) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	if f.profile != nil {
		return f.profile, nil
	}
	return &models.Profile{ID: ownerID, Name: "Test Owner"}, nil
}

func testStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{
		RetryAttempts:          0,
		RetryInitialDelay:      time.Millisecond,
		RetryBackoffMultiplier: 2.0,
		CourseWindow:           0, // off unless a test opts in
		CallTimeout:            5 * time.Second,
		PassTimeout:            5 * time.Second,
		DebounceDelay:          20 * time.Millisecond,
	}
}

// openLimiter never refuses.
type openLimiter struct{}

func (openLimiter) Allow(Operation, string) (bool, time.Duration) { return true, 0 }

// closedLimiter always refuses.
type closedLimiter struct{}

func (closedLimiter) Allow(Operation, string) (bool, time.Duration) {
	return false, 30 * time.Second
}

func remoteCourse(id, name string) models.RemoteCourse {
	return models.RemoteCourse{
		ID:          id,
		Name:        name,
		CourseState: "ACTIVE",
	}
}

func remoteWork(id, courseID, title string, due *models.RemoteDate) models.RemoteCoursework {
	return models.RemoteCoursework{
		ID:       id,
		CourseID: courseID,
		Title:    title,
		State:    "PUBLISHED",
		DueDate:  due,
	}
}
