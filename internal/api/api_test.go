// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/models"
	"github.com/coursebridge/coursebridge/internal/query"
	"github.com/coursebridge/coursebridge/internal/snapshot"
	syncpkg "github.com/coursebridge/coursebridge/internal/sync"
)

// stubClient is a canned classroom platform for handler tests.
type stubClient struct {
	courses     []models.RemoteCourse
	coursework  map[string][]models.RemoteCoursework
	states      map[string]models.SubmissionState
	submissions map[string][]models.RemoteSubmission
	listErr     error
}

func (c *stubClient) ListCourses(ctx context.Context, ownerID string, states []string) ([]models.RemoteCourse, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.courses, nil
}

func (c *stubClient) GetCourse(ctx context.Context, ownerID, externalID string) (*models.RemoteCourse, error) {
	for i := range c.courses {
		if c.courses[i].ID == externalID {
			return &c.courses[i], nil
		}
	}
	return nil, c.listErr
}

func (c *stubClient) ListCoursework(ctx context.Context, ownerID, courseExternalID string) ([]models.RemoteCoursework, error) {
	return c.coursework[courseExternalID], nil
}

func (c *stubClient) ListSubmissions(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) ([]models.RemoteSubmission, error) {
	return c.submissions[courseExternalID+"/"+courseworkExternalID], nil
}

func (c *stubClient) GetSubmissionState(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) (models.SubmissionState, error) {
	if s, ok := c.states[courseworkExternalID]; ok {
		return s, nil
	}
	return models.SubmissionStateNew, nil
}

func (c *stubClient) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	return &models.Profile{ID: ownerID, Name: "Test Owner"}, nil
}

// envelope mirrors the response shape for decoding in tests.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

func newTestServer(t *testing.T, client *stubClient, rateCfg *config.RateLimitConfig) (http.Handler, *database.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	syncCfg := &config.SyncConfig{
		RetryAttempts:          0,
		RetryInitialDelay:      time.Millisecond,
		RetryBackoffMultiplier: 2.0,
		CourseWindow:           0,
		CallTimeout:            5 * time.Second,
		PassTimeout:            5 * time.Second,
		DebounceDelay:          10 * time.Millisecond,
	}
	if rateCfg == nil {
		rateCfg = &config.RateLimitConfig{Disabled: true}
	}

	reconciler := syncpkg.NewReconciler(db, client, syncCfg)
	orchestrator := syncpkg.NewOrchestrator(reconciler, syncpkg.NewWindowLimiter(rateCfg), syncCfg)
	t.Cleanup(orchestrator.Stop)

	h := NewHandlers(
		db,
		orchestrator,
		syncpkg.NewPruner(db, client),
		query.NewService(db, client),
		snapshot.NewService(db, client, time.Hour),
	)
	serverCfg := &config.ServerConfig{CORSOrigins: []string{"*"}, HTTPRateLimit: 0}
	return NewRouter(h, serverCfg), db
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope (%s %s, status %d): %v", method, path, rec.Code, err)
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestMissingOwnerHeader(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Error == nil || env.Error.Code != "missing_owner" {
		t.Fatalf("expected missing_owner error, got %+v", env.Error)
	}
}

func TestCourseCRUDLifecycle(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, nil)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/courses",
		map[string]string{"title": "Linear Algebra", "instructor": "Dr. Vec"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var course models.Course
	decodeData(t, env, &course)
	if course.ID == "" || course.IsMirror {
		t.Fatalf("unexpected created course: %+v", course)
	}

	rec, env = doRequest(t, handler, http.MethodGet, "/api/v1/courses/"+course.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec, env = doRequest(t, handler, http.MethodPatch, "/api/v1/courses/"+course.ID,
		map[string]string{"title": "Linear Algebra II"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated models.Course
	decodeData(t, env, &updated)
	if updated.Title != "Linear Algebra II" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if updated.Instructor != "Dr. Vec" {
		t.Fatalf("partial update must not clear other fields, got %q", updated.Instructor)
	}

	rec, _ = doRequest(t, handler, http.MethodDelete, "/api/v1/courses/"+course.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	rec, env = doRequest(t, handler, http.MethodGet, "/api/v1/courses/"+course.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "not_found" {
		t.Fatalf("expected not_found, got %+v", env.Error)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, nil)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/courses",
		map[string]string{"title": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %+v", env.Error)
	}
}

func TestFullSyncEndpoint(t *testing.T) {
	client := &stubClient{
		courses: []models.RemoteCourse{
			{ID: "ext-1", Name: "Biology", CourseState: "ACTIVE", TeacherName: "Dr. Cell"},
		},
		coursework: map[string][]models.RemoteCoursework{
			"ext-1": {{ID: "cw-1", CourseID: "ext-1", Title: "Lab report"}},
		},
	}
	handler, _ := newTestServer(t, client, nil)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var result models.SyncResult
	decodeData(t, env, &result)
	if result.CoursesSynced != 1 || result.AssignmentsSynced != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec, env = doRequest(t, handler, http.MethodGet, "/api/v1/courses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var views []models.CourseView
	decodeData(t, env, &views)
	if len(views) != 1 || views[0].Source != models.SourceMirror {
		t.Fatalf("expected one mirror view, got %+v", views)
	}

	rec, env = doRequest(t, handler, http.MethodGet, "/api/v1/sync/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}
	var status syncStatusResponse
	decodeData(t, env, &status)
	if !status.HasSynced || status.LastSyncAt == nil {
		t.Fatalf("expected recorded sync time, got %+v", status)
	}
}

func TestMirrorCourseIsReadOnly(t *testing.T) {
	client := &stubClient{
		courses: []models.RemoteCourse{
			{ID: "ext-1", Name: "Biology", CourseState: "ACTIVE"},
		},
	}
	handler, db := newTestServer(t, client, nil)

	if rec, _ := doRequest(t, handler, http.MethodPost, "/api/v1/sync", nil); rec.Code != http.StatusOK {
		t.Fatalf("sync: expected 200, got %d", rec.Code)
	}
	mirror, err := db.GetCourseByExternalID(context.Background(), "owner-1", "ext-1")
	if err != nil {
		t.Fatalf("fetch mirror: %v", err)
	}

	rec, env := doRequest(t, handler, http.MethodPatch, "/api/v1/courses/"+mirror.ID,
		map[string]string{"title": "Renamed"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("patch mirror: expected 409, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "classroom_mirror_readonly" {
		t.Fatalf("expected classroom_mirror_readonly, got %+v", env.Error)
	}

	rec, env = doRequest(t, handler, http.MethodDelete, "/api/v1/courses/"+mirror.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete mirror: expected 409, got %d", rec.Code)
	}

	// Schedules are user-owned, so the write passes even on a mirror.
	rec, env = doRequest(t, handler, http.MethodPut, "/api/v1/courses/"+mirror.ID+"/schedule",
		map[string]interface{}{"entries": []map[string]interface{}{
			{"day_of_week": 1, "start_time": "09:00", "end_time": "10:30", "location": "Hall B"},
		}})
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule on mirror: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var withSchedule models.Course
	decodeData(t, env, &withSchedule)
	if len(withSchedule.ScheduleEntries) != 1 || withSchedule.ScheduleEntries[0].StartTime != "09:00" {
		t.Fatalf("expected schedule entry, got %+v", withSchedule.ScheduleEntries)
	}
}

func TestScheduleValidation(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, nil)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/courses",
		map[string]string{"title": "History"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var course models.Course
	decodeData(t, env, &course)

	rec, env = doRequest(t, handler, http.MethodPut, "/api/v1/courses/"+course.ID+"/schedule",
		map[string]interface{}{"entries": []map[string]interface{}{
			{"day_of_week": 9, "start_time": "25:00", "end_time": "26:00"},
		}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %+v", env.Error)
	}
}

func TestSyncRateLimitReturns429(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, &config.RateLimitConfig{
		Window:          time.Minute,
		FullSyncLimit:   1,
		SingleSyncLimit: 1,
	})

	if rec, _ := doRequest(t, handler, http.MethodPost, "/api/v1/sync", nil); rec.Code != http.StatusOK {
		t.Fatalf("first sync: expected 200, got %d", rec.Code)
	}

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/sync", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second sync: expected 429, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "sync_rate_limited" {
		t.Fatalf("expected sync_rate_limited, got %+v", env.Error)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestAssignmentStatusUpdate(t *testing.T) {
	client := &stubClient{
		courses: []models.RemoteCourse{
			{ID: "ext-1", Name: "Biology", CourseState: "ACTIVE"},
		},
		coursework: map[string][]models.RemoteCoursework{
			"ext-1": {{ID: "cw-1", CourseID: "ext-1", Title: "Lab report"}},
		},
	}
	handler, db := newTestServer(t, client, nil)

	if rec, _ := doRequest(t, handler, http.MethodPost, "/api/v1/sync", nil); rec.Code != http.StatusOK {
		t.Fatalf("sync: expected 200, got %d", rec.Code)
	}

	assignments, err := db.ListAssignments(context.Background(), "owner-1", database.AssignmentQuery{})
	if err != nil || len(assignments) != 1 {
		t.Fatalf("expected one assignment, got %v (%v)", assignments, err)
	}
	id := assignments[0].ID

	// Mirrored assignments track the remote submission state; setting the
	// status locally is refused like any other mirror write.
	rec, _ := doRequest(t, handler, http.MethodPut, "/api/v1/assignments/"+id+"/status",
		map[string]string{"status": "completed"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status update on mirror: expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec, _ = doRequest(t, handler, http.MethodPatch, "/api/v1/assignments/"+id,
		map[string]string{"title": "Renamed"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("patch mirror assignment: expected 409, got %d", rec.Code)
	}

	// A locally created assignment remains freely mutable.
	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/courses",
		map[string]string{"title": "Study Hall"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create course: expected 201, got %d", rec.Code)
	}
	var course models.Course
	decodeData(t, env, &course)

	rec, env = doRequest(t, handler, http.MethodPost, "/api/v1/courses/"+course.ID+"/assignments",
		map[string]string{"title": "Reading"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create assignment: expected 201, got %d", rec.Code)
	}
	var local models.Assignment
	decodeData(t, env, &local)

	rec, env = doRequest(t, handler, http.MethodPut, "/api/v1/assignments/"+local.ID+"/status",
		map[string]string{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status update on local: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated models.Assignment
	decodeData(t, env, &updated)
	if updated.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
}

func TestSearchAndSummary(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, nil)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/courses",
		map[string]string{"title": "Organic Chemistry"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}

	rec, env = doRequest(t, handler, http.MethodGet, "/api/v1/search?q=chem", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", rec.Code)
	}
	var result models.SearchResult
	decodeData(t, env, &result)
	if len(result.Courses) != 1 {
		t.Fatalf("expected one course match, got %+v", result)
	}

	rec, _ = doRequest(t, handler, http.MethodGet, "/api/v1/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty query: expected 400, got %d", rec.Code)
	}

	rec, env = doRequest(t, handler, http.MethodGet, "/api/v1/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rec.Code)
	}
	var summary models.CourseSummary
	decodeData(t, env, &summary)
	if summary.TotalCourses != 1 || summary.LocalCourses != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestSnapshotEndpointDeidentifies(t *testing.T) {
	client := &stubClient{
		submissions: map[string][]models.RemoteSubmission{
			"ext-1/cw-1": {
				{ID: "s1", UserID: "platform-user-alice", State: models.SubmissionStateTurnedIn},
				{ID: "s2", UserID: "platform-user-bob", State: models.SubmissionStateNew},
			},
		},
	}
	handler, _ := newTestServer(t, client, nil)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/snapshots/ext-1/cw-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var snap models.SubmissionSnapshot
	decodeData(t, env, &snap)
	if snap.AssignedCount != 2 || snap.TurnedInCount != 1 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
	if bytes.Contains(env.Data, []byte("alice")) || bytes.Contains(env.Data, []byte("platform-user")) {
		t.Fatalf("snapshot leaked platform identifiers: %s", env.Data)
	}
}

func TestRequestIDInEnvelope(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Metadata.RequestID != "req-abc" {
		t.Fatalf("expected upstream request id, got %q", env.Metadata.RequestID)
	}
}

func TestHealthEndpoints(t *testing.T) {
	handler, _ := newTestServer(t, &stubClient{}, nil)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestTriggerSyncRunsInBackground(t *testing.T) {
	client := &stubClient{
		courses: []models.RemoteCourse{
			{ID: "ext-1", Name: "Biology", CourseState: "ACTIVE"},
		},
	}
	handler, db := newTestServer(t, client, nil)

	if rec, _ := doRequest(t, handler, http.MethodPost, "/api/v1/sync/trigger/ext-1?delay_seconds=nope", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad delay: expected 400, got %d", rec.Code)
	}

	// delay_seconds=0 skips the debounce and runs the pass right away.
	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/sync/trigger/ext-1?delay_seconds=0", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (%s)", rec.Code, rec.Body.String())
	}
	var data map[string]string
	decodeData(t, env, &data)
	if data["scheduled"] != "ext-1" {
		t.Fatalf("unexpected trigger response: %v", data)
	}

	// The background pass materializes the mirror shortly after.
	deadline := time.After(2 * time.Second)
	for {
		if _, err := db.GetCourseByExternalID(context.Background(), "owner-1", "ext-1"); err == nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("triggered sync never materialized the mirror")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
