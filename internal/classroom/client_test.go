// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package classroom

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/models"
)

// staticCreds returns the same token for every owner.
type staticCreds struct{ token string }

func (s staticCreds) Token(_ context.Context, _ string) (string, error) {
	return s.token, nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.ClassroomConfig{
		BaseURL:           srv.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}
	return NewClient(cfg, staticCreds{token: "tok-1"}), srv
}

func TestListCoursesFollowsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/courses", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("missing bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"courses":[{"id":"c1","name":"Algebra","courseState":"ACTIVE"}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"courses":[{"id":"c2","name":"Biology","courseState":"ACTIVE"}]}`))
	})

	client, _ := newTestClient(t, mux)
	courses, err := client.ListCourses(context.Background(), "owner", []string{"ACTIVE"})
	if err != nil {
		t.Fatalf("ListCourses failed: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("expected 2 courses across pages, got %d", len(courses))
	}
	if courses[0].ID != "c1" || courses[1].ID != "c2" {
		t.Errorf("unexpected course order: %+v", courses)
	}
}

func TestListCoursesPassesStateFilter(t *testing.T) {
	var gotStates []string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/courses", func(w http.ResponseWriter, r *http.Request) {
		gotStates = r.URL.Query()["courseStates"]
		_, _ = w.Write([]byte(`{"courses":[]}`))
	})

	client, _ := newTestClient(t, mux)
	if _, err := client.ListCourses(context.Background(), "owner", []string{"ACTIVE", "PROVISIONED"}); err != nil {
		t.Fatal(err)
	}
	if len(gotStates) != 2 || gotStates[0] != "ACTIVE" {
		t.Errorf("state filter not forwarded: %v", gotStates)
	}
}

func TestGetCourseNotFoundClassifiesPermanent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))

	_, err := client.GetCourse(context.Background(), "owner", "missing")
	kind, ok := KindOf(err)
	if !ok || kind != KindPermanent {
		t.Errorf("404 should classify permanent, got %v", err)
	}
}

func TestRateLimitedResponseCarriesRetryAfter(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.ListCoursework(context.Background(), "owner", "c1")
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Kind != KindRateLimited {
		t.Errorf("kind = %q, want rate_limited", re.Kind)
	}
	if re.RetryAfter != 12*time.Second {
		t.Errorf("RetryAfter = %v, want 12s", re.RetryAfter)
	}
}

func TestGetSubmissionStateDefaultsToNew(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"studentSubmissions":[]}`))
	}))

	state, err := client.GetSubmissionState(context.Background(), "owner", "c1", "w1")
	if err != nil {
		t.Fatal(err)
	}
	if state != models.SubmissionStateNew {
		t.Errorf("state = %q, want NEW", state)
	}
}

func TestGetSubmissionStateReturnsFirst(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") != "owner" {
			t.Errorf("userId filter not forwarded")
		}
		_, _ = w.Write([]byte(`{"studentSubmissions":[{"id":"s1","userId":"owner","state":"TURNED_IN"}]}`))
	}))

	state, err := client.GetSubmissionState(context.Background(), "owner", "c1", "w1")
	if err != nil {
		t.Fatal(err)
	}
	if state != models.SubmissionStateTurnedIn {
		t.Errorf("state = %q, want TURNED_IN", state)
	}
}

func TestGetProfile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/userProfiles/owner-7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"owner-7","name":"Sam Aldana"}`))
	}))

	profile, err := client.GetProfile(context.Background(), "owner-7")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "Sam Aldana" {
		t.Errorf("profile = %+v", profile)
	}
}

func TestTransportFailureClassifiesTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	cfg := &config.ClassroomConfig{BaseURL: srv.URL, Timeout: time.Second, RequestsPerSecond: 1000, Burst: 10}
	client := NewClient(cfg, staticCreds{token: "t"})

	_, err := client.ListCourses(context.Background(), "owner", nil)
	if !IsTransient(err) {
		t.Errorf("connection failure should classify transient, got %v", err)
	}
}
