// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package classroom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/metrics"
	"github.com/coursebridge/coursebridge/internal/models"
)

// CredentialSource supplies a valid, already-refreshed bearer credential
// for an owner. Credential acquisition and refresh live outside this
// service; the client only consumes the result.
type CredentialSource interface {
	Token(ctx context.Context, ownerID string) (string, error)
}

// ClientAPI is the call surface the rest of Coursebridge depends on.
// Implemented by Client for production, BreakerClient as a resilient
// wrapper, and fakes in tests.
type ClientAPI interface {
	ListCourses(ctx context.Context, ownerID string, states []string) ([]models.RemoteCourse, error)
	GetCourse(ctx context.Context, ownerID, externalID string) (*models.RemoteCourse, error)
	ListCoursework(ctx context.Context, ownerID, courseExternalID string) ([]models.RemoteCoursework, error)
	ListSubmissions(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) ([]models.RemoteSubmission, error)
	GetSubmissionState(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) (models.SubmissionState, error)
	GetProfile(ctx context.Context, ownerID string) (*models.Profile, error)
}

// Client is the HTTP client for the external classroom platform.
//
// Thread safety: safe for concurrent use; each request builds its own
// http.Request and the pacing limiter is internally synchronized.
type Client struct {
	baseURL string
	creds   CredentialSource
	client  *http.Client
	limiter *rate.Limiter
}

// Compile-time interface check.
var _ ClientAPI = (*Client)(nil)

// NewClient creates a classroom platform client from configuration.
// Outbound calls are paced by a token bucket so a reconciliation pass
// cannot hammer the platform even before its own rate limits kick in.
func NewClient(cfg *config.ClassroomConfig, creds CredentialSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		baseURL: cfg.BaseURL,
		creds:   creds,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// listCoursesResponse is the wire envelope for course listings.
type listCoursesResponse struct {
	Courses       []models.RemoteCourse `json:"courses"`
	NextPageToken string                `json:"nextPageToken,omitempty"`
}

// listCourseworkResponse is the wire envelope for coursework listings.
type listCourseworkResponse struct {
	CourseWork    []models.RemoteCoursework `json:"courseWork"`
	NextPageToken string                    `json:"nextPageToken,omitempty"`
}

// listSubmissionsResponse is the wire envelope for submission listings.
type listSubmissionsResponse struct {
	StudentSubmissions []models.RemoteSubmission `json:"studentSubmissions"`
	NextPageToken      string                    `json:"nextPageToken,omitempty"`
}

// ListCourses returns all courses visible to the owner, optionally
// restricted to the given course states (e.g. ACTIVE). Follows pagination
// until the platform reports no further pages.
func (c *Client) ListCourses(ctx context.Context, ownerID string, states []string) ([]models.RemoteCourse, error) {
	var all []models.RemoteCourse
	pageToken := ""

	for {
		params := url.Values{}
		for _, s := range states {
			params.Add("courseStates", s)
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page listCoursesResponse
		if err := c.get(ctx, ownerID, "/v1/courses", params, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Courses...)

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetCourse fetches a single course by its platform ID.
func (c *Client) GetCourse(ctx context.Context, ownerID, externalID string) (*models.RemoteCourse, error) {
	var course models.RemoteCourse
	path := "/v1/courses/" + url.PathEscape(externalID)
	if err := c.get(ctx, ownerID, path, nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListCoursework returns all coursework items of a course, following
// pagination.
func (c *Client) ListCoursework(ctx context.Context, ownerID, courseExternalID string) ([]models.RemoteCoursework, error) {
	var all []models.RemoteCoursework
	pageToken := ""
	path := "/v1/courses/" + url.PathEscape(courseExternalID) + "/courseWork"

	for {
		params := url.Values{}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page listCourseworkResponse
		if err := c.get(ctx, ownerID, path, params, &page); err != nil {
			return nil, err
		}
		all = append(all, page.CourseWork...)

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListSubmissions returns every student submission for a coursework item.
// Used by the snapshot layer to build de-identified aggregates.
func (c *Client) ListSubmissions(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) ([]models.RemoteSubmission, error) {
	path := "/v1/courses/" + url.PathEscape(courseExternalID) +
		"/courseWork/" + url.PathEscape(courseworkExternalID) + "/studentSubmissions"

	var all []models.RemoteSubmission
	pageToken := ""
	for {
		params := url.Values{}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page listSubmissionsResponse
		if err := c.get(ctx, ownerID, path, params, &page); err != nil {
			return nil, err
		}
		all = append(all, page.StudentSubmissions...)

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetSubmissionState returns the owner's own submission state for one
// coursework item. An owner with no submission row reports NEW.
func (c *Client) GetSubmissionState(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) (models.SubmissionState, error) {
	path := "/v1/courses/" + url.PathEscape(courseExternalID) +
		"/courseWork/" + url.PathEscape(courseworkExternalID) + "/studentSubmissions"
	params := url.Values{}
	params.Set("userId", ownerID)

	var page listSubmissionsResponse
	if err := c.get(ctx, ownerID, path, params, &page); err != nil {
		return "", err
	}
	if len(page.StudentSubmissions) == 0 {
		return models.SubmissionStateNew, nil
	}
	return page.StudentSubmissions[0].State, nil
}

// GetProfile fetches the owner's platform profile.
func (c *Client) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	var profile models.Profile
	path := "/v1/userProfiles/" + url.PathEscape(ownerID)
	if err := c.get(ctx, ownerID, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// get performs one authenticated GET and decodes the JSON response into
// result. Non-2xx responses are classified into RemoteError with a
// truncated body for diagnostics.
func (c *Client) get(ctx context.Context, ownerID, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.creds.Token(ctx, ownerID)
	if err != nil {
		return &RemoteError{
			Kind:    KindAuth,
			Code:    CodeRemoteAuth,
			Message: fmt.Sprintf("credential source failed for %s", path),
			cause:   err,
		}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(path, "transport_error").Inc()
		return ClassifyTransport(err, path)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RemoteRequests.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		re := ClassifyStatus(resp.StatusCode, body, path)
		re.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return re
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize of the response body for
// diagnostics. Read failures return a placeholder rather than an error;
// the caller already has a failing status to report.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
