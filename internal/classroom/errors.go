// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package classroom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind is the closed classification of remote failures. Every error
// leaving this package is a *RemoteError carrying exactly one kind; callers
// branch on the kind, never on status codes or error strings.
type ErrorKind string

const (
	// KindTransient covers failures expected to heal on retry: HTTP 5xx
	// and transport-level errors (connection refused, reset, timeout).
	KindTransient ErrorKind = "transient"

	// KindPermanent covers 4xx responses other than 401/403/429. Retrying
	// the identical request cannot succeed.
	KindPermanent ErrorKind = "permanent"

	// KindAuth covers 401/403: credential invalid, expired, or lacking
	// scope. Every subsequent call with the same credential fails the
	// same way, so batches short-circuit on this kind.
	KindAuth ErrorKind = "auth"

	// KindRateLimited covers 429. Retryable after the advertised delay.
	KindRateLimited ErrorKind = "rate_limited"
)

// Stable error codes surfaced to callers and into SyncResult entries.
const (
	CodeRemoteTransient   = "remote_transient"
	CodeRemotePermanent   = "remote_permanent"
	CodeRemoteAuth        = "remote_auth"
	CodeRemoteRateLimited = "remote_rate_limited"
)

// maxErrorBodySize caps how much response body is retained for diagnostics.
// Prevents unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// RemoteError is a classified failure from the external classroom platform.
type RemoteError struct {
	Kind       ErrorKind
	Code       string
	StatusCode int // 0 for transport-level failures
	Message    string
	Body       string        // truncated raw response body, diagnostics only
	RetryAfter time.Duration // rate-limit hint, zero when absent

	cause error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *RemoteError) Unwrap() error {
	return e.cause
}

// Retryable reports whether a retry of the same call can succeed.
func (e *RemoteError) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindRateLimited
}

// ClassifyStatus maps an HTTP status code and response body into a
// RemoteError. The body is truncated to maxErrorBodySize.
func ClassifyStatus(statusCode int, body []byte, endpoint string) *RemoteError {
	truncated := string(body)
	if len(truncated) > maxErrorBodySize {
		truncated = truncated[:maxErrorBodySize] + "\n... (truncated)"
	}

	e := &RemoteError{
		StatusCode: statusCode,
		Body:       truncated,
		Message:    fmt.Sprintf("%s returned HTTP %d", endpoint, statusCode),
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Code = CodeRemoteRateLimited
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Kind = KindAuth
		e.Code = CodeRemoteAuth
	case statusCode >= 500:
		e.Kind = KindTransient
		e.Code = CodeRemoteTransient
	case statusCode >= 400:
		e.Kind = KindPermanent
		e.Code = CodeRemotePermanent
	default:
		// Unexpected non-error status handed to the classifier.
		e.Kind = KindPermanent
		e.Code = CodeRemotePermanent
	}

	return e
}

// ClassifyTransport maps a transport-level failure (no HTTP response) into
// a RemoteError. Context cancellation is passed through untouched so
// callers can distinguish their own deadline from remote trouble.
func ClassifyTransport(err error, endpoint string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RemoteError{
		Kind:    KindTransient,
		Code:    CodeRemoteTransient,
		Message: fmt.Sprintf("%s: %v", endpoint, err),
		cause:   err,
	}
}

// parseRetryAfter interprets a Retry-After header value as a delay.
// Only the delta-seconds form is supported; HTTP-date values yield zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// KindOf extracts the classification from any error. Returns the kind and
// true when err (or anything it wraps) is a RemoteError.
func KindOf(err error) (ErrorKind, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// IsAuth reports whether err is classified as an auth failure.
func IsAuth(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindAuth
}

// IsRateLimited reports whether err is classified as rate-limited.
func IsRateLimited(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindRateLimited
}

// IsTransient reports whether err is classified as transient.
func IsTransient(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindTransient
}
