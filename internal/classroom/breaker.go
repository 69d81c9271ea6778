// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package classroom

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/metrics"
	"github.com/coursebridge/coursebridge/internal/models"
)

const (
	// breakerInterval is the closed-state measurement window.
	breakerInterval = time.Minute

	// breakerTimeout is how long the breaker stays open before probing.
	breakerTimeout = 2 * time.Minute
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
// It is classified transient: the platform may recover, and retry/backoff
// machinery upstream already knows how to wait.
var ErrCircuitOpen = errors.New("classroom platform circuit breaker is open")

// BreakerClient wraps a ClientAPI with a circuit breaker so a dead or
// degraded platform fails fast instead of tying up request handlers in
// timeout waits.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should fake the inner client rather than the breaker.
type BreakerClient struct {
	inner ClientAPI
	cb    *gobreaker.CircuitBreaker[interface{}]
	name  string
}

var _ ClientAPI = (*BreakerClient)(nil)

// NewBreakerClient wraps inner with a circuit breaker.
// Configuration: opens at >=60% failures over a minimum of 10 requests in
// a 1-minute window; half-opens after 2 minutes allowing 3 probes.
func NewBreakerClient(inner ClientAPI) *BreakerClient {
	const cbName = "classroom-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		// Auth and permanent failures are the caller's problem, not a sign
		// the platform is down. Only transport/5xx trouble should trip.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			kind, ok := KindOf(err)
			return ok && (kind == KindAuth || kind == KindPermanent)
		},
	})

	return &BreakerClient{inner: inner, cb: cb, name: cbName}
}

// execute runs fn through the breaker, mapping open-circuit rejections to
// a transient RemoteError.
func (b *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &RemoteError{
			Kind:    KindTransient,
			Code:    CodeRemoteTransient,
			Message: ErrCircuitOpen.Error(),
			cause:   ErrCircuitOpen,
		}
	}
	return result, err
}

// ListCourses implements ClientAPI.
func (b *BreakerClient) ListCourses(ctx context.Context, ownerID string, states []string) ([]models.RemoteCourse, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.ListCourses(ctx, ownerID, states)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.RemoteCourse), nil
}

// GetCourse implements ClientAPI.
func (b *BreakerClient) GetCourse(ctx context.Context, ownerID, externalID string) (*models.RemoteCourse, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.GetCourse(ctx, ownerID, externalID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.RemoteCourse), nil
}

// ListCoursework implements ClientAPI.
func (b *BreakerClient) ListCoursework(ctx context.Context, ownerID, courseExternalID string) ([]models.RemoteCoursework, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.ListCoursework(ctx, ownerID, courseExternalID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.RemoteCoursework), nil
}

// ListSubmissions implements ClientAPI.
func (b *BreakerClient) ListSubmissions(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) ([]models.RemoteSubmission, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.ListSubmissions(ctx, ownerID, courseExternalID, courseworkExternalID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.RemoteSubmission), nil
}

// GetSubmissionState implements ClientAPI.
func (b *BreakerClient) GetSubmissionState(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) (models.SubmissionState, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.GetSubmissionState(ctx, ownerID, courseExternalID, courseworkExternalID)
	})
	if err != nil {
		return "", err
	}
	return result.(models.SubmissionState), nil
}

// GetProfile implements ClientAPI.
func (b *BreakerClient) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.GetProfile(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Profile), nil
}

// stateToString converts a gobreaker state for logs and metric labels.
func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// stateToFloat converts a gobreaker state for the state gauge.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
