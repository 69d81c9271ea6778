// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package classroom

import (
	"context"
	"errors"
	"time"

	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/metrics"
)

// RetryPolicy retries a call on retryable remote failures with bounded
// exponential backoff. The retry contract is visible at the call site:
//
//	err := policy.Do(ctx, "listCourses", func() error {
//	    courses, err = client.ListCourses(ctx, ownerID, states)
//	    return err
//	})
//
// Only transient and rate-limited classifications are retried; permanent
// and auth failures return immediately. When retries exhaust, the final
// attempt's error propagates unchanged.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// BackoffMultiplier scales the delay after each retry.
	BackoffMultiplier float64
}

// DefaultRetryPolicy returns the standard policy: 3 retries, 1s initial
// delay, doubling each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Do runs fn, retrying per the policy. The op name only labels logs.
// ctx bounds the total wall-clock time including backoff waits.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	delay := p.InitialDelay
	var err error

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil {
			return nil
		}

		var re *RemoteError
		if !errors.As(err, &re) || !re.Retryable() {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}

		wait := delay
		if re.RetryAfter > 0 {
			wait = re.RetryAfter
		}

		logging.Ctx(ctx).Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt+1).
			Int("max_retries", p.MaxRetries).
			Dur("delay", wait).
			Msg("Retrying remote call")
		metrics.RemoteRetries.Inc()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
	}
}
