// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"errors"
	"time"

	"github.com/coursebridge/coursebridge/internal/cache"
	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/metrics"
)

// ErrRateLimited is returned when an owner exceeds their sync budget.
var ErrRateLimited = errors.New("sync rate limit exceeded")

// maxTrackedOwners bounds limiter memory under owner-id churn.
const maxTrackedOwners = 10000

// Operation names a sync entry point for rate limiting and metrics.
type Operation string

const (
	OpFull      Operation = "full"
	OpSingle    Operation = "single"
	OpSelective Operation = "selective"
	OpAuto      Operation = "auto"
)

// RateLimiter gates sync operations per owner. Implementations must be
// safe for concurrent use.
type RateLimiter interface {
	// Allow reports whether the owner may run the operation now and, when
	// refused, how long until the window has room again.
	Allow(op Operation, ownerID string) (bool, time.Duration)
}

// WindowLimiter is the default RateLimiter: per-owner sliding window
// counters with separate budgets for full and single-course passes.
// Selective passes draw from the full budget (they fan out the same way);
// auto-triggered passes draw from the single budget.
type WindowLimiter struct {
	cfg    *config.RateLimitConfig
	full   *cache.SlidingWindowStore
	single *cache.SlidingWindowStore
}

// NewWindowLimiter builds a limiter from config. Ten buckets per window
// keeps the boundary error under a tenth of the window.
func NewWindowLimiter(cfg *config.RateLimitConfig) *WindowLimiter {
	return &WindowLimiter{
		cfg:    cfg,
		full:   cache.NewSlidingWindowStore(cfg.Window, 10, maxTrackedOwners),
		single: cache.NewSlidingWindowStore(cfg.Window, 10, maxTrackedOwners),
	}
}

// Allow implements RateLimiter.
func (l *WindowLimiter) Allow(op Operation, ownerID string) (bool, time.Duration) {
	if l.cfg.Disabled {
		return true, 0
	}

	store, limit := l.single, l.cfg.SingleSyncLimit
	if op == OpFull || op == OpSelective {
		store, limit = l.full, l.cfg.FullSyncLimit
	}

	if store.Count(ownerID) >= int64(limit) {
		metrics.RateLimitRejections.WithLabelValues(string(op)).Inc()
		// The precise slot opening is inside the oldest bucket; one bucket
		// width is the upper bound on the wait.
		return false, l.cfg.Window / 10
	}
	store.Increment(ownerID)
	return true, 0
}
