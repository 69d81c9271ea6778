// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/metrics"
	"github.com/coursebridge/coursebridge/internal/models"
)

// Orchestrator fronts the Reconciler. It enforces the per-owner rate
// limit, serializes passes per owner, and coalesces auto-triggered
// re-syncs behind a debounce timer so a burst of local edits produces one
// pass, not one per edit.
type Orchestrator struct {
	reconciler *Reconciler
	limiter    RateLimiter
	cfg        *config.SyncConfig

	mu       sync.Mutex
	owners   map[string]*sync.Mutex // per-owner pass serialization
	pending  map[string]*time.Timer // debounced auto-triggers by owner/course
	lastSync map[string]time.Time   // last successful pass per owner

	wg      sync.WaitGroup
	stopped bool
}

// NewOrchestrator wires the orchestrator.
func NewOrchestrator(reconciler *Reconciler, limiter RateLimiter, cfg *config.SyncConfig) *Orchestrator {
	return &Orchestrator{
		reconciler: reconciler,
		limiter:    limiter,
		cfg:        cfg,
		owners:     make(map[string]*sync.Mutex),
		pending:    make(map[string]*time.Timer),
		lastSync:   make(map[string]time.Time),
	}
}

// FullSync runs a rate-limited full reconciliation pass for the owner.
func (o *Orchestrator) FullSync(ctx context.Context, ownerID string) (*models.SyncResult, error) {
	return o.run(ctx, OpFull, ownerID, func(ctx context.Context) (*models.SyncResult, error) {
		return o.reconciler.SyncAll(ctx, ownerID)
	})
}

// SingleCourseSync reconciles one course.
func (o *Orchestrator) SingleCourseSync(ctx context.Context, ownerID, courseExternalID string) (*models.SyncResult, error) {
	return o.run(ctx, OpSingle, ownerID, func(ctx context.Context) (*models.SyncResult, error) {
		return o.reconciler.SyncCourse(ctx, ownerID, courseExternalID)
	})
}

// SelectiveSync reconciles a chosen subset of courses.
func (o *Orchestrator) SelectiveSync(ctx context.Context, ownerID string, courseExternalIDs []string) (*models.SyncResult, error) {
	return o.run(ctx, OpSelective, ownerID, func(ctx context.Context) (*models.SyncResult, error) {
		return o.reconciler.SyncCourses(ctx, ownerID, courseExternalIDs)
	})
}

// DebounceDefault selects the configured debounce delay for
// ScheduleDelayed.
const DebounceDefault time.Duration = -1

// ScheduleDelayed queues a single-course pass, fire-and-forget. The kind
// names what triggered it ("schedule_update", "manual", ...) and is
// carried into the pass logs. A negative delay means the configured
// debounce delay; repeated calls for the same owner and course within
// that window collapse into one pass at the trailing edge. A zero delay
// runs the pass now, absorbing any timer still pending for the pair.
func (o *Orchestrator) ScheduleDelayed(ownerID, courseExternalID, kind string, delay time.Duration) {
	if delay < 0 {
		delay = o.cfg.DebounceDelay
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return
	}

	key := ownerID + "/" + courseExternalID
	if delay == 0 {
		// The immediate pass supersedes a pending debounce for the pair.
		if timer, ok := o.pending[key]; ok {
			if timer.Stop() {
				o.wg.Done()
			}
			delete(o.pending, key)
		}
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.deferredPass(ownerID, courseExternalID, kind)
		}()
		return
	}

	if timer, ok := o.pending[key]; ok {
		timer.Reset(delay)
		return
	}

	o.wg.Add(1)
	o.pending[key] = time.AfterFunc(delay, func() {
		defer o.wg.Done()

		o.mu.Lock()
		delete(o.pending, key)
		stopped := o.stopped
		o.mu.Unlock()
		if stopped {
			return
		}
		o.deferredPass(ownerID, courseExternalID, kind)
	})
}

// deferredPass runs one auto-triggered single-course pass under its own
// timeout and request ID.
func (o *Orchestrator) deferredPass(ownerID, courseExternalID, kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PassTimeout)
	defer cancel()
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	ctx = logging.ContextWithOwnerID(ctx, ownerID)

	result, err := o.run(ctx, OpAuto, ownerID, func(ctx context.Context) (*models.SyncResult, error) {
		return o.reconciler.SyncCourse(ctx, ownerID, courseExternalID)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().
			Str("course_external_id", courseExternalID).
			Str("trigger", kind).
			Err(err).
			Msg("Deferred course sync failed")
		return
	}
	logging.Ctx(ctx).Debug().
		Str("course_external_id", courseExternalID).
		Str("trigger", kind).
		Int("assignments_synced", result.AssignmentsSynced).
		Msg("Deferred course sync completed")
}

// LastSyncTime returns when the owner's last successful pass finished.
func (o *Orchestrator) LastSyncTime(ownerID string) (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.lastSync[ownerID]
	return t, ok
}

// Stop cancels pending debounce timers and waits for in-flight deferred
// passes to finish. Direct passes are bounded by their caller's context.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	for key, timer := range o.pending {
		if timer.Stop() {
			// Timer never fired; release its waitgroup slot.
			o.wg.Done()
		}
		delete(o.pending, key)
	}
	o.mu.Unlock()

	o.wg.Wait()
}

// run applies rate limiting and per-owner serialization around one pass.
func (o *Orchestrator) run(ctx context.Context, op Operation, ownerID string, pass func(context.Context) (*models.SyncResult, error)) (*models.SyncResult, error) {
	if allowed, retryIn := o.limiter.Allow(op, ownerID); !allowed {
		return nil, fmt.Errorf("%w: retry in %s", ErrRateLimited, retryIn.Round(time.Second))
	}

	ownerMu := o.ownerLock(ownerID)
	ownerMu.Lock()
	defer ownerMu.Unlock()

	start := time.Now()
	result, err := pass(ctx)
	metrics.SyncDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case result != nil && result.Aborted:
		outcome = "aborted"
	case err != nil || (result != nil && len(result.Errors) > 0):
		outcome = "partial"
	}
	metrics.SyncPasses.WithLabelValues(string(op), outcome).Inc()

	if err == nil && result != nil && !result.Aborted {
		o.mu.Lock()
		o.lastSync[ownerID] = time.Now().UTC()
		o.mu.Unlock()
	}

	logging.Ctx(ctx).Info().
		Str("operation", string(op)).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Int("courses_synced", resultCourses(result)).
		Int("errors", resultErrors(result)).
		Msg("Reconciliation pass finished")

	return result, err
}

// ownerLock returns the serialization mutex for one owner, creating it on
// first use.
func (o *Orchestrator) ownerLock(ownerID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	mu, ok := o.owners[ownerID]
	if !ok {
		mu = &sync.Mutex{}
		o.owners[ownerID] = mu
	}
	return mu
}

func resultCourses(r *models.SyncResult) int {
	if r == nil {
		return 0
	}
	return r.CoursesSynced
}

func resultErrors(r *models.SyncResult) int {
	if r == nil {
		return 0
	}
	return len(r.Errors)
}
