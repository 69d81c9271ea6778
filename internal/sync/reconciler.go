// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursebridge/coursebridge/internal/classroom"
	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/metrics"
	"github.com/coursebridge/coursebridge/internal/models"
)

// activeCourseStates is what a full pass asks the platform for. Archived
// and declined courses are not mirrored.
var activeCourseStates = []string{"ACTIVE"}

// Store is the slice of the database the reconciler writes through.
type Store interface {
	UpsertCourseByExternalID(ctx context.Context, ownerID, externalID string, fields database.CourseFields) (*models.Course, bool, error)
	UpsertAssignmentByExternalID(ctx context.Context, ownerID, externalID string, fields database.AssignmentFields) (*models.Assignment, bool, error)
	MirrorExternalIDs(ctx context.Context, ownerID string) (map[string]struct{}, error)
}

// Reconciler pulls courses and coursework from the platform and upserts
// mirror rows. Passes are additive and idempotent: re-running against an
// unchanged remote writes the same rows again and creates nothing.
type Reconciler struct {
	store  Store
	client classroom.ClientAPI
	status *StatusResolver
	retry  classroom.RetryPolicy
	cfg    *config.SyncConfig
}

// NewReconciler wires the reconciler. The client should already carry the
// circuit breaker.
func NewReconciler(store Store, client classroom.ClientAPI, cfg *config.SyncConfig) *Reconciler {
	return &Reconciler{
		store:  store,
		client: client,
		status: NewStatusResolver(),
		retry: classroom.RetryPolicy{
			MaxRetries:        cfg.RetryAttempts,
			InitialDelay:      cfg.RetryInitialDelay,
			BackoffMultiplier: cfg.RetryBackoffMultiplier,
		},
		cfg: cfg,
	}
}

// SyncAll reconciles every active course the platform lists for the owner.
//
// Failures are isolated per course: a course that errors is recorded in
// the result and the pass moves on. Two failures abort the whole pass
// instead: credential failures (every later call would fail the same way)
// and remote rate limiting (continuing would dig the hole deeper).
func (r *Reconciler) SyncAll(ctx context.Context, ownerID string) (*models.SyncResult, error) {
	result := &models.SyncResult{}

	var remote []models.RemoteCourse
	err := r.retry.Do(ctx, "courses.list", func() error {
		var listErr error
		remote, listErr = r.listCourses(ctx, ownerID)
		return listErr
	})
	if err != nil {
		// Nothing was reconciled; the listing failure aborts the pass.
		result.Aborted = true
		recordSyncError(result, "", err)
		return result, fmt.Errorf("course listing failed: %w", err)
	}

	remote = r.filterCourseWindow(ctx, ownerID, remote)

	for i := range remote {
		course := &remote[i]
		if err := r.reconcileCourse(ctx, ownerID, course, result); err != nil {
			recordSyncError(result, course.ID, err)
			if classroom.IsAuth(err) || classroom.IsRateLimited(err) {
				result.Aborted = true
				logging.Ctx(ctx).Warn().
					Str("course_external_id", course.ID).
					Err(err).
					Msg("Aborting reconciliation pass")
				return result, nil
			}
			logging.Ctx(ctx).Error().
				Str("course_external_id", course.ID).
				Err(err).
				Msg("Course reconciliation failed; continuing with remaining courses")
		}
	}
	return result, nil
}

// SyncCourse reconciles exactly one course by its platform ID.
func (r *Reconciler) SyncCourse(ctx context.Context, ownerID, externalID string) (*models.SyncResult, error) {
	result := &models.SyncResult{}

	var course *models.RemoteCourse
	err := r.retry.Do(ctx, "courses.get", func() error {
		var getErr error
		course, getErr = r.callGetCourse(ctx, ownerID, externalID)
		return getErr
	})
	if err != nil {
		result.Aborted = classroom.IsAuth(err) || classroom.IsRateLimited(err)
		recordSyncError(result, externalID, err)
		return result, fmt.Errorf("course fetch failed: %w", err)
	}

	if err := r.reconcileCourse(ctx, ownerID, course, result); err != nil {
		result.Aborted = classroom.IsAuth(err) || classroom.IsRateLimited(err)
		recordSyncError(result, externalID, err)
	}
	return result, nil
}

// SyncCourses reconciles a chosen subset of courses, isolating failures
// the same way a full pass does.
func (r *Reconciler) SyncCourses(ctx context.Context, ownerID string, externalIDs []string) (*models.SyncResult, error) {
	result := &models.SyncResult{}
	for _, externalID := range externalIDs {
		one, err := r.SyncCourse(ctx, ownerID, externalID)
		result.Merge(*one)
		if one.Aborted {
			result.Aborted = true
			return result, nil
		}
		if err != nil {
			logging.Ctx(ctx).Error().
				Str("course_external_id", externalID).
				Err(err).
				Msg("Selective sync: course failed; continuing")
		}
	}
	return result, nil
}

// reconcileCourse upserts the course mirror and then every coursework
// item inside it. Course before coursework: an assignment must never
// reference a course row that does not exist yet.
func (r *Reconciler) reconcileCourse(ctx context.Context, ownerID string, remote *models.RemoteCourse, result *models.SyncResult) error {
	course, created, err := r.store.UpsertCourseByExternalID(ctx, ownerID, remote.ID, database.CourseFields{
		Title:       remote.Name,
		Description: remote.Description,
		Instructor:  remote.TeacherName,
	})
	if err != nil {
		return fmt.Errorf("course upsert failed: %w", err)
	}
	result.CoursesSynced++
	if created {
		result.CoursesCreated++
	}
	metrics.SyncCoursesUpserted.WithLabelValues(fmt.Sprintf("%t", created)).Inc()

	var work []models.RemoteCoursework
	err = r.retry.Do(ctx, "coursework.list", func() error {
		var listErr error
		work, listErr = r.callListCoursework(ctx, ownerID, remote.ID)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("coursework listing failed: %w", err)
	}

	for i := range work {
		if err := r.reconcileCoursework(ctx, ownerID, course.ID, remote.ID, &work[i], result); err != nil {
			if classroom.IsAuth(err) || classroom.IsRateLimited(err) {
				return err
			}
			recordSyncError(result, remote.ID, err)
			logging.Ctx(ctx).Error().
				Str("course_external_id", remote.ID).
				Str("coursework_external_id", work[i].ID).
				Err(err).
				Msg("Coursework reconciliation failed; continuing")
		}
	}
	return nil
}

// reconcileCoursework resolves the owner's submission state and upserts
// one assignment mirror.
func (r *Reconciler) reconcileCoursework(ctx context.Context, ownerID, courseID, courseExternalID string, work *models.RemoteCoursework, result *models.SyncResult) error {
	var state models.SubmissionState
	err := r.retry.Do(ctx, "submissions.state", func() error {
		var stateErr error
		state, stateErr = r.callGetSubmissionState(ctx, ownerID, courseExternalID, work.ID)
		return stateErr
	})
	if err != nil {
		return fmt.Errorf("submission state fetch failed: %w", err)
	}

	dueAt := work.DueAt()
	_, created, err := r.store.UpsertAssignmentByExternalID(ctx, ownerID, work.ID, database.AssignmentFields{
		CourseID:    courseID,
		Title:       work.Title,
		Description: work.Description,
		DueAt:       dueAt,
		Status:      r.status.Resolve(state, dueAt),
	})
	if err != nil {
		return fmt.Errorf("assignment upsert failed: %w", err)
	}
	result.AssignmentsSynced++
	if created {
		result.AssignmentsCreated++
	}
	metrics.SyncAssignmentsUpserted.WithLabelValues(fmt.Sprintf("%t", created)).Inc()
	return nil
}

// filterCourseWindow drops remote courses created before the configured
// trailing window, keeping two kinds regardless: courses without a
// parseable creation time (cannot prove they are stale) and courses
// already mirrored locally (an existing mirror must keep receiving
// updates no matter its age).
func (r *Reconciler) filterCourseWindow(ctx context.Context, ownerID string, remote []models.RemoteCourse) []models.RemoteCourse {
	if r.cfg.CourseWindow <= 0 {
		return remote
	}

	mirrored, err := r.store.MirrorExternalIDs(ctx, ownerID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Msg("Could not load mirrored course ids; skipping window filter")
		return remote
	}

	cutoff := time.Now().UTC().Add(-r.cfg.CourseWindow)
	kept := remote[:0]
	for _, course := range remote {
		if _, ok := mirrored[course.ID]; ok {
			kept = append(kept, course)
			continue
		}
		createdAt, ok := course.CreatedAt()
		if !ok || createdAt.After(cutoff) {
			kept = append(kept, course)
		}
	}
	return kept
}

// listCourses wraps the client call with a per-call timeout.
func (r *Reconciler) listCourses(ctx context.Context, ownerID string) ([]models.RemoteCourse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.client.ListCourses(ctx, ownerID, activeCourseStates)
}

func (r *Reconciler) callGetCourse(ctx context.Context, ownerID, externalID string) (*models.RemoteCourse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.client.GetCourse(ctx, ownerID, externalID)
}

func (r *Reconciler) callListCoursework(ctx context.Context, ownerID, courseExternalID string) ([]models.RemoteCoursework, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.client.ListCoursework(ctx, ownerID, courseExternalID)
}

func (r *Reconciler) callGetSubmissionState(ctx context.Context, ownerID, courseExternalID, courseworkExternalID string) (models.SubmissionState, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.client.GetSubmissionState(ctx, ownerID, courseExternalID, courseworkExternalID)
}

// recordSyncError appends a structured error to the result and counts it.
func recordSyncError(result *models.SyncResult, courseExternalID string, err error) {
	kind, _ := classroom.KindOf(err)
	if kind == "" {
		kind = classroom.KindTransient
	}
	metrics.SyncErrors.WithLabelValues(string(kind)).Inc()

	code := "sync_failed"
	var re *classroom.RemoteError
	if errors.As(err, &re) {
		code = re.Code
	}
	result.Errors = append(result.Errors, models.SyncError{
		CourseExternalID: courseExternalID,
		Code:             code,
		Message:          err.Error(),
	})
}
