// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package query assembles integrated read views over the local store and
// the live platform. Listings merge persisted rows with remote entities
// not yet mirrored; a failing remote degrades the view to persisted data
// instead of failing the request. Nothing in this package writes.
package query

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/coursebridge/coursebridge/internal/cache"
	"github.com/coursebridge/coursebridge/internal/classroom"
	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/models"
	syncpkg "github.com/coursebridge/coursebridge/internal/sync"
)

// remoteListTTL bounds how stale a cached remote course listing may be.
// One page render fans out to several read endpoints; the cache keeps that
// from spending remote quota more than once.
const remoteListTTL = 30 * time.Second

// Service serves integrated course and assignment views.
type Service struct {
	db     *database.DB
	client classroom.ClientAPI
	status *syncpkg.StatusResolver
	remote *cache.TTLCache
}

// NewService wires the query service.
func NewService(db *database.DB, client classroom.ClientAPI) *Service {
	return &Service{
		db:     db,
		client: client,
		status: syncpkg.NewStatusResolver(),
		remote: cache.NewTTLCache(remoteListTTL),
	}
}

// activeRemoteCourses lists the owner's active platform courses, serving
// from the short-lived cache when possible.
func (s *Service) activeRemoteCourses(ctx context.Context, ownerID string) ([]models.RemoteCourse, error) {
	if v, ok := s.remote.Get(ownerID); ok {
		return v.([]models.RemoteCourse), nil
	}
	remote, err := s.client.ListCourses(ctx, ownerID, []string{"ACTIVE"})
	if err != nil {
		return nil, err
	}
	s.remote.Set(ownerID, remote)
	return remote, nil
}

// ListCourses merges persisted courses with active remote courses that
// have no mirror yet. Persisted rows keep their stored IDs; live-unsynced
// rows get a synthetic ID valid only for this response. With
// includeLiveUnsynced false the remote is never consulted and the listing
// is persisted rows only.
func (s *Service) ListCourses(ctx context.Context, ownerID string, includeLiveUnsynced bool) ([]models.CourseView, error) {
	persisted, err := s.db.ListCourses(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]models.CourseView, 0, len(persisted))
	mirrored := make(map[string]struct{})
	for _, c := range persisted {
		source := models.SourceLocal
		if c.IsMirror {
			source = models.SourceMirror
			mirrored[*c.ExternalID] = struct{}{}
		}
		views = append(views, models.CourseView{
			ID:              c.ID,
			ExternalID:      c.ExternalID,
			Title:           c.Title,
			Description:     c.Description,
			Instructor:      c.Instructor,
			Source:          source,
			ScheduleEntries: c.ScheduleEntries,
		})
	}

	if !includeLiveUnsynced {
		sort.SliceStable(views, func(i, j int) bool { return views[i].Title < views[j].Title })
		return views, nil
	}

	remote, err := s.activeRemoteCourses(ctx, ownerID)
	if err != nil {
		// Degrade to persisted data; the listing is still useful.
		logging.Ctx(ctx).Warn().Err(err).
			Msg("Live course listing unavailable; serving persisted courses only")
		return views, nil
	}

	for i := range remote {
		if _, ok := mirrored[remote[i].ID]; ok {
			continue
		}
		externalID := remote[i].ID
		views = append(views, models.CourseView{
			ID:          uuid.New().String(),
			ExternalID:  &externalID,
			Title:       remote[i].Name,
			Description: remote[i].Description,
			Instructor:  remote[i].TeacherName,
			Source:      models.SourceLiveUnsynced,
		})
	}

	sort.SliceStable(views, func(i, j int) bool { return views[i].Title < views[j].Title })
	return views, nil
}

// ListAssignments merges persisted assignments with live coursework from
// unmirrored courses, applying filters uniformly to both sides before the
// merge and sorting by due date with undated items last.
func (s *Service) ListAssignments(ctx context.Context, ownerID string, filters models.AssignmentFilters) ([]models.AssignmentView, error) {
	persisted, err := s.db.ListAssignments(ctx, ownerID, database.AssignmentQuery{})
	if err != nil {
		return nil, err
	}
	courseTitles, err := s.courseTitles(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]models.AssignmentView, 0, len(persisted))
	mirroredWork := make(map[string]struct{})
	for _, a := range persisted {
		source := models.SourceLocal
		if a.IsMirror {
			source = models.SourceMirror
			mirroredWork[*a.ExternalID] = struct{}{}
		}
		views = append(views, models.AssignmentView{
			ID:          a.ID,
			ExternalID:  a.ExternalID,
			CourseID:    a.CourseID,
			CourseTitle: courseTitles[a.CourseID],
			Title:       a.Title,
			DueAt:       a.DueAt,
			Status:      a.Status,
			Source:      source,
		})
	}

	views = append(views, s.liveAssignments(ctx, ownerID, mirroredWork)...)
	views = applyFilters(views, filters, time.Now().UTC())

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		switch {
		case a.DueAt == nil && b.DueAt == nil:
			return a.Title < b.Title
		case a.DueAt == nil:
			return false
		case b.DueAt == nil:
			return true
		case !a.DueAt.Equal(*b.DueAt):
			return a.DueAt.Before(*b.DueAt)
		default:
			return a.Title < b.Title
		}
	})
	return views, nil
}

// Search matches persisted courses and assignments by title substring,
// case-insensitive. Live platform data is deliberately out of scope: a
// search must be fast and must not spend remote quota.
func (s *Service) Search(ctx context.Context, ownerID, q string) (*models.SearchResult, error) {
	courses, err := s.db.SearchCourses(ctx, ownerID, q)
	if err != nil {
		return nil, err
	}
	assignments, err := s.db.SearchAssignments(ctx, ownerID, q)
	if err != nil {
		return nil, err
	}
	courseTitles, err := s.courseTitles(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := &models.SearchResult{
		Courses:     make([]models.CourseView, 0, len(courses)),
		Assignments: make([]models.AssignmentView, 0, len(assignments)),
	}
	for _, c := range courses {
		source := models.SourceLocal
		if c.IsMirror {
			source = models.SourceMirror
		}
		result.Courses = append(result.Courses, models.CourseView{
			ID:          c.ID,
			ExternalID:  c.ExternalID,
			Title:       c.Title,
			Description: c.Description,
			Instructor:  c.Instructor,
			Source:      source,
		})
	}
	for _, a := range assignments {
		source := models.SourceLocal
		if a.IsMirror {
			source = models.SourceMirror
		}
		result.Assignments = append(result.Assignments, models.AssignmentView{
			ID:          a.ID,
			ExternalID:  a.ExternalID,
			CourseID:    a.CourseID,
			CourseTitle: courseTitles[a.CourseID],
			Title:       a.Title,
			DueAt:       a.DueAt,
			Status:      a.Status,
			Source:      source,
		})
	}
	return result, nil
}

// Summary aggregates persisted counts for one owner.
func (s *Service) Summary(ctx context.Context, ownerID string) (*models.CourseSummary, error) {
	return s.db.CourseSummary(ctx, ownerID, time.Now().UTC())
}

// liveAssignments lists coursework from active remote courses that are
// not mirrored yet. Remote failures degrade to an empty contribution;
// per-course failures skip just that course.
func (s *Service) liveAssignments(ctx context.Context, ownerID string, mirroredWork map[string]struct{}) []models.AssignmentView {
	mirroredCourses, err := s.db.MirrorExternalIDs(ctx, ownerID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Mirror index unavailable; skipping live coursework")
		return nil
	}
	remote, err := s.activeRemoteCourses(ctx, ownerID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Live course listing unavailable; skipping live coursework")
		return nil
	}

	var views []models.AssignmentView
	for i := range remote {
		course := &remote[i]
		if _, ok := mirroredCourses[course.ID]; ok {
			continue
		}
		work, err := s.client.ListCoursework(ctx, ownerID, course.ID)
		if err != nil {
			logging.Ctx(ctx).Warn().
				Str("course_external_id", course.ID).
				Err(err).
				Msg("Live coursework listing failed; skipping course")
			continue
		}
		for j := range work {
			if _, ok := mirroredWork[work[j].ID]; ok {
				continue
			}
			externalID := work[j].ID
			dueAt := work[j].DueAt()
			state, err := s.client.GetSubmissionState(ctx, ownerID, course.ID, work[j].ID)
			if err != nil {
				// Status falls back to due-date-only resolution.
				state = models.SubmissionStateNew
			}
			views = append(views, models.AssignmentView{
				ID:          uuid.New().String(),
				ExternalID:  &externalID,
				CourseTitle: course.Name,
				Title:       work[j].Title,
				DueAt:       dueAt,
				Status:      s.status.Resolve(state, dueAt),
				Source:      models.SourceLiveUnsynced,
			})
		}
	}
	return views
}

// courseTitles maps persisted course IDs to titles for display.
func (s *Service) courseTitles(ctx context.Context, ownerID string) (map[string]string, error) {
	courses, err := s.db.ListCourses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(courses))
	for _, c := range courses {
		titles[c.ID] = c.Title
	}
	return titles, nil
}

// applyFilters applies status and due-window filters to a merged view
// list. Filters see persisted and live items identically.
func applyFilters(views []models.AssignmentView, filters models.AssignmentFilters, now time.Time) []models.AssignmentView {
	if filters.Status == "" && filters.DueWithinDays == 0 {
		return views
	}

	var horizon time.Time
	if filters.DueWithinDays > 0 {
		horizon = now.Add(time.Duration(filters.DueWithinDays) * 24 * time.Hour)
	}

	kept := views[:0]
	for _, v := range views {
		if filters.Status != "" && v.Status != filters.Status {
			continue
		}
		if filters.DueWithinDays > 0 {
			if v.DueAt == nil || v.DueAt.After(horizon) || v.DueAt.Before(now) {
				continue
			}
		}
		kept = append(kept, v)
	}
	return kept
}
