// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/coursebridge/coursebridge/internal/models"
)

// ReplaceScheduleEntries swaps the full schedule of a course atomically.
// Entries without an ID get one assigned. The schedule is user-owned even
// on mirror courses, so the reconciler never calls this.
func (db *DB) ReplaceScheduleEntries(ctx context.Context, courseID string, entries []models.ScheduleEntry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schedule transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to clear schedule for course %s: %w", courseID, err)
	}

	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_entries (id, course_id, day_of_week, start_time, end_time, location, source, is_default_placeholder)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, courseID, e.DayOfWeek, e.StartTime, e.EndTime, e.Location, string(e.Source), e.IsDefaultPlaceholder)
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry: %w", err)
		}
	}

	return tx.Commit()
}

// attachScheduleEntries loads schedule entries for the given courses in one
// query and attaches them in (day_of_week, start_time) order.
func (db *DB) attachScheduleEntries(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Course, len(courses))
	placeholders := make([]string, 0, len(courses))
	args := make([]interface{}, 0, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
		placeholders = append(placeholders, "?")
		args = append(args, c.ID)
	}

	query := fmt.Sprintf(
		`SELECT id, course_id, day_of_week, start_time, end_time, location, source, is_default_placeholder
		 FROM schedule_entries WHERE course_id IN (%s)
		 ORDER BY day_of_week, start_time`, strings.Join(placeholders, ", "))

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load schedule entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e models.ScheduleEntry
		var source string
		if err := rows.Scan(&e.ID, &e.CourseID, &e.DayOfWeek, &e.StartTime, &e.EndTime,
			&e.Location, &source, &e.IsDefaultPlaceholder); err != nil {
			return fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.Source = models.ScheduleSource(source)
		if course, ok := byID[e.CourseID]; ok {
			course.ScheduleEntries = append(course.ScheduleEntries, e)
		}
	}
	return rows.Err()
}
