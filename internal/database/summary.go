// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/coursebridge/coursebridge/internal/models"
)

// CourseSummary aggregates persisted counts for one owner in two queries.
func (db *DB) CourseSummary(ctx context.Context, ownerID string, now time.Time) (*models.CourseSummary, error) {
	var s models.CourseSummary

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE external_id IS NULL),
		        COUNT(*) FILTER (WHERE external_id IS NOT NULL)
		 FROM courses WHERE owner_id = ?`, ownerID).
		Scan(&s.TotalCourses, &s.LocalCourses, &s.MirrorCourses)
	if err != nil {
		return nil, fmt.Errorf("course summary failed: %w", err)
	}

	weekOut := now.UTC().Add(7 * 24 * time.Hour)
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE status = 'completed'),
		        COUNT(*) FILTER (WHERE status = 'overdue'),
		        COUNT(*) FILTER (WHERE status = 'pending' AND due_at IS NOT NULL AND due_at <= ?)
		 FROM assignments WHERE owner_id = ?`, weekOut, ownerID).
		Scan(&s.TotalAssignments, &s.PendingAssignments, &s.CompletedAssignments,
			&s.OverdueAssignments, &s.DueWithinWeek)
	if err != nil {
		return nil, fmt.Errorf("assignment summary failed: %w", err)
	}

	return &s, nil
}
