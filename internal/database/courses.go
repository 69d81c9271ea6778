// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coursebridge/coursebridge/internal/models"
)

// CourseFields carries the externally-owned (mirror) fields of a course.
// These are the only fields the reconciliation path writes on update.
type CourseFields struct {
	Title       string
	Description string
	Instructor  string
}

// UpsertCourseByExternalID inserts or updates the mirror row keyed by
// (ownerID, externalID) and reports whether a new row was created.
//
// The insert-or-update runs in one transaction; the UNIQUE constraint on
// (owner_id, external_id) backs it up against races. Only mirror fields
// are touched on update, so a user's local schedule entries survive every
// reconciliation pass.
func (db *DB) UpsertCourseByExternalID(ctx context.Context, ownerID, externalID string, fields CourseFields) (*models.Course, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM courses WHERE owner_id = ? AND external_id = ?`,
		ownerID, externalID).Scan(&id)

	created := false
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE courses SET title = ?, description = ?, instructor = ?, updated_at = ? WHERE id = ?`,
			fields.Title, fields.Description, fields.Instructor, now, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update course mirror %s: %w", externalID, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		created = true
		id = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO courses (id, owner_id, external_id, title, description, instructor, is_mirror, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, TRUE, ?, ?)`,
			id, ownerID, externalID, fields.Title, fields.Description, fields.Instructor, now, now)
		if err != nil {
			return nil, false, fmt.Errorf("failed to insert course mirror %s: %w", externalID, err)
		}
	default:
		return nil, false, fmt.Errorf("failed to look up course mirror %s: %w", externalID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit course upsert: %w", err)
	}

	course, err := db.GetCourse(ctx, ownerID, id)
	if err != nil {
		return nil, false, err
	}
	return course, created, nil
}

// CreateCourse inserts a fully-formed course row. Used by the local
// creation path; the caller owns invariant checks.
func (db *DB) CreateCourse(ctx context.Context, c *models.Course) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO courses (id, owner_id, external_id, title, description, instructor, is_mirror, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, nullableString(c.ExternalID), c.Title, c.Description, c.Instructor,
		c.IsMirror, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// GetCourse fetches one course with its schedule entries.
func (db *DB) GetCourse(ctx context.Context, ownerID, id string) (*models.Course, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, external_id, title, description, instructor, is_mirror, created_at, updated_at
		 FROM courses WHERE owner_id = ? AND id = ?`, ownerID, id)

	course, err := scanCourse(row)
	if err != nil {
		return nil, err
	}
	if err := db.attachScheduleEntries(ctx, []*models.Course{course}); err != nil {
		return nil, err
	}
	return course, nil
}

// GetCourseByExternalID fetches one mirror course by its platform ID.
func (db *DB) GetCourseByExternalID(ctx context.Context, ownerID, externalID string) (*models.Course, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, external_id, title, description, instructor, is_mirror, created_at, updated_at
		 FROM courses WHERE owner_id = ? AND external_id = ?`, ownerID, externalID)

	course, err := scanCourse(row)
	if err != nil {
		return nil, err
	}
	if err := db.attachScheduleEntries(ctx, []*models.Course{course}); err != nil {
		return nil, err
	}
	return course, nil
}

// ListCourses returns all courses for an owner, schedule entries attached,
// ordered by title for stable listings.
func (db *DB) ListCourses(ctx context.Context, ownerID string) ([]models.Course, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, external_id, title, description, instructor, is_mirror, created_at, updated_at
		 FROM courses WHERE owner_id = ? ORDER BY title, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("course listing failed: %w", err)
	}

	// Pointers must be taken only after the slice has stopped growing;
	// append may move the backing array out from under them.
	refs := make([]*models.Course, len(courses))
	for i := range courses {
		refs[i] = &courses[i]
	}
	if err := db.attachScheduleEntries(ctx, refs); err != nil {
		return nil, err
	}
	return courses, nil
}

// UpdateCourseInfo updates the descriptive fields of a course through the
// local mutation path. The MirrorGuard must have authorized this write.
func (db *DB) UpdateCourseInfo(ctx context.Context, ownerID, id string, fields CourseFields) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE courses SET title = ?, description = ?, instructor = ?, updated_at = ?
		 WHERE owner_id = ? AND id = ?`,
		fields.Title, fields.Description, fields.Instructor, time.Now().UTC(), ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to update course %s: %w", id, err)
	}
	return requireRowAffected(result)
}

// DeleteCourse removes a course with its schedule entries and assignments.
func (db *DB) DeleteCourse(ctx context.Context, ownerID, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE course_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete schedule entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE owner_id = ? AND course_id = ?`, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete course %s: %w", id, err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}
	return tx.Commit()
}

// MirrorExternalIDs returns the set of external course IDs already
// mirrored for an owner. Used for the read-side set difference against a
// live remote listing.
func (db *DB) MirrorExternalIDs(ctx context.Context, ownerID string) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT external_id FROM courses WHERE owner_id = ? AND external_id IS NOT NULL`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirror external ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// PruneMirrorCourses deletes mirror courses (with their assignments and
// schedule entries) whose external ID is absent from keep. Only the
// explicit prune operation calls this; reconciliation never deletes.
func (db *DB) PruneMirrorCourses(ctx context.Context, ownerID string, keep map[string]struct{}) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, external_id FROM courses WHERE owner_id = ? AND external_id IS NOT NULL`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirror courses for prune: %w", err)
	}

	type doomed struct{ id, externalID string }
	var victims []doomed
	for rows.Next() {
		var d doomed
		if err := rows.Scan(&d.id, &d.externalID); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if _, ok := keep[d.externalID]; !ok {
			victims = append(victims, d)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(victims))
	for _, v := range victims {
		if err := db.DeleteCourse(ctx, ownerID, v.id); err != nil {
			return removed, fmt.Errorf("failed to prune mirror course %s: %w", v.externalID, err)
		}
		removed = append(removed, v.externalID)
	}
	return removed, nil
}

// SearchCourses matches persisted course titles case-insensitively.
func (db *DB) SearchCourses(ctx context.Context, ownerID, query string) ([]models.Course, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, external_id, title, description, instructor, is_mirror, created_at, updated_at
		 FROM courses WHERE owner_id = ? AND lower(title) LIKE ? ORDER BY title, id`,
		ownerID, pattern)
	if err != nil {
		return nil, fmt.Errorf("course search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCourse scans one course row.
func scanCourse(row rowScanner) (*models.Course, error) {
	var c models.Course
	var externalID sql.NullString
	err := row.Scan(&c.ID, &c.OwnerID, &externalID, &c.Title, &c.Description,
		&c.Instructor, &c.IsMirror, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	c.ExternalID = scanNullString(externalID)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// requireRowAffected converts a zero-row update/delete into ErrNotFound.
func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
