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

// AssignmentFields carries the externally-owned fields of an assignment,
// written by the reconciliation path.
type AssignmentFields struct {
	CourseID    string
	Title       string
	Description string
	DueAt       *time.Time
	Status      models.AssignmentStatus
}

// UpsertAssignmentByExternalID inserts or updates the mirror row keyed by
// (ownerID, externalID) and reports whether a new row was created. Same
// transaction shape as the course upsert.
func (db *DB) UpsertAssignmentByExternalID(ctx context.Context, ownerID, externalID string, fields AssignmentFields) (*models.Assignment, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM assignments WHERE owner_id = ? AND external_id = ?`,
		ownerID, externalID).Scan(&id)

	created := false
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE assignments SET course_id = ?, title = ?, description = ?, due_at = ?, status = ?, updated_at = ?
			 WHERE id = ?`,
			fields.CourseID, fields.Title, fields.Description, nullableTime(fields.DueAt),
			string(fields.Status), now, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update assignment mirror %s: %w", externalID, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		created = true
		id = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO assignments (id, owner_id, external_id, course_id, title, description, due_at, status, is_mirror, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?, ?)`,
			id, ownerID, externalID, fields.CourseID, fields.Title, fields.Description,
			nullableTime(fields.DueAt), string(fields.Status), now, now)
		if err != nil {
			return nil, false, fmt.Errorf("failed to insert assignment mirror %s: %w", externalID, err)
		}
	default:
		return nil, false, fmt.Errorf("failed to look up assignment mirror %s: %w", externalID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit assignment upsert: %w", err)
	}

	a, err := db.GetAssignment(ctx, ownerID, id)
	if err != nil {
		return nil, false, err
	}
	return a, created, nil
}

// CreateAssignment inserts a fully-formed assignment row.
func (db *DB) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO assignments (id, owner_id, external_id, course_id, title, description, due_at, status, is_mirror, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, nullableString(a.ExternalID), a.CourseID, a.Title, a.Description,
		nullableTime(a.DueAt), string(a.Status), a.IsMirror, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// GetAssignment fetches one assignment row.
func (db *DB) GetAssignment(ctx context.Context, ownerID, id string) (*models.Assignment, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, external_id, course_id, title, description, due_at, status, is_mirror, created_at, updated_at
		 FROM assignments WHERE owner_id = ? AND id = ?`, ownerID, id)
	return scanAssignment(row)
}

// AssignmentQuery narrows ListAssignments. Zero values mean no filtering.
type AssignmentQuery struct {
	CourseID string
	Status   models.AssignmentStatus
	DueBy    *time.Time
}

// ListAssignments returns assignments for an owner ordered by due date
// (nulls last), applying the optional filters.
func (db *DB) ListAssignments(ctx context.Context, ownerID string, q AssignmentQuery) ([]models.Assignment, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, owner_id, external_id, course_id, title, description, due_at, status, is_mirror, created_at, updated_at
		 FROM assignments WHERE owner_id = ?`)
	args := []interface{}{ownerID}

	if q.CourseID != "" {
		sb.WriteString(` AND course_id = ?`)
		args = append(args, q.CourseID)
	}
	if q.Status != "" {
		sb.WriteString(` AND status = ?`)
		args = append(args, string(q.Status))
	}
	if q.DueBy != nil {
		sb.WriteString(` AND due_at IS NOT NULL AND due_at <= ?`)
		args = append(args, q.DueBy.UTC())
	}
	sb.WriteString(` ORDER BY due_at IS NULL, due_at, title, id`)

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectAssignments(rows)
}

// UpdateAssignmentInfo updates the descriptive fields of a local
// assignment through the local mutation path.
func (db *DB) UpdateAssignmentInfo(ctx context.Context, ownerID, id string, fields AssignmentFields) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE assignments SET title = ?, description = ?, due_at = ?, status = ?, updated_at = ?
		 WHERE owner_id = ? AND id = ?`,
		fields.Title, fields.Description, nullableTime(fields.DueAt), string(fields.Status),
		time.Now().UTC(), ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to update assignment %s: %w", id, err)
	}
	return requireRowAffected(result)
}

// SetAssignmentStatus updates only the status column. Callers gate this
// behind the mirror guard: on mirrored rows the status is derived from
// the remote submission state during reconciliation instead.
func (db *DB) SetAssignmentStatus(ctx context.Context, ownerID, id string, status models.AssignmentStatus) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE assignments SET status = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		string(status), time.Now().UTC(), ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to set assignment status: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteAssignment removes one assignment row.
func (db *DB) DeleteAssignment(ctx context.Context, ownerID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM assignments WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", id, err)
	}
	return requireRowAffected(result)
}

// AssignmentExternalIDs returns the set of external assignment IDs already
// mirrored for one course.
func (db *DB) AssignmentExternalIDs(ctx context.Context, ownerID, courseID string) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT external_id FROM assignments WHERE owner_id = ? AND course_id = ? AND external_id IS NOT NULL`,
		ownerID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment external ids: %w", err)
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

// SearchAssignments matches persisted assignment titles case-insensitively.
func (db *DB) SearchAssignments(ctx context.Context, ownerID, query string) ([]models.Assignment, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, external_id, course_id, title, description, due_at, status, is_mirror, created_at, updated_at
		 FROM assignments WHERE owner_id = ? AND lower(title) LIKE ?
		 ORDER BY due_at IS NULL, due_at, title, id`,
		ownerID, pattern)
	if err != nil {
		return nil, fmt.Errorf("assignment search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]models.Assignment, error) {
	var assignments []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assignment listing failed: %w", err)
	}
	return assignments, nil
}

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	var a models.Assignment
	var externalID sql.NullString
	var dueAt sql.NullTime
	var status string
	err := row.Scan(&a.ID, &a.OwnerID, &externalID, &a.CourseID, &a.Title, &a.Description,
		&dueAt, &status, &a.IsMirror, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	a.ExternalID = scanNullString(externalID)
	a.DueAt = scanNullTime(dueAt)
	a.Status = models.AssignmentStatus(status)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
