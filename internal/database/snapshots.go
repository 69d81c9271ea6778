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
	"time"

	"github.com/goccy/go-json"

	"github.com/coursebridge/coursebridge/internal/models"
)

// GetSnapshot returns a still-valid snapshot for the key, or ErrNotFound.
// An expired row is purged on the way out (lazy deletion); the periodic
// sweeper handles rows nobody reads.
func (db *DB) GetSnapshot(ctx context.Context, ownerID, courseExternalID, assignmentExternalID string) (*models.SubmissionSnapshot, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT owner_id, course_external_id, assignment_external_id,
		        turned_in_count, returned_count, assigned_count, roster, created_at, expires_at
		 FROM submission_snapshots
		 WHERE owner_id = ? AND course_external_id = ? AND assignment_external_id = ?`,
		ownerID, courseExternalID, assignmentExternalID)

	var s models.SubmissionSnapshot
	var roster string
	err := row.Scan(&s.OwnerID, &s.CourseExternalID, &s.AssignmentExternalID,
		&s.TurnedInCount, &s.ReturnedCount, &s.AssignedCount, &roster, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()

	if !s.Valid(time.Now().UTC()) {
		_, _ = db.conn.ExecContext(ctx,
			`DELETE FROM submission_snapshots
			 WHERE owner_id = ? AND course_external_id = ? AND assignment_external_id = ?`,
			ownerID, courseExternalID, assignmentExternalID)
		return nil, ErrNotFound
	}

	if err := json.Unmarshal([]byte(roster), &s.Roster); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot roster: %w", err)
	}
	return &s, nil
}

// PutSnapshot stores a snapshot, replacing any previous row for the key.
func (db *DB) PutSnapshot(ctx context.Context, s *models.SubmissionSnapshot) error {
	roster, err := json.Marshal(s.Roster)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot roster: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM submission_snapshots
		 WHERE owner_id = ? AND course_external_id = ? AND assignment_external_id = ?`,
		s.OwnerID, s.CourseExternalID, s.AssignmentExternalID)
	if err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submission_snapshots
		 (owner_id, course_external_id, assignment_external_id,
		  turned_in_count, returned_count, assigned_count, roster, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.OwnerID, s.CourseExternalID, s.AssignmentExternalID,
		s.TurnedInCount, s.ReturnedCount, s.AssignedCount, string(roster),
		s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return tx.Commit()
}

// SweepExpiredSnapshots deletes all snapshots past their expiry and
// returns how many rows were removed.
func (db *DB) SweepExpiredSnapshots(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM submission_snapshots WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("snapshot sweep failed: %w", err)
	}
	return result.RowsAffected()
}
