// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package database

import "fmt"

// initSchema creates all tables and indexes if they do not exist.
//
// external_id is nullable on courses and assignments; the UNIQUE constraint
// on (owner_id, external_id) only bites for non-null external ids, which is
// exactly the mirror idempotency key. Local rows (external_id NULL) are
// unconstrained by it.
func (db *DB) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id VARCHAR PRIMARY KEY,
			owner_id VARCHAR NOT NULL,
			external_id VARCHAR,
			title VARCHAR NOT NULL,
			description VARCHAR NOT NULL DEFAULT '',
			instructor VARCHAR NOT NULL DEFAULT '',
			is_mirror BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (owner_id, external_id)
		)`,

		`CREATE TABLE IF NOT EXISTS assignments (
			id VARCHAR PRIMARY KEY,
			owner_id VARCHAR NOT NULL,
			external_id VARCHAR,
			course_id VARCHAR NOT NULL,
			title VARCHAR NOT NULL,
			description VARCHAR NOT NULL DEFAULT '',
			due_at TIMESTAMP,
			status VARCHAR NOT NULL,
			is_mirror BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (owner_id, external_id)
		)`,

		`CREATE TABLE IF NOT EXISTS schedule_entries (
			id VARCHAR PRIMARY KEY,
			course_id VARCHAR NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time VARCHAR NOT NULL,
			end_time VARCHAR NOT NULL,
			location VARCHAR NOT NULL DEFAULT '',
			source VARCHAR NOT NULL,
			is_default_placeholder BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		`CREATE TABLE IF NOT EXISTS submission_snapshots (
			owner_id VARCHAR NOT NULL,
			course_external_id VARCHAR NOT NULL,
			assignment_external_id VARCHAR NOT NULL,
			turned_in_count INTEGER NOT NULL,
			returned_count INTEGER NOT NULL,
			assigned_count INTEGER NOT NULL,
			roster VARCHAR NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			PRIMARY KEY (owner_id, course_external_id, assignment_external_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_courses_owner ON courses(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_owner ON assignments(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_course ON assignments(course_id)`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_course ON schedule_entries(course_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_expiry ON submission_snapshots(expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
