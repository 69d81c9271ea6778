// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"fmt"

	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/models"
)

// CodeMirrorReadOnly is the stable error code returned when a local write
// targets platform-owned fields of a mirror row.
const CodeMirrorReadOnly = "classroom_mirror_readonly"

// GuardError rejects a local mutation of a mirrored record.
type GuardError struct {
	Code  string
	Field string
}

func (e *GuardError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("mirrored record is read-only (field %q is platform-owned)", e.Field)
	}
	return "mirrored record is read-only"
}

// courseScheduleFields are the only course fields a user may change on a
// mirror. Everything else is owned by the platform and overwritten on the
// next reconciliation pass anyway.
var courseScheduleFields = map[string]bool{
	"schedule_entries": true,
}

// MirrorGuard decides whether a local mutation may touch a record. All
// local write paths consult it before hitting the store; the reconciler
// bypasses it because reconciliation writes are platform-owned by
// definition.
type MirrorGuard struct{}

// NewMirrorGuard returns the shared guard.
func NewMirrorGuard() *MirrorGuard {
	return &MirrorGuard{}
}

// AuthorizeCourseUpdate checks a course update touching the named fields.
// Local courses are freely mutable. On a mirror, only schedule fields
// pass.
func (g *MirrorGuard) AuthorizeCourseUpdate(course *models.Course, fields []string) error {
	if !course.IsMirror {
		return nil
	}
	for _, f := range fields {
		if !courseScheduleFields[f] {
			return &GuardError{Code: CodeMirrorReadOnly, Field: f}
		}
	}
	return nil
}

// AuthorizeCourseDelete checks a course deletion. Deleting a mirror
// locally is refused: the platform still owns the course and the next
// pass would resurrect it. Mirrors leave through the pruner.
func (g *MirrorGuard) AuthorizeCourseDelete(course *models.Course) error {
	if course.IsMirror {
		return &GuardError{Code: CodeMirrorReadOnly}
	}
	return nil
}

// AuthorizeAssignmentUpdate checks an assignment update touching the named
// fields. Mirrored assignments are fully platform-owned: every field,
// completion status included, comes from the remote submission state, so
// no local mutation passes. Deletion is the one exception.
func (g *MirrorGuard) AuthorizeAssignmentUpdate(a *models.Assignment, fields []string) error {
	if !a.IsMirror {
		return nil
	}
	field := ""
	if len(fields) > 0 {
		field = fields[0]
	}
	return &GuardError{Code: CodeMirrorReadOnly, Field: field}
}

// AuthorizeAssignmentDelete checks an assignment deletion. Deleting a
// mirrored assignment is permitted but logged: the platform may recreate
// it on the next pass, and the warning leaves an audit trail of who asked.
func (g *MirrorGuard) AuthorizeAssignmentDelete(a *models.Assignment) error {
	if a.IsMirror {
		externalID := ""
		if a.ExternalID != nil {
			externalID = *a.ExternalID
		}
		logging.Warn().
			Str("assignment_id", a.ID).
			Str("external_id", externalID).
			Str("owner_id", a.OwnerID).
			Msg("Deleting mirrored assignment; next reconciliation pass may recreate it")
	}
	return nil
}
