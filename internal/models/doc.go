// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package models defines the core data structures shared across Coursebridge:
// persisted entities (Course, Assignment, ScheduleEntry, SubmissionSnapshot),
// sync bookkeeping (SyncResult, SyncError), read-side view types, and the
// wire DTOs returned by the external classroom platform.
//
// The central invariant throughout is the mirror rule: a record is a mirror
// of an externally-owned entity exactly when it carries a non-nil ExternalID.
// Mirrors are written by the reconciliation path; local records are written
// by user action. The two coexist in the same tables under different
// mutation rules enforced by the sync.MirrorGuard.
package models
