// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package sync reconciles the external classroom platform into the local
// store. The Reconciler pulls courses and coursework and upserts mirror
// rows; the Orchestrator fronts it with rate limiting, single-flight
// locking, and debounced deferred passes. Reconciliation is additive:
// nothing here ever deletes a row. Removal of vanished mirrors is the
// Pruner's job and runs only when explicitly requested.
package sync
