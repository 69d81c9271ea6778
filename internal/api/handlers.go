// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"context"
	"net/http"

	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/query"
	"github.com/coursebridge/coursebridge/internal/snapshot"
	syncpkg "github.com/coursebridge/coursebridge/internal/sync"
	"github.com/coursebridge/coursebridge/internal/validation"
)

// ownerHeader carries the caller's owner identity. Every /api/v1 route
// requires it; rows are scoped to the owner and never cross over.
const ownerHeader = "X-Owner-ID"

type ownerContextKey struct{}

// Handlers holds the services the HTTP layer delegates to. Handlers stay
// thin: decode, validate, call one service, map the error, encode.
type Handlers struct {
	db           *database.DB
	orchestrator *syncpkg.Orchestrator
	pruner       *syncpkg.Pruner
	query        *query.Service
	snapshots    *snapshot.Service
	guard        *syncpkg.MirrorGuard
}

// NewHandlers wires the handler set.
func NewHandlers(
	db *database.DB,
	orchestrator *syncpkg.Orchestrator,
	pruner *syncpkg.Pruner,
	querySvc *query.Service,
	snapshots *snapshot.Service,
) *Handlers {
	return &Handlers{
		db:           db,
		orchestrator: orchestrator,
		pruner:       pruner,
		query:        querySvc,
		snapshots:    snapshots,
		guard:        syncpkg.NewMirrorGuard(),
	}
}

// RequireOwner rejects requests without an owner identity and threads the
// owner ID through the request context for handlers and logging.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(ownerHeader)
		if owner == "" {
			respondError(w, r, http.StatusBadRequest, "missing_owner",
				"The "+ownerHeader+" header is required", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ownerContextKey{}, owner)
		ctx = logging.ContextWithOwnerID(ctx, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerID returns the owner identity set by RequireOwner.
func ownerID(r *http.Request) string {
	owner, _ := r.Context().Value(ownerContextKey{}).(string)
	return owner
}

// writeValidationError converts struct-tag validation failures to the
// shared envelope.
func writeValidationError(w http.ResponseWriter, r *http.Request, ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}
