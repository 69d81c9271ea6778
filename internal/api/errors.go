// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/coursebridge/coursebridge/internal/classroom"
	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/logging"
	syncpkg "github.com/coursebridge/coursebridge/internal/sync"
)

// writeDomainError maps service-layer errors to HTTP responses with
// stable codes. Remote platform failures surface as 502 except rate
// limiting, which propagates as 429 with a Retry-After hint.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", "The requested record does not exist", nil)

	case errors.Is(err, syncpkg.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		respondError(w, r, http.StatusTooManyRequests, "sync_rate_limited",
			"Sync budget exhausted for this owner; try again later", nil)

	default:
		var guardErr *syncpkg.GuardError
		if errors.As(err, &guardErr) {
			details := map[string]interface{}{}
			if guardErr.Field != "" {
				details["field"] = guardErr.Field
			}
			respondError(w, r, http.StatusConflict, guardErr.Code, guardErr.Error(), details)
			return
		}

		var remoteErr *classroom.RemoteError
		if errors.As(err, &remoteErr) {
			writeRemoteError(w, r, remoteErr)
			return
		}

		logging.Ctx(r.Context()).Error().Err(err).Msg("Unhandled error in request")
		respondError(w, r, http.StatusInternalServerError, "internal_error",
			"An internal error occurred", nil)
	}
}

// writeRemoteError maps a classified platform failure.
func writeRemoteError(w http.ResponseWriter, r *http.Request, re *classroom.RemoteError) {
	switch re.Kind {
	case classroom.KindRateLimited:
		if re.RetryAfter > 0 {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(re.RetryAfter.Seconds())))
		} else {
			w.Header().Set("Retry-After", "60")
		}
		respondError(w, r, http.StatusTooManyRequests, re.Code,
			"The classroom platform is rate limiting requests", nil)
	case classroom.KindAuth:
		respondError(w, r, http.StatusBadGateway, re.Code,
			"The classroom platform rejected our credentials", nil)
	default:
		respondError(w, r, http.StatusBadGateway, re.Code,
			"The classroom platform request failed", nil)
	}
}
