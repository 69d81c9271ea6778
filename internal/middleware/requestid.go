// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package middleware holds the HTTP middleware shared by the API router:
// request ID propagation and Prometheus instrumentation. Rate limiting
// and CORS come from go-chi's ecosystem and are wired in the router.
package middleware

import (
	"context"
	"net/http"

	"github.com/coursebridge/coursebridge/internal/logging"
)

type contextKey string

// RequestIDKey carries the request ID in the request context.
const RequestIDKey contextKey = "request_id"

// RequestID assigns each request an ID, honoring one supplied by an
// upstream proxy, and threads it through the response header and the
// logging context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from a context, empty if unset.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
