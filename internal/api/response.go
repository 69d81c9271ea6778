// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/middleware"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20 // 1MB

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Status   string      `json:"status"` // "ok" or "error"
	Data     interface{} `json:"data,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// APIError carries a stable machine-readable code plus a human message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Metadata is attached to every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// respondJSON writes the envelope with the given status code.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, &APIResponse{Status: "ok", Data: data})
}

// respondError writes an error envelope. err, when non-nil, is logged but
// never leaked to the client beyond the supplied message.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	writeEnvelope(w, r, status, &APIResponse{
		Status: "error",
		Error:  &APIError{Code: code, Message: message, Details: details},
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, response *APIResponse) {
	response.Metadata = Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// decodeJSON reads a bounded JSON body into dst. A false return means the
// error response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", "Could not read request body", nil)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", nil)
		return false
	}
	return true
}
