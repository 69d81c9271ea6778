// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/middleware"
)

// NewRouter builds the full HTTP surface: health and metrics outside the
// owner-scoped API, everything else under /api/v1 behind RequireOwner.
func NewRouter(h *Handlers, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", ownerHeader},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.HTTPRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.HTTPRateLimit, time.Minute))
		}
		r.Use(middleware.PrometheusMetrics)
		r.Use(RequireOwner)

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", h.FullSync)
			r.Post("/courses/{externalID}", h.SingleCourseSync)
			r.Post("/selective", h.SelectiveSync)
			r.Post("/trigger/{externalID}", h.TriggerSync)
			r.Post("/prune", h.Prune)
			r.Get("/status", h.SyncStatus)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", h.ListCourses)
			r.Post("/", h.CreateCourse)
			r.Get("/{id}", h.GetCourse)
			r.Patch("/{id}", h.UpdateCourse)
			r.Delete("/{id}", h.DeleteCourse)
			r.Put("/{id}/schedule", h.ReplaceSchedule)
			r.Post("/{id}/assignments", h.CreateAssignment)
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.ListAssignments)
			r.Get("/{id}", h.GetAssignment)
			r.Patch("/{id}", h.UpdateAssignment)
			r.Put("/{id}/status", h.SetAssignmentStatus)
			r.Delete("/{id}", h.DeleteAssignment)
		})

		r.Get("/search", h.Search)
		r.Get("/summary", h.Summary)
		r.Get("/snapshots/{courseExternalID}/{assignmentExternalID}", h.GetSnapshot)
	})

	return r
}
