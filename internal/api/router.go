// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/afritable/internal/middleware"
)

// NewRouter wires every route.
func NewRouter(h *Handler, cfg MiddlewareConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(cfg))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/ws", h.WebSocket)

		r.Route("/admin", func(r chi.Router) {
			r.Use(rateLimit(cfg))
			r.Use(chimiddleware.Compress(5, "application/json"))

			r.Post("/enhancement/restaurants/{id}", h.EnhanceRestaurant)
			r.Post("/enhancement/batch", h.EnhanceBatch)
			r.Post("/collection", h.Collect)

			r.Get("/tasks", h.ListTasks)
			r.Get("/tasks/{id}", h.GetTask)

			r.Get("/quality/restaurants/{id}", h.RestaurantQuality)
			r.Get("/quality/report", h.QualityReport)
			r.Get("/quality/outdated", h.OutdatedRestaurants)

			r.Get("/restaurants/needs-enhancement", h.NeedsEnhancement)
			r.Get("/usage", h.Usage)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
	return r
}
