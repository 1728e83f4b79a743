// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/tasks"
)

// ListTasks returns the tasks of every queue, newest first. ?status= filters.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	status := tasks.Status(r.URL.Query().Get("status"))
	var out []tasks.Task
	for _, q := range h.queues() {
		for _, t := range q.List() {
			if status == "" || t.Status == status {
				out = append(out, t)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	respondList(w, out)
}

// GetTask returns one task.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, q := range h.queues() {
		t, err := q.Get(id)
		if err == nil {
			respondData(w, http.StatusOK, t)
			return
		}
		if !errors.Is(err, tasks.ErrTaskNotFound) {
			respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to load task", err)
			return
		}
	}
	respondError(w, r, http.StatusNotFound, CodeNotFound, "Task not found", nil)
}

// RestaurantQuality is the quality view of one restaurant.
type RestaurantQuality struct {
	Metrics       *models.QualityMetrics `json:"metrics"`
	History       []models.QualityEvent  `json:"history"`
	Discrepancies []models.Discrepancy   `json:"discrepancies"`
}

// RestaurantQuality assesses one restaurant and attaches its recent
// enhancement history. ?limit= bounds the history (default 20).
func (h *Handler) RestaurantQuality(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := h.deps.Monitor.AssessRestaurant(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, CodeNotFound, "Restaurant not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to assess restaurant", err)
		return
	}

	limit, err := intParam(r, "limit", 20, 1, 200)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	history, err := h.deps.Store.ListQualityEvents(r.Context(), id, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to load quality history", err)
		return
	}
	ds, err := h.deps.Store.ListDiscrepancies(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to load discrepancies", err)
		return
	}
	if history == nil {
		history = []models.QualityEvent{}
	}
	if ds == nil {
		ds = []models.Discrepancy{}
	}
	respondData(w, http.StatusOK, RestaurantQuality{Metrics: m, History: history, Discrepancies: ds})
}

// QualityReport returns the fleet-wide quality report.
func (h *Handler) QualityReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Monitor.GenerateReport(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to generate report", err)
		return
	}
	respondData(w, http.StatusOK, rep)
}

// OutdatedRestaurants lists the ids past the stale window.
func (h *Handler) OutdatedRestaurants(w http.ResponseWriter, r *http.Request) {
	ids, err := h.deps.Monitor.IdentifyOutdatedRestaurants(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to identify outdated restaurants", err)
		return
	}
	respondList(w, ids)
}

// RestaurantSummary is the short form used in listings.
type RestaurantSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	LastUpdated *time.Time `json:"last_updated"`
	IsVerified  bool       `json:"is_verified"`
}

// NeedsEnhancement lists restaurants not enhanced within the skip window.
func (h *Handler) NeedsEnhancement(w http.ResponseWriter, r *http.Request) {
	rs, err := h.deps.Enhancer.NeedsEnhancement(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to list restaurants", err)
		return
	}
	out := make([]RestaurantSummary, 0, len(rs))
	for _, rest := range rs {
		s := RestaurantSummary{ID: rest.ID, Name: rest.Name, City: rest.City, State: rest.State, IsVerified: rest.IsVerified}
		if !rest.LastUpdated.IsZero() {
			t := rest.LastUpdated
			s.LastUpdated = &t
		}
		out = append(out, s)
	}
	respondList(w, out)
}

// Usage reports today's API usage against each provider's quota.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.deps.Usage.Usage(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to read usage", err)
		return
	}
	respondList(w, usage)
}

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	WebSocketClients  int     `json:"websocket_clients"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Health reports liveness and database connectivity. A broken database
// answers 503 so load balancers stop routing to the instance.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:            "healthy",
		DatabaseConnected: h.deps.Store != nil && h.deps.Store.Ping(r.Context()) == nil,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.deps.Hub != nil {
		health.WebSocketClients = h.deps.Hub.ClientCount()
	}
	status := http.StatusOK
	if !health.DatabaseConnected {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	respondData(w, status, health)
}

// intParam reads an optional integer query parameter bounded to [lo, hi].
func intParam(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, errors.New(key + " must be an integer between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi))
	}
	return v, nil
}
