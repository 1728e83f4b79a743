// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/tasks"
)

// Task kinds submitted by the API.
const (
	KindEnhanceRestaurant = "enhance_restaurant"
	KindEnhanceBatch      = "enhance_batch"
	KindCollection        = "collection"
)

// stepOptions are optional overrides of the enhancement steps. Nil keeps the
// configured default.
type stepOptions struct {
	Photos      *bool `json:"photos,omitempty"`
	Scraping    *bool `json:"scraping,omitempty"`
	Validation  *bool `json:"validation,omitempty"`
	ForceUpdate bool  `json:"force_update"`
}

func (s stepOptions) apply(def enhancement.Options) enhancement.Options {
	out := def
	if s.Photos != nil {
		out.Photos = *s.Photos
	}
	if s.Scraping != nil {
		out.Scraping = *s.Scraping
	}
	if s.Validation != nil {
		out.Validation = *s.Validation
	}
	out.ForceUpdate = s.ForceUpdate
	return out
}

type enhanceRestaurantRequest struct {
	stepOptions
}

type enhanceBatchRequest struct {
	stepOptions
	IDs          []string `json:"ids" validate:"omitempty,max=1000,dive,required,max=64"`
	BatchSize    int      `json:"batch_size" validate:"omitempty,gte=1,lte=50"`
	SkipExisting bool     `json:"skip_existing"`
}

type collectionRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=quick full"`
}

// TaskAccepted is the body of a 202 response.
type TaskAccepted struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
	Kind   string `json:"kind"`
}

// EnhanceRestaurant queues an enhancement pass for one restaurant.
func (h *Handler) EnhanceRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req enhanceRestaurantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.deps.Store.GetRestaurant(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, CodeNotFound, "Restaurant not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to load restaurant", err)
		return
	}

	opts := req.apply(h.deps.DefaultOptions)
	enhancer := h.deps.Enhancer
	h.submit(w, r, h.deps.Enhancement, KindEnhanceRestaurant, func(ctx context.Context) (any, error) {
		return enhancer.EnhanceRestaurant(ctx, id, opts)
	})
}

// EnhanceBatch queues a batch enhancement run.
func (h *Handler) EnhanceBatch(w http.ResponseWriter, r *http.Request) {
	var req enhanceBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	opts := enhancement.BatchOptions{
		IDs:          req.IDs,
		SkipExisting: req.SkipExisting,
		BatchSize:    req.BatchSize,
		Options:      req.apply(h.deps.DefaultOptions),
	}
	enhancer := h.deps.Enhancer
	h.submit(w, r, h.deps.Enhancement, KindEnhanceBatch, func(ctx context.Context) (any, error) {
		return enhancer.EnhanceBatch(ctx, opts)
	})
}

// Collect queues a metro-area collection on the jobs queue, where it is
// serialized with the scheduled jobs.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	full := req.Mode == "full"
	collector := h.deps.Collector
	h.submit(w, r, h.deps.Jobs, KindCollection, func(ctx context.Context) (any, error) {
		return collector.Collect(ctx, full)
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, q TaskQueue, kind string, fn tasks.Func) {
	if q == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Task queue not available", nil)
		return
	}
	id, err := q.Submit(kind, fn)
	switch {
	case errors.Is(err, tasks.ErrQueueFull):
		w.Header().Set("Retry-After", "30")
		respondError(w, r, http.StatusServiceUnavailable, CodeQueueFull, "Task queue is full", nil)
		return
	case errors.Is(err, tasks.ErrQueueClosed):
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Task queue is shutting down", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to submit task", err)
		return
	}
	w.Header().Set("Location", "/api/v1/admin/tasks/"+id)
	respondData(w, http.StatusAccepted, TaskAccepted{TaskID: id, Queue: q.Name(), Kind: kind})
}
