// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package api

import (
	"context"
	"time"

	"github.com/tomtom215/afritable/internal/collection"
	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/monitoring"
	"github.com/tomtom215/afritable/internal/quota"
	"github.com/tomtom215/afritable/internal/tasks"
	ws "github.com/tomtom215/afritable/internal/websocket"
)

// Enhancer runs enhancement passes. *enhancement.Service implements it.
type Enhancer interface {
	EnhanceRestaurant(ctx context.Context, id string, opts enhancement.Options) (*enhancement.Result, error)
	EnhanceBatch(ctx context.Context, opts enhancement.BatchOptions) (*enhancement.BatchReport, error)
	NeedsEnhancement(ctx context.Context) ([]*models.Restaurant, error)
}

// Collector runs a metro-area collection, either the quick sweep or the full
// run over every region and term.
type Collector interface {
	Collect(ctx context.Context, full bool) (*collection.Report, error)
}

// Monitor assesses stored data. *monitoring.Service implements it.
type Monitor interface {
	AssessRestaurant(ctx context.Context, id string) (*models.QualityMetrics, error)
	GenerateReport(ctx context.Context) (*monitoring.Report, error)
	IdentifyOutdatedRestaurants(ctx context.Context) ([]string, error)
}

// Store is the read access the handlers need. *database.DB implements it.
type Store interface {
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	ListQualityEvents(ctx context.Context, restaurantID string, limit int) ([]models.QualityEvent, error)
	ListDiscrepancies(ctx context.Context, restaurantID string) ([]models.Discrepancy, error)
	Ping(ctx context.Context) error
}

// TaskQueue accepts background work. *tasks.Queue implements it.
type TaskQueue interface {
	Name() string
	Submit(kind string, fn tasks.Func) (string, error)
	Get(id string) (tasks.Task, error)
	List() []tasks.Task
}

// UsageReporter reports today's provider usage. *quota.Tracker implements it.
type UsageReporter interface {
	Usage(ctx context.Context) ([]quota.ProviderUsage, error)
}

// Deps are the collaborators of Handler. Hub may be nil, which disables the
// websocket endpoint.
type Deps struct {
	Enhancer    Enhancer
	Collector   Collector
	Monitor     Monitor
	Store       Store
	Usage       UsageReporter
	Enhancement TaskQueue
	Jobs        TaskQueue
	Hub         *ws.Hub

	// DefaultOptions are the enhancement steps used when a request does not
	// choose them.
	DefaultOptions enhancement.Options
	// AllowedOrigins lists the origins accepted for websocket upgrades. "*"
	// accepts any.
	AllowedOrigins []string
}

// Handler holds the admin API handlers.
type Handler struct {
	deps      Deps
	startTime time.Time
}

// NewHandler creates the handlers.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, startTime: time.Now()}
}

func (h *Handler) queues() []TaskQueue {
	out := make([]TaskQueue, 0, 2)
	for _, q := range []TaskQueue{h.deps.Enhancement, h.deps.Jobs} {
		if q != nil {
			out = append(out, q)
		}
	}
	return out
}
