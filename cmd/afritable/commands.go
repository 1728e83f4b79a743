// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package main

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tomtom215/afritable/internal/app"
	"github.com/tomtom215/afritable/internal/collection"
	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/monitoring"
)

// pipeline is what the commands drive.
type pipeline interface {
	Collect(ctx context.Context, full bool) (*collection.Report, error)
	PurgeTestData(ctx context.Context) (*collection.PurgeReport, error)
	EnhanceRestaurant(ctx context.Context, id string, opts enhancement.Options) (*enhancement.Result, error)
	EnhanceBatch(ctx context.Context, opts enhancement.BatchOptions) (*enhancement.BatchReport, error)
	AssessRestaurant(ctx context.Context, id string) (*models.QualityMetrics, error)
	GenerateReport(ctx context.Context) (*monitoring.Report, error)
	IdentifyOutdatedRestaurants(ctx context.Context) ([]string, error)
	FlagDataDiscrepancies(ctx context.Context) (int, error)
}

type appPipeline struct {
	*app.App
}

func pipelineFor(a *app.App) pipeline {
	return appPipeline{a}
}

func (p appPipeline) PurgeTestData(ctx context.Context) (*collection.PurgeReport, error) {
	return p.Collector.PurgeTestData(ctx)
}

func (p appPipeline) EnhanceRestaurant(ctx context.Context, id string, opts enhancement.Options) (*enhancement.Result, error) {
	return p.Enhancement.EnhanceRestaurant(ctx, id, opts)
}

func (p appPipeline) EnhanceBatch(ctx context.Context, opts enhancement.BatchOptions) (*enhancement.BatchReport, error) {
	return p.Enhancement.EnhanceBatch(ctx, opts)
}

func (p appPipeline) AssessRestaurant(ctx context.Context, id string) (*models.QualityMetrics, error) {
	return p.Monitoring.AssessRestaurant(ctx, id)
}

func (p appPipeline) GenerateReport(ctx context.Context) (*monitoring.Report, error) {
	return p.Monitoring.GenerateReport(ctx)
}

func (p appPipeline) IdentifyOutdatedRestaurants(ctx context.Context) ([]string, error) {
	return p.Monitoring.IdentifyOutdatedRestaurants(ctx)
}

func (p appPipeline) FlagDataDiscrepancies(ctx context.Context) (int, error) {
	return p.Monitoring.FlagDataDiscrepancies(ctx)
}

var errRestaurantIDRequired = errors.New("--restaurant-id is required")

type command func(ctx context.Context, p pipeline, opts *options) (any, error)

var commands = map[string]command{
	"collect": func(ctx context.Context, p pipeline, opts *options) (any, error) {
		return p.Collect(ctx, opts.full)
	},
	"enhance": func(ctx context.Context, p pipeline, opts *options) (any, error) {
		if opts.restaurantID != "" {
			return p.EnhanceRestaurant(ctx, opts.restaurantID, opts.steps)
		}
		return p.EnhanceBatch(ctx, enhancement.BatchOptions{
			SkipExisting: opts.skipExisting,
			BatchSize:    opts.batchSize,
			Options:      opts.steps,
		})
	},
	"assess": func(ctx context.Context, p pipeline, opts *options) (any, error) {
		if opts.restaurantID == "" {
			return nil, errRestaurantIDRequired
		}
		return p.AssessRestaurant(ctx, opts.restaurantID)
	},
	"report": func(ctx context.Context, p pipeline, _ *options) (any, error) {
		return p.GenerateReport(ctx)
	},
	"stale": func(ctx context.Context, p pipeline, _ *options) (any, error) {
		ids, err := p.IdentifyOutdatedRestaurants(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"count": len(ids), "restaurant_ids": ids}, nil
	},
	"flag": func(ctx context.Context, p pipeline, _ *options) (any, error) {
		n, err := p.FlagDataDiscrepancies(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"flagged": n}, nil
	},
	"purge-test-data": func(ctx context.Context, p pipeline, _ *options) (any, error) {
		return p.PurgeTestData(ctx)
	},
}

func commandList() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
