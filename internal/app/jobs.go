// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/afritable/internal/api"
	"github.com/tomtom215/afritable/internal/collection"
	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/events"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/monitoring"
)

// Scheduled job names.
const (
	JobCollectionSweep = "collection_sweep"
	JobDailyQuality    = "daily_quality"
	JobStalenessSweep  = "staleness_sweep"
	JobMetroCollection = "metro_collection"
)

// CollectionEvent is published on the collection topic after every run.
type CollectionEvent struct {
	Mode   string             `json:"mode"`
	Report *collection.Report `json:"report,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// QualityRun is the result of the daily quality job.
type QualityRun struct {
	Flagged int                `json:"flagged"`
	Report  *monitoring.Report `json:"report"`
}

// StalenessRun is the result of the staleness sweep.
type StalenessRun struct {
	Outdated []string `json:"outdated"`
	TaskID   string   `json:"task_id,omitempty"`
}

// RegisterJobs adds the recurring jobs with their configured schedules.
func (a *App) RegisterJobs() error {
	s := a.Config.Schedule
	jobs := []struct {
		name, spec string
		fn         func(ctx context.Context) (any, error)
	}{
		{JobCollectionSweep, s.CollectionSweep, func(ctx context.Context) (any, error) { return a.Collect(ctx, false) }},
		{JobDailyQuality, s.DailyQuality, func(ctx context.Context) (any, error) { return a.DailyQuality(ctx) }},
		{JobStalenessSweep, s.StalenessSweep, func(ctx context.Context) (any, error) { return a.StalenessSweep(ctx) }},
		{JobMetroCollection, s.MetroCollection, func(ctx context.Context) (any, error) { return a.Collect(ctx, true) }},
	}
	for _, j := range jobs {
		if err := a.Scheduler.Register(j.name, j.spec, j.fn); err != nil {
			return err
		}
	}
	return nil
}

// Collect runs the quick sweep, or every region with every term when full is
// set, and publishes the outcome on the collection topic.
func (a *App) Collect(ctx context.Context, full bool) (*collection.Report, error) {
	mode := "quick"
	var (
		rep *collection.Report
		err error
	)
	if full {
		mode = "full"
		rep, err = a.Collector.CollectAll(ctx)
	} else {
		rep, err = a.Collector.CollectQuickSweep(ctx)
	}

	ev := CollectionEvent{Mode: mode, Report: rep}
	if err != nil {
		ev.Error = err.Error()
	}
	// The run context may be canceled already; the outcome is still reported.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if perr := a.Bus.Publish(pubCtx, events.TopicCollection, ev); perr != nil {
		logging.Ctx(ctx).Warn().Err(perr).Msg("Failed to publish collection event")
	}
	return rep, err
}

// DailyQuality flags cross-source discrepancies and then builds the fleet report.
func (a *App) DailyQuality(ctx context.Context) (*QualityRun, error) {
	flagged, err := a.Monitoring.FlagDataDiscrepancies(ctx)
	if err != nil {
		return nil, fmt.Errorf("flag discrepancies: %w", err)
	}
	rep, err := a.Monitoring.GenerateReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return &QualityRun{Flagged: flagged, Report: rep}, nil
}

// StalenessSweep finds restaurants past the stale window and queues one
// enhancement batch for them.
func (a *App) StalenessSweep(ctx context.Context) (*StalenessRun, error) {
	ids, err := a.Monitoring.IdentifyOutdatedRestaurants(ctx)
	if err != nil {
		return nil, err
	}
	run := &StalenessRun{Outdated: ids}
	if len(ids) == 0 {
		return run, nil
	}

	opts := enhancement.BatchOptions{
		IDs:       ids,
		BatchSize: a.Config.Enhancement.BatchSize,
		Options:   enhancement.OptionsFromConfig(a.Config.Enhancement),
	}
	svc := a.Enhancement
	run.TaskID, err = a.EnhancementQueue.Submit(api.KindEnhanceBatch, func(ctx context.Context) (any, error) {
		return svc.EnhanceBatch(ctx, opts)
	})
	if err != nil {
		return run, fmt.Errorf("queue enhancement of %d outdated restaurants: %w", len(ids), err)
	}
	logging.Ctx(ctx).Info().Int("outdated", len(ids)).Str("enhancement_task_id", run.TaskID).Msg("Queued enhancement for outdated restaurants")
	return run, nil
}
