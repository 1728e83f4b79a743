// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package services

import (
	"context"
	"fmt"
)

// Scheduler is a component with a Start/Stop lifecycle, such as
// *scheduler.Scheduler.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService adapts a Start/Stop scheduler to suture's Serve pattern.
type SchedulerService struct {
	scheduler Scheduler
}

func NewSchedulerService(s Scheduler) *SchedulerService {
	return &SchedulerService{scheduler: s}
}

// Serve starts the scheduler and stops it when ctx is canceled.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}
	<-ctx.Done()
	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

func (s *SchedulerService) String() string {
	return "cron-scheduler"
}
