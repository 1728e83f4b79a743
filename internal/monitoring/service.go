// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package monitoring scores stored restaurant records, reports fleet-wide
// data quality and finds stale or inconsistent records.
//
// Assessment is read-only and works from the stored row alone. Only
// FlagDataDiscrepancies calls out to the providers, through a
// DiscrepancyDetector, and it flags a record only for conflicts that majority
// voting could not settle.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/models"
)

const (
	DefaultStaleAfter         = 30 * 24 * time.Hour
	DefaultAttentionThreshold = 0.7
)

// Store is the persistence the monitoring service needs.
type Store interface {
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]*models.Restaurant, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}

// DiscrepancyDetector finds cross-source disagreements for a stored record.
type DiscrepancyDetector interface {
	Available() bool
	Detect(ctx context.Context, r *models.Restaurant) ([]models.Discrepancy, error)
}

// NoopDetector never reports discrepancies. FlagDataDiscrepancies does nothing
// until a real detector is injected.
type NoopDetector struct{}

func (NoopDetector) Available() bool { return false }

func (NoopDetector) Detect(context.Context, *models.Restaurant) ([]models.Discrepancy, error) {
	return nil, nil
}

// Service assesses stored restaurants.
type Service struct {
	store    Store
	detector DiscrepancyDetector
	cfg      config.MonitoringConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a monitoring service. A nil detector means NoopDetector.
func NewService(cfg config.MonitoringConfig, store Store, detector DiscrepancyDetector) *Service {
	if detector == nil {
		detector = NoopDetector{}
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.AttentionThreshold <= 0 {
		cfg.AttentionThreshold = DefaultAttentionThreshold
	}
	return &Service{
		store:    store,
		detector: detector,
		cfg:      cfg,
		logger:   logging.WithComponent("monitoring"),
		now:      time.Now,
	}
}

// AssessRestaurant scores one stored restaurant. A missing record yields an
// error wrapping models.ErrNotFound.
func (s *Service) AssessRestaurant(ctx context.Context, id string) (*models.QualityMetrics, error) {
	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assess restaurant %s: %w", id, err)
	}
	return Assess(r, s.now(), s.cfg.StaleAfter), nil
}

// IdentifyOutdatedRestaurants returns the ids of restaurants not updated within
// the stale window.
func (s *Service) IdentifyOutdatedRestaurants(ctx context.Context) ([]string, error) {
	all, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	now := s.now()
	ids := []string{}
	for _, r := range all {
		if IsOutdated(r, now, s.cfg.StaleAfter) {
			ids = append(ids, r.ID)
		}
	}
	s.logger.Info().Int("outdated", len(ids)).Int("total", len(all)).Msg("Staleness sweep complete")
	return ids, nil
}

// FlagDataDiscrepancies runs the detector over every restaurant linked to at
// least one provider and clears IsVerified on those with findings. It returns
// the number flagged.
func (s *Service) FlagDataDiscrepancies(ctx context.Context) (int, error) {
	if !s.detector.Available() {
		s.logger.Debug().Msg("No discrepancy detector available, skipping sweep")
		return 0, nil
	}
	all, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list restaurants: %w", err)
	}

	flagged := 0
	for _, r := range all {
		if !r.HasExternalID() {
			continue
		}
		found, err := s.detector.Detect(ctx, r)
		if err != nil {
			if ctx.Err() != nil {
				return flagged, ctx.Err()
			}
			s.logger.Warn().Err(err).Str("restaurant_id", r.ID).Msg("Discrepancy detection failed")
			continue
		}
		if len(found) == 0 {
			continue
		}
		if err := s.store.SetVerified(ctx, r.ID, false); err != nil {
			s.logger.Error().Err(err).Str("restaurant_id", r.ID).Msg("Failed to clear verified flag")
			continue
		}
		flagged++
		s.logger.Info().Str("restaurant_id", r.ID).Int("discrepancies", len(found)).Msg("Restaurant flagged for review")
	}
	return flagged, nil
}
