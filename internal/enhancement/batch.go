// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/afritable/internal/models"
)

const (
	DefaultBatchSize        = 10
	DefaultSkipRecentWithin = 7 * 24 * time.Hour
)

// BatchOptions selects which restaurants a batch enhances.
type BatchOptions struct {
	// IDs limits the batch to these restaurants. Empty means all.
	IDs []string `json:"ids,omitempty"`
	// SkipExisting skips restaurants updated within SkipRecentWithin.
	SkipExisting     bool          `json:"skip_existing"`
	SkipRecentWithin time.Duration `json:"skip_recent_within,omitempty"`
	BatchSize        int           `json:"batch_size,omitempty"`
	Options          Options       `json:"options"`
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	Processed    int                               `json:"processed"`
	Succeeded    int                               `json:"succeeded"`
	Failed       int                               `json:"failed"`
	Skipped      int                               `json:"skipped"`
	AverageScore float64                           `json:"average_score"`
	StatusCounts map[models.VerificationStatus]int `json:"status_counts"`
	Errors       []string                          `json:"errors"`
}

type itemResult struct {
	id  string
	res *Result
	err error
}

// EnhanceBatch enhances restaurants in chunks of BatchSize. Items within a
// chunk run concurrently and every item settles before the next chunk starts.
// A cancelled context stops the batch between chunks.
func (s *Service) EnhanceBatch(ctx context.Context, opts BatchOptions) (*BatchReport, error) {
	report := &BatchReport{StatusCounts: map[models.VerificationStatus]int{}, Errors: []string{}}

	ids, skipped, err := s.selectIDs(ctx, opts)
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	size := opts.BatchSize
	if size <= 0 {
		size = s.cfg.BatchSize
	}

	s.logger.Info().Int("restaurants", len(ids)).Int("skipped", skipped).Int("batch_size", size).Msg("Starting enhancement batch")

	var scoreSum float64
	for start := 0; start < len(ids); start += size {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		chunk := ids[start:min(start+size, len(ids))]
		results := make([]itemResult, len(chunk))

		var wg sync.WaitGroup
		for i, id := range chunk {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				res, err := s.EnhanceRestaurant(ctx, id, opts.Options)
				results[i] = itemResult{id: id, res: res, err: err}
			}(i, id)
		}
		wg.Wait()

		for _, r := range results {
			report.Processed++
			if r.err != nil {
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", r.id, r.err))
				continue
			}
			report.Succeeded++
			scoreSum += r.res.Score
			report.StatusCounts[r.res.Status]++
		}
	}

	if report.Succeeded > 0 {
		report.AverageScore = scoreSum / float64(report.Succeeded)
	}
	s.logger.Info().
		Int("processed", report.Processed).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Float64("average_score", report.AverageScore).
		Msg("Enhancement batch complete")
	return report, nil
}

func (s *Service) selectIDs(ctx context.Context, opts BatchOptions) ([]string, int, error) {
	if len(opts.IDs) > 0 {
		return opts.IDs, 0, nil
	}
	all, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list restaurants: %w", err)
	}

	window := opts.SkipRecentWithin
	if window <= 0 {
		window = s.cfg.SkipRecentWithin
	}
	cutoff := s.now().Add(-window)

	ids := make([]string, 0, len(all))
	skipped := 0
	for _, r := range all {
		if opts.SkipExisting && r.LastUpdated.After(cutoff) {
			skipped++
			continue
		}
		ids = append(ids, r.ID)
	}
	return ids, skipped, nil
}

// NeedsEnhancement returns restaurants not updated within the skip window.
func (s *Service) NeedsEnhancement(ctx context.Context) ([]*models.Restaurant, error) {
	all, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	cutoff := s.now().Add(-s.cfg.SkipRecentWithin)
	out := make([]*models.Restaurant, 0)
	for _, r := range all {
		if !r.LastUpdated.After(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}
