// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package monitoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
)

const topIssueCount = 10

// IssueSummary is one (type, severity) pair and how many restaurants have it.
type IssueSummary struct {
	Type       models.IssueType `json:"type"`
	Severity   models.Severity  `json:"severity"`
	Count      int              `json:"count"`
	Percentage float64          `json:"percentage"`
}

// VerificationBreakdown partitions restaurants by overall score.
type VerificationBreakdown struct {
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	Flagged  int `json:"flagged"`
}

// Report is the fleet-wide quality report.
type Report struct {
	GeneratedAt         time.Time             `json:"generated_at"`
	TotalRestaurants    int                   `json:"total_restaurants"`
	AverageScore        float64               `json:"average_score"`
	NeedingAttention    int                   `json:"needing_attention"`
	Verification        VerificationBreakdown `json:"verification"`
	AverageCompleteness float64               `json:"average_completeness"`
	AverageAccuracy     float64               `json:"average_accuracy"`
	AveragePhotoQuality float64               `json:"average_photo_quality"`
	AverageVerification float64               `json:"average_verification"`
	TopIssues           []IssueSummary        `json:"top_issues"`
	Recommendations     []string              `json:"recommendations"`
}

type issueKey struct {
	typ models.IssueType
	sev models.Severity
}

// GenerateReport assesses every restaurant and aggregates the results.
func (s *Service) GenerateReport(ctx context.Context) (*Report, error) {
	all, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	now := s.now()
	assessed := make([]*models.QualityMetrics, 0, len(all))
	for _, r := range all {
		assessed = append(assessed, Assess(r, now, s.cfg.StaleAfter))
	}
	rep := BuildReport(all, assessed, s.cfg.AttentionThreshold, now)

	metrics.FleetAverageScore.Set(rep.AverageScore)
	metrics.RestaurantsNeedingAttention.Set(float64(rep.NeedingAttention))
	s.logger.Info().
		Int("total", rep.TotalRestaurants).
		Float64("average_score", rep.AverageScore).
		Int("needing_attention", rep.NeedingAttention).
		Msg("Quality report generated")
	return rep, nil
}

// BuildReport aggregates per-restaurant metrics. restaurants and assessed are
// parallel slices.
func BuildReport(restaurants []*models.Restaurant, assessed []*models.QualityMetrics, threshold float64, now time.Time) *Report {
	rep := &Report{
		GeneratedAt:      now,
		TotalRestaurants: len(assessed),
		TopIssues:        []IssueSummary{},
		Recommendations:  []string{},
	}
	if len(assessed) == 0 {
		return rep
	}

	counts := map[issueKey]int{}
	unverified := 0
	for i, m := range assessed {
		rep.AverageScore += m.OverallScore
		rep.AverageCompleteness += m.Completeness
		rep.AverageAccuracy += m.Accuracy
		rep.AveragePhotoQuality += m.PhotoQuality
		rep.AverageVerification += m.Verification

		if m.OverallScore < threshold {
			rep.NeedingAttention++
		}
		switch {
		case m.OverallScore >= 0.8:
			rep.Verification.Verified++
		case m.OverallScore >= 0.6:
			rep.Verification.Pending++
		default:
			rep.Verification.Flagged++
		}

		seen := map[issueKey]bool{}
		for _, is := range m.Issues {
			k := issueKey{is.Type, is.Severity}
			if !seen[k] {
				seen[k] = true
				counts[k]++
			}
		}
		if i < len(restaurants) && !restaurants[i].IsVerified {
			unverified++
		}
	}

	n := float64(len(assessed))
	rep.AverageScore /= n
	rep.AverageCompleteness /= n
	rep.AverageAccuracy /= n
	rep.AveragePhotoQuality /= n
	rep.AverageVerification /= n

	for k, c := range counts {
		rep.TopIssues = append(rep.TopIssues, IssueSummary{
			Type: k.typ, Severity: k.sev, Count: c, Percentage: float64(c) / n * 100,
		})
	}
	sort.Slice(rep.TopIssues, func(i, j int) bool {
		a, b := rep.TopIssues[i], rep.TopIssues[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Severity < b.Severity
	})
	if len(rep.TopIssues) > topIssueCount {
		rep.TopIssues = rep.TopIssues[:topIssueCount]
	}

	if rep.AverageCompleteness < 0.8 {
		rep.Recommendations = append(rep.Recommendations, "Prioritize filling missing business information across the directory")
	}
	if rep.AveragePhotoQuality < 0.6 {
		rep.Recommendations = append(rep.Recommendations, "Run photo collection for restaurants with few or low-quality photos")
	}
	if float64(unverified)/n > 0.3 {
		rep.Recommendations = append(rep.Recommendations, "Over 30% of restaurants are unverified; schedule enhancement batches")
	}
	return rep
}
