// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package models

import "time"

// Issue is a single data quality problem found on a restaurant.
type Issue struct {
	Type            IssueType `json:"type"`
	Severity        Severity  `json:"severity"`
	Field           string    `json:"field"`
	Description     string    `json:"description"`
	SuggestedAction string    `json:"suggested_action"`
}

// QualityMetrics are recomputed from the current record on every assessment.
// All scores are in [0,1].
type QualityMetrics struct {
	RestaurantID    string    `json:"restaurant_id"`
	OverallScore    float64   `json:"overall_score"`
	Completeness    float64   `json:"completeness"`
	Accuracy        float64   `json:"accuracy"`
	PhotoQuality    float64   `json:"photo_quality"`
	Verification    float64   `json:"verification"`
	Issues          []Issue   `json:"issues"`
	Recommendations []string  `json:"recommendations"`
	AssessedAt      time.Time `json:"assessed_at"`
}

// QualityEvent is the persisted log entry written after each enhancement run.
type QualityEvent struct {
	ID              string             `json:"id"`
	RestaurantID    string             `json:"restaurant_id"`
	Score           float64            `json:"score"`
	Status          VerificationStatus `json:"status"`
	Discrepancies   int                `json:"discrepancies"`
	PhotosCollected int                `json:"photos_collected"`
	Sources         []string           `json:"sources"`
	CreatedAt       time.Time          `json:"created_at"`
}
