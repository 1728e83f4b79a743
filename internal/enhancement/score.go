// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"strings"

	"github.com/tomtom215/afritable/internal/models"
)

// ScoreInputs are the facts the quality score is computed from.
type ScoreInputs struct {
	PhoneValid        bool
	AddressValid      bool
	HighQualityPhotos int
	FoodPhotos        int
	Restaurant        *models.Restaurant
	Unresolved        int
}

// Score weights, out of 100.
const (
	phonePoints          = 20
	addressPoints        = 20
	maxPhotoPoints       = 25
	completenessPoints   = 4
	discrepancyPoints    = 15
	perUnresolvedPenalty = 3
)

// QualityScore returns the enhancement quality score in [0,1].
func QualityScore(in ScoreInputs) float64 {
	points := 0
	if in.PhoneValid {
		points += phonePoints
	}
	if in.AddressValid {
		points += addressPoints
	}
	points += min(maxPhotoPoints, in.HighQualityPhotos*3+in.FoodPhotos*2)

	if r := in.Restaurant; r != nil {
		for _, present := range []bool{
			strings.TrimSpace(r.Name) != "",
			strings.TrimSpace(r.Address) != "",
			strings.TrimSpace(r.Phone) != "",
			strings.TrimSpace(r.Website) != "",
			len(r.Cuisine) > 0,
		} {
			if present {
				points += completenessPoints
			}
		}
	}

	points += max(0, discrepancyPoints-perUnresolvedPenalty*in.Unresolved)
	return float64(points) / 100
}

// StatusFor maps a quality score to a verification status.
func StatusFor(score float64) models.VerificationStatus {
	switch {
	case score > 0.8:
		return models.StatusVerified
	case score > 0.6:
		return models.StatusPending
	default:
		return models.StatusFlagged
	}
}

// photoCounts counts high-quality and food photos.
func photoCounts(photos []models.PhotoAsset) (high, food int) {
	for _, p := range photos {
		if p.Quality == models.PhotoQualityHigh {
			high++
		}
		if p.Type == models.PhotoTypeFood {
			food++
		}
	}
	return high, food
}
