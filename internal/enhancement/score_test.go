// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"testing"

	"github.com/tomtom215/afritable/internal/models"
)

func TestQualityScore(t *testing.T) {
	complete := &models.Restaurant{
		Name:    "Abyssinia",
		Address: "1200 U St NW",
		Phone:   "2025550143",
		Website: "https://abyssinia.test",
		Cuisine: []string{"Ethiopian"},
	}
	tests := []struct {
		name string
		in   ScoreInputs
		want float64
	}{
		{"perfect", ScoreInputs{PhoneValid: true, AddressValid: true, HighQualityPhotos: 5, FoodPhotos: 5, Restaurant: complete}, 1},
		{"photo cap", ScoreInputs{HighQualityPhotos: 20, Restaurant: &models.Restaurant{}}, 0.40},
		{"phone and name", ScoreInputs{PhoneValid: true, Restaurant: &models.Restaurant{Name: "x"}}, 0.39},
		{"penalty floor", ScoreInputs{Unresolved: 6, Restaurant: &models.Restaurant{}}, 0},
		{"two unresolved", ScoreInputs{Unresolved: 2}, 0.09},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualityScore(tt.in); got != tt.want {
				t.Errorf("QualityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		score float64
		want  models.VerificationStatus
	}{
		{1, models.StatusVerified},
		{0.81, models.StatusVerified},
		{0.8, models.StatusPending},
		{0.61, models.StatusPending},
		{0.6, models.StatusFlagged},
		{0, models.StatusFlagged},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.score); got != tt.want {
			t.Errorf("StatusFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
