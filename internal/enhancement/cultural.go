// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"context"
	"errors"

	"github.com/tomtom215/afritable/internal/models"
)

// ErrCulturalNotImplemented is returned by NotImplementedEnricher.
var ErrCulturalNotImplemented = errors.New("cultural enrichment not implemented")

// CulturalContext describes the heritage and dietary options of a restaurant.
type CulturalContext struct {
	Region         string   `json:"region,omitempty"`
	SignatureDish  []string `json:"signature_dishes,omitempty"`
	DietaryOptions []string `json:"dietary_options,omitempty"`
}

// CulturalEnricher derives cultural context for a restaurant.
type CulturalEnricher interface {
	Available() bool
	Enrich(ctx context.Context, r *models.Restaurant, scraped *models.ScrapedRestaurantData) (*CulturalContext, error)
}

// NotImplementedEnricher is the default CulturalEnricher. Enhancement runs
// record that the step was skipped.
type NotImplementedEnricher struct{}

func (NotImplementedEnricher) Available() bool { return false }

func (NotImplementedEnricher) Enrich(context.Context, *models.Restaurant, *models.ScrapedRestaurantData) (*CulturalContext, error) {
	return nil, ErrCulturalNotImplemented
}
