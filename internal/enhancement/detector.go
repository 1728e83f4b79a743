// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"context"

	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/sources"
)

// SourceDiscrepancyDetector fetches fresh provider details and reports the
// fields the providers disagree on. It satisfies monitoring.DiscrepancyDetector.
type SourceDiscrepancyDetector struct {
	adapters []sources.Adapter
}

func NewSourceDiscrepancyDetector(adapters []sources.Adapter) *SourceDiscrepancyDetector {
	return &SourceDiscrepancyDetector{adapters: adapters}
}

// Available reports whether any adapter has credentials.
func (d *SourceDiscrepancyDetector) Available() bool {
	for _, a := range d.adapters {
		if a.Configured() {
			return true
		}
	}
	return false
}

// Detect returns the cross-source discrepancies for r that majority voting
// could not resolve. Providers that fail are skipped; an error is returned only
// when the context ends.
func (d *SourceDiscrepancyDetector) Detect(ctx context.Context, r *models.Restaurant) ([]models.Discrepancy, error) {
	var records []*models.SourceRecord
	for _, a := range d.adapters {
		id := r.ExternalID(a.Provider())
		if id == "" || !a.Configured() {
			continue
		}
		rec, err := a.Details(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		records = append(records, rec)
	}
	var unresolved []models.Discrepancy
	for _, disc := range Verify(records).Discrepancies {
		if !disc.Resolved {
			unresolved = append(unresolved, disc)
		}
	}
	return unresolved, nil
}
