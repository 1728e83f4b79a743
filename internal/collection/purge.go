// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package collection

import (
	"context"
	"fmt"

	"github.com/tomtom215/afritable/internal/scraper"
)

// PurgeReport counts what PurgeTestData cleared.
type PurgeReport struct {
	Scanned         int      `json:"scanned"`
	PhonesCleared   int      `json:"phones_cleared"`
	WebsitesCleared int      `json:"websites_cleared"`
	Updated         int      `json:"updated"`
	Errors          []string `json:"errors"`
}

// PurgeTestData clears placeholder phone numbers and example websites left by
// seed data. Real values are left untouched, including their formatting.
func (c *Collector) PurgeTestData(ctx context.Context) (*PurgeReport, error) {
	all, err := c.store.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}

	rep := &PurgeReport{Scanned: len(all), Errors: []string{}}
	for _, r := range all {
		changed := false
		if r.Phone != "" && scraper.CleanPhone(r.Phone) == "" {
			r.Phone = ""
			rep.PhonesCleared++
			changed = true
		}
		if r.Website != "" && scraper.CleanWebsite(r.Website) == "" {
			r.Website = ""
			rep.WebsitesCleared++
			changed = true
		}
		if !changed {
			continue
		}
		if err := c.store.UpdateRestaurant(ctx, r); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", r.ID, err))
			continue
		}
		rep.Updated++
	}

	c.logger.Info().
		Int("scanned", rep.Scanned).
		Int("phones_cleared", rep.PhonesCleared).
		Int("websites_cleared", rep.WebsitesCleared).
		Msg("Test data purge complete")
	return rep, nil
}
