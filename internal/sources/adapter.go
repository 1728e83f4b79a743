// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"
	"strconv"
	"strings"

	"github.com/tomtom215/afritable/internal/models"
)

// Endpoint labels used for quota counters and metrics.
const (
	EndpointSearch  = "search"
	EndpointDetails = "details"
)

// SearchQuery describes a place search. When Latitude or Longitude is non-zero
// the coordinates are sent; otherwise the free-text Location is.
type SearchQuery struct {
	Term      string
	Location  string
	Latitude  float64
	Longitude float64
	Radius    int // metres; clamped to the provider maximum
	Category  string
}

// HasCoordinates reports whether the query should be sent as a lat/lng point.
func (q SearchQuery) HasCoordinates() bool {
	return q.Latitude != 0 || q.Longitude != 0
}

func (q SearchQuery) latLng() string {
	return strconv.FormatFloat(q.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(q.Longitude, 'f', -1, 64)
}

// Adapter is implemented by every place-search provider client.
type Adapter interface {
	Provider() models.Provider
	Configured() bool
	Search(ctx context.Context, q SearchQuery) ([]models.SourceRecord, error)
	Details(ctx context.Context, externalID string) (*models.SourceRecord, error)
}

func clampRadius(radius, max int) int {
	if radius <= 0 {
		return 0
	}
	if radius > max {
		return max
	}
	return radius
}

// hhmm converts "1130" to "11:30". Values that are not four digits are returned as-is.
func hhmm(s string) string {
	if len(s) != 4 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return s[:2] + ":" + s[2:]
}

// weekdayFromMonday maps 0=Monday..6=Sunday to the WeeklyHours key.
func weekdayFromMonday(d int) (string, bool) {
	if d < 0 || d >= len(models.Weekdays) {
		return "", false
	}
	return models.Weekdays[d], true
}

// weekdayFromSunday maps 0=Sunday..6=Saturday to the WeeklyHours key.
func weekdayFromSunday(d int) (string, bool) {
	return weekdayFromMonday((d + 6) % 7)
}

// genericPlaceTypes are dropped when provider types are used as cuisine tags.
var genericPlaceTypes = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
	"food":              true,
	"store":             true,
}

func cleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		k := strings.ToLower(c)
		if c == "" || genericPlaceTypes[k] || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
