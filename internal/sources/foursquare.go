// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/models"
)

const (
	foursquareMaxRadius   = 100000
	foursquareSearchLimit = 50

	foursquareFields = "fsq_id,name,location,geocodes,tel,website,rating,stats,price,categories,hours,photos"
)

// FoursquareClient talks to the Foursquare Places v3 API.
type FoursquareClient struct {
	http *httpClient
}

// NewFoursquareClient creates a Places client. The key is sent verbatim in Authorization.
func NewFoursquareClient(cfg config.ProviderConfig, gate QuotaGate) *FoursquareClient {
	return &FoursquareClient{http: newHTTPClient(models.ProviderFoursquare, cfg, gate, rawAuth)}
}

func (c *FoursquareClient) Provider() models.Provider { return models.ProviderFoursquare }
func (c *FoursquareClient) Configured() bool          { return c.http.configured() }

type foursquarePlace struct {
	FsqID    string `json:"fsq_id"`
	Name     string `json:"name"`
	Location struct {
		Address  string `json:"address"`
		Locality string `json:"locality"`
		Region   string `json:"region"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"location"`
	Geocodes struct {
		Main struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
	Tel     string  `json:"tel"`
	Website string  `json:"website"`
	Rating  float64 `json:"rating"` // 0-10
	Stats   struct {
		TotalRatings int `json:"total_ratings"`
	} `json:"stats"`
	Price      int `json:"price"`
	Categories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"categories"`
	Hours struct {
		Regular []struct {
			Day   int    `json:"day"` // 1=Monday..7=Sunday
			Open  string `json:"open"`
			Close string `json:"close"`
		} `json:"regular"`
	} `json:"hours"`
	Photos []struct {
		Prefix string `json:"prefix"`
		Suffix string `json:"suffix"`
	} `json:"photos"`
}

type foursquareSearchResponse struct {
	Results []foursquarePlace `json:"results"`
}

// Search calls /places/search.
func (c *FoursquareClient) Search(ctx context.Context, q SearchQuery) ([]models.SourceRecord, error) {
	params := url.Values{}
	if q.Term != "" {
		params.Set("query", q.Term)
	}
	if q.HasCoordinates() {
		params.Set("ll", q.latLng())
	} else {
		params.Set("near", q.Location)
	}
	if r := clampRadius(q.Radius, foursquareMaxRadius); r > 0 {
		params.Set("radius", strconv.Itoa(r))
	}
	if q.Category != "" {
		params.Set("categories", q.Category)
	}
	params.Set("limit", strconv.Itoa(foursquareSearchLimit))
	params.Set("fields", foursquareFields)

	var resp foursquareSearchResponse
	if err := c.http.getJSON(ctx, EndpointSearch, "/places/search", params, &resp); err != nil {
		return nil, err
	}
	out := make([]models.SourceRecord, 0, len(resp.Results))
	for i := range resp.Results {
		out = append(out, normalizeFoursquare(&resp.Results[i]))
	}
	return out, nil
}

// Details calls /places/{fsq_id}.
func (c *FoursquareClient) Details(ctx context.Context, fsqID string) (*models.SourceRecord, error) {
	if fsqID == "" {
		return nil, fmt.Errorf("foursquare details: empty fsq id")
	}
	params := url.Values{}
	params.Set("fields", foursquareFields)

	var p foursquarePlace
	if err := c.http.getJSON(ctx, EndpointDetails, "/places/"+url.PathEscape(fsqID), params, &p); err != nil {
		return nil, err
	}
	rec := normalizeFoursquare(&p)
	return &rec, nil
}

func normalizeFoursquare(p *foursquarePlace) models.SourceRecord {
	rec := models.SourceRecord{
		Source:      models.ProviderFoursquare,
		ExternalID:  p.FsqID,
		Name:        strings.TrimSpace(p.Name),
		Address:     p.Location.Address,
		City:        p.Location.Locality,
		State:       p.Location.Region,
		ZipCode:     p.Location.Postcode,
		Country:     p.Location.Country,
		Latitude:    p.Geocodes.Main.Latitude,
		Longitude:   p.Geocodes.Main.Longitude,
		Phone:       p.Tel,
		Website:     p.Website,
		Rating:      models.RoundRating(p.Rating / 2),
		ReviewCount: p.Stats.TotalRatings,
		PriceRange:  FoursquarePrice(p.Price),
	}

	cats := make([]string, 0, len(p.Categories))
	for _, cat := range p.Categories {
		cats = append(cats, cat.Name)
	}
	rec.Categories = cleanCategories(cats)

	if len(p.Hours.Regular) > 0 {
		hours := models.EmptyWeeklyHours()
		for _, h := range p.Hours.Regular {
			day, ok := weekdayFromMonday(h.Day - 1)
			if !ok {
				continue
			}
			hours[day] = models.DayHours{Open: hhmm(h.Open), Close: hhmm(h.Close)}
		}
		rec.Hours = hours
	}

	for _, ph := range p.Photos {
		if ph.Prefix == "" || ph.Suffix == "" {
			continue
		}
		rec.Photos = append(rec.Photos, models.SourcePhoto{URL: ph.Prefix + "original" + ph.Suffix})
	}
	return rec
}
