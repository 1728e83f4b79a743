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
	yelpMaxRadius   = 40000
	yelpSearchLimit = 50
)

// YelpClient talks to the Yelp Fusion API.
type YelpClient struct {
	http *httpClient
}

// NewYelpClient creates a Fusion client authenticated with a bearer token.
func NewYelpClient(cfg config.ProviderConfig, gate QuotaGate) *YelpClient {
	return &YelpClient{http: newHTTPClient(models.ProviderYelp, cfg, gate, bearerAuth)}
}

func (c *YelpClient) Provider() models.Provider { return models.ProviderYelp }
func (c *YelpClient) Configured() bool          { return c.http.configured() }

type yelpBusiness struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location struct {
		Address1 string `json:"address1"`
		City     string `json:"city"`
		State    string `json:"state"`
		ZipCode  string `json:"zip_code"`
		Country  string `json:"country"`
	} `json:"location"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	Phone        string  `json:"phone"`
	DisplayPhone string  `json:"display_phone"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"review_count"`
	Price        string  `json:"price"`
	Categories   []struct {
		Alias string `json:"alias"`
		Title string `json:"title"`
	} `json:"categories"`
	Hours []struct {
		Open []struct {
			Day   int    `json:"day"`
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"open"`
	} `json:"hours"`
	ImageURL string   `json:"image_url"`
	Photos   []string `json:"photos"`
}

type yelpSearchResponse struct {
	Businesses []yelpBusiness `json:"businesses"`
	Total      int            `json:"total"`
}

// Search calls /businesses/search.
func (c *YelpClient) Search(ctx context.Context, q SearchQuery) ([]models.SourceRecord, error) {
	params := url.Values{}
	if q.Term != "" {
		params.Set("term", q.Term)
	}
	if q.HasCoordinates() {
		params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
		params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	} else {
		params.Set("location", q.Location)
	}
	if r := clampRadius(q.Radius, yelpMaxRadius); r > 0 {
		params.Set("radius", strconv.Itoa(r))
	}
	if q.Category != "" {
		params.Set("categories", q.Category)
	}
	params.Set("limit", strconv.Itoa(yelpSearchLimit))

	var resp yelpSearchResponse
	if err := c.http.getJSON(ctx, EndpointSearch, "/businesses/search", params, &resp); err != nil {
		return nil, err
	}
	out := make([]models.SourceRecord, 0, len(resp.Businesses))
	for i := range resp.Businesses {
		out = append(out, normalizeYelp(&resp.Businesses[i]))
	}
	return out, nil
}

// Details calls /businesses/{id}.
func (c *YelpClient) Details(ctx context.Context, businessID string) (*models.SourceRecord, error) {
	if businessID == "" {
		return nil, fmt.Errorf("yelp details: empty business id")
	}
	var b yelpBusiness
	if err := c.http.getJSON(ctx, EndpointDetails, "/businesses/"+url.PathEscape(businessID), nil, &b); err != nil {
		return nil, err
	}
	rec := normalizeYelp(&b)
	return &rec, nil
}

// normalizeYelp converts a business payload. Yelp's url field is the Yelp
// listing page, not the restaurant's site, so Website is left empty.
func normalizeYelp(b *yelpBusiness) models.SourceRecord {
	rec := models.SourceRecord{
		Source:      models.ProviderYelp,
		ExternalID:  b.ID,
		Name:        strings.TrimSpace(b.Name),
		Address:     b.Location.Address1,
		City:        b.Location.City,
		State:       b.Location.State,
		ZipCode:     b.Location.ZipCode,
		Country:     b.Location.Country,
		Latitude:    b.Coordinates.Latitude,
		Longitude:   b.Coordinates.Longitude,
		Phone:       b.DisplayPhone,
		Rating:      models.RoundRating(b.Rating),
		ReviewCount: b.ReviewCount,
		PriceRange:  YelpPrice(b.Price),
	}
	if rec.Phone == "" {
		rec.Phone = b.Phone
	}

	cats := make([]string, 0, len(b.Categories))
	for _, cat := range b.Categories {
		cats = append(cats, cat.Title)
	}
	rec.Categories = cleanCategories(cats)

	if len(b.Hours) > 0 && len(b.Hours[0].Open) > 0 {
		hours := models.EmptyWeeklyHours()
		for _, o := range b.Hours[0].Open {
			day, ok := weekdayFromMonday(o.Day)
			if !ok {
				continue
			}
			hours[day] = models.DayHours{Open: hhmm(o.Start), Close: hhmm(o.End)}
		}
		rec.Hours = hours
	}

	seen := make(map[string]bool)
	for _, u := range append([]string{b.ImageURL}, b.Photos...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		rec.Photos = append(rec.Photos, models.SourcePhoto{URL: u})
	}
	return rec
}
