// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package models

import (
	"math"
	"time"
)

// Weekdays lists the keys of WeeklyHours in display order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayHours holds the opening window for one weekday. Times are "HH:MM" strings.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// WeeklyHours maps a lower-case weekday name to its hours.
type WeeklyHours map[string]DayHours

// EmptyWeeklyHours returns all seven weekdays with blank hours.
func EmptyWeeklyHours() WeeklyHours {
	h := make(WeeklyHours, len(Weekdays))
	for _, d := range Weekdays {
		h[d] = DayHours{}
	}
	return h
}

// HasAny reports whether at least one weekday has both an open and close time.
func (h WeeklyHours) HasAny() bool {
	for _, d := range h {
		if d.Open != "" && d.Close != "" {
			return true
		}
	}
	return false
}

// Restaurant is the canonical restaurant record.
type Restaurant struct {
	ID string `json:"id"`

	GooglePlaceID  string `json:"google_place_id,omitempty"`
	YelpBusinessID string `json:"yelp_business_id,omitempty"`
	FoursquareID   string `json:"foursquare_id,omitempty"`

	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zip_code"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Email       string `json:"email"`
	Description string `json:"description"`

	Cuisine     []string    `json:"cuisine"`
	PriceRange  PriceTier   `json:"price_range,omitempty"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	Hours       WeeklyHours `json:"hours,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
	IsVerified  bool      `json:"is_verified"`
	DataSource  string    `json:"data_source"`

	Photos []PhotoAsset `json:"photos,omitempty"`
}

// ExternalID returns the restaurant's id for the given provider, or "".
func (r *Restaurant) ExternalID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return r.GooglePlaceID
	case ProviderYelp:
		return r.YelpBusinessID
	case ProviderFoursquare:
		return r.FoursquareID
	}
	return ""
}

// SetExternalID stores id as the restaurant's cross-reference for p.
func (r *Restaurant) SetExternalID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		r.GooglePlaceID = id
	case ProviderYelp:
		r.YelpBusinessID = id
	case ProviderFoursquare:
		r.FoursquareID = id
	}
}

// HasExternalID reports whether any provider id is populated.
func (r *Restaurant) HasExternalID() bool {
	return r.GooglePlaceID != "" || r.YelpBusinessID != "" || r.FoursquareID != ""
}

// RoundRating clamps a rating to [0,5] with one decimal.
func RoundRating(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return math.Round(v*10) / 10
}

// PhotoAsset is a photo owned by a restaurant.
type PhotoAsset struct {
	ID                 string       `json:"id,omitempty"`
	RestaurantID       string       `json:"restaurant_id,omitempty"`
	URL                string       `json:"url"`
	Caption            string       `json:"caption,omitempty"`
	Source             PhotoSource  `json:"source"`
	Type               PhotoType    `json:"type"`
	Quality            PhotoQuality `json:"quality"`
	IsPrimary          bool         `json:"is_primary"`
	IsVerified         bool         `json:"is_verified"`
	CulturallyRelevant bool         `json:"culturally_relevant"`
}
