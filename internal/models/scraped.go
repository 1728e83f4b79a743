// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package models

// MenuItem is a dish extracted from a restaurant website.
type MenuItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Category    string   `json:"category,omitempty"`
	DietaryTags []string `json:"dietary_tags"`
	IsPopular   bool     `json:"is_popular"`
	Ingredients []string `json:"ingredients"`
}

type ScrapedPhoto struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type ScrapedReview struct {
	Author string  `json:"author,omitempty"`
	Text   string  `json:"text"`
	Rating float64 `json:"rating,omitempty"`
}

type Pricing struct {
	Range    string `json:"range"`
	Currency string `json:"currency"`
}

type Contact struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// ScrapedRestaurantData is what a website scrape yields. A failed scrape is
// represented by EmptyScrapedData, never by an error.
type ScrapedRestaurantData struct {
	MenuItems     []MenuItem        `json:"menu_items"`
	SocialMedia   map[string]string `json:"social_media"`
	BusinessHours WeeklyHours       `json:"business_hours"`
	Photos        []ScrapedPhoto    `json:"photos"`
	Description   string            `json:"description"`
	Pricing       Pricing           `json:"pricing"`
	Contact       Contact           `json:"contact"`
	Reviews       []ScrapedReview   `json:"reviews"`
}

// EmptyScrapedData returns a result with empty collections and blank scalars.
func EmptyScrapedData() ScrapedRestaurantData {
	return ScrapedRestaurantData{
		MenuItems:     []MenuItem{},
		SocialMedia:   map[string]string{},
		BusinessHours: EmptyWeeklyHours(),
		Photos:        []ScrapedPhoto{},
		Reviews:       []ScrapedReview{},
	}
}

// Useful reports whether the scrape produced anything worth merging.
func (d *ScrapedRestaurantData) Useful() bool {
	return len(d.MenuItems) > 0 || len(d.SocialMedia) > 0
}

// MapsListing is the raw business panel captured by the headless Maps scraper.
type MapsListing struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Photos      []string `json:"photos"`
}
