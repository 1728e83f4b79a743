// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package models

// SourcePhoto is a photo reference returned by a provider.
type SourcePhoto struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// SourceRecord is one provider's view of a place. It is never persisted as-is;
// collection and enhancement fold it into a Restaurant.
type SourceRecord struct {
	Source     Provider `json:"source"`
	ExternalID string   `json:"external_id"`

	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zip_code"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Phone       string      `json:"phone"`
	Website     string      `json:"website"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	PriceRange  PriceTier   `json:"price_range,omitempty"`
	Categories  []string    `json:"categories,omitempty"`
	Hours       WeeklyHours `json:"hours,omitempty"`

	Photos []SourcePhoto `json:"photos,omitempty"`

	// Region is set by batch collection to the sub-region that produced the record.
	Region string `json:"region,omitempty"`
}

// ToRestaurant builds a new Restaurant from a source record.
func (s *SourceRecord) ToRestaurant() *Restaurant {
	r := &Restaurant{
		Name:        s.Name,
		Address:     s.Address,
		City:        s.City,
		State:       s.State,
		ZipCode:     s.ZipCode,
		Country:     s.Country,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Phone:       s.Phone,
		Website:     s.Website,
		Cuisine:     append([]string(nil), s.Categories...),
		PriceRange:  s.PriceRange,
		Rating:      RoundRating(s.Rating),
		ReviewCount: s.ReviewCount,
		Hours:       s.Hours,
		DataSource:  s.Source.Key(),
	}
	r.SetExternalID(s.Source, s.ExternalID)
	return r
}

// Discrepancy records a field-level disagreement between providers.
type Discrepancy struct {
	Field      string              `json:"field"`
	Values     map[Provider]string `json:"values"`
	Resolution string              `json:"resolution"`
	Confidence float64             `json:"confidence"`
	Resolved   bool                `json:"resolved"`
}

// LosingValues returns the values that differ from the resolution, in provider order.
func (d *Discrepancy) LosingValues() []string {
	var out []string
	for _, p := range ProviderOrder {
		if v, ok := d.Values[p]; ok && v != d.Resolution {
			out = append(out, v)
		}
	}
	return out
}
