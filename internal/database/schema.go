// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package database

import (
	"context"
	"fmt"
	"time"
)

var tableQueries = []string{
	`CREATE TABLE IF NOT EXISTS restaurants (
		id VARCHAR PRIMARY KEY,
		google_place_id VARCHAR,
		yelp_business_id VARCHAR,
		foursquare_id VARCHAR,
		name VARCHAR NOT NULL,
		address VARCHAR NOT NULL DEFAULT '',
		city VARCHAR NOT NULL DEFAULT '',
		state VARCHAR NOT NULL DEFAULT '',
		zip_code VARCHAR NOT NULL DEFAULT '',
		country VARCHAR NOT NULL DEFAULT '',
		latitude DOUBLE NOT NULL DEFAULT 0,
		longitude DOUBLE NOT NULL DEFAULT 0,
		phone VARCHAR NOT NULL DEFAULT '',
		website VARCHAR NOT NULL DEFAULT '',
		email VARCHAR NOT NULL DEFAULT '',
		description VARCHAR NOT NULL DEFAULT '',
		cuisine VARCHAR,
		price_range VARCHAR NOT NULL DEFAULT '',
		rating DOUBLE NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		hours VARCHAR,
		last_updated TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT false,
		data_source VARCHAR NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS photos (
		id VARCHAR PRIMARY KEY,
		restaurant_id VARCHAR NOT NULL,
		position INTEGER NOT NULL,
		url VARCHAR NOT NULL,
		caption VARCHAR NOT NULL DEFAULT '',
		source VARCHAR NOT NULL,
		type VARCHAR NOT NULL,
		quality VARCHAR NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT false,
		is_verified BOOLEAN NOT NULL DEFAULT false,
		culturally_relevant BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS quality_events (
		id VARCHAR PRIMARY KEY,
		restaurant_id VARCHAR NOT NULL,
		score DOUBLE NOT NULL,
		status VARCHAR NOT NULL,
		discrepancies INTEGER NOT NULL DEFAULT 0,
		photos_collected INTEGER NOT NULL DEFAULT 0,
		sources VARCHAR,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS discrepancies (
		id VARCHAR PRIMARY KEY,
		restaurant_id VARCHAR NOT NULL,
		field VARCHAR NOT NULL,
		source_values VARCHAR NOT NULL,
		resolution VARCHAR NOT NULL DEFAULT '',
		confidence DOUBLE NOT NULL DEFAULT 0,
		resolved BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL
	)`,
}

// External id indexes are not UNIQUE; CreateRestaurant checks uniqueness.
var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_restaurants_google ON restaurants(google_place_id)`,
	`CREATE INDEX IF NOT EXISTS idx_restaurants_yelp ON restaurants(yelp_business_id)`,
	`CREATE INDEX IF NOT EXISTS idx_restaurants_foursquare ON restaurants(foursquare_id)`,
	`CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants(name)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_restaurant ON photos(restaurant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_quality_events_restaurant ON quality_events(restaurant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_discrepancies_restaurant ON discrepancies(restaurant_id)`,
}

func (db *DB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, q := range append(append([]string{}, tableQueries...), indexQueries...) {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(q), err)
		}
	}
	return nil
}

func firstLine(q string) string {
	for i, r := range q {
		if r == '\n' {
			return q[:i]
		}
	}
	return q
}
