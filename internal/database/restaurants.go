// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/afritable/internal/models"
)

const restaurantColumns = `id, google_place_id, yelp_business_id, foursquare_id,
	name, address, city, state, zip_code, country, latitude, longitude,
	phone, website, email, description, cuisine, price_range, rating, review_count,
	hours, last_updated, created_at, is_verified, data_source`

type rowScanner interface {
	Scan(dest ...any) error
}

func externalIDColumn(p models.Provider) (string, error) {
	switch p {
	case models.ProviderGoogle:
		return "google_place_id", nil
	case models.ProviderYelp:
		return "yelp_business_id", nil
	case models.ProviderFoursquare:
		return "foursquare_id", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, p)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func encodeJSON(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func restaurantArgs(r *models.Restaurant) ([]any, error) {
	cuisine, err := encodeJSON(r.Cuisine, len(r.Cuisine) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode cuisine: %w", err)
	}
	hours, err := encodeJSON(r.Hours, len(r.Hours) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode hours: %w", err)
	}
	return []any{
		r.ID, nullIfEmpty(r.GooglePlaceID), nullIfEmpty(r.YelpBusinessID), nullIfEmpty(r.FoursquareID),
		r.Name, r.Address, r.City, r.State, r.ZipCode, r.Country, r.Latitude, r.Longitude,
		r.Phone, r.Website, r.Email, r.Description, cuisine, string(r.PriceRange), r.Rating, r.ReviewCount,
		hours, nullTime(r.LastUpdated), r.CreatedAt.UTC(), r.IsVerified, r.DataSource,
	}, nil
}

func scanRestaurant(row rowScanner) (*models.Restaurant, error) {
	var (
		r                     models.Restaurant
		google, yelp, fsq     sql.NullString
		cuisine, hours, price sql.NullString
		lastUpdated           sql.NullTime
	)
	err := row.Scan(
		&r.ID, &google, &yelp, &fsq,
		&r.Name, &r.Address, &r.City, &r.State, &r.ZipCode, &r.Country, &r.Latitude, &r.Longitude,
		&r.Phone, &r.Website, &r.Email, &r.Description, &cuisine, &price, &r.Rating, &r.ReviewCount,
		&hours, &lastUpdated, &r.CreatedAt, &r.IsVerified, &r.DataSource,
	)
	if err != nil {
		return nil, err
	}
	r.GooglePlaceID, r.YelpBusinessID, r.FoursquareID = google.String, yelp.String, fsq.String
	r.PriceRange = models.PriceTier(price.String)
	if lastUpdated.Valid {
		r.LastUpdated = lastUpdated.Time.UTC()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	if cuisine.Valid && cuisine.String != "" {
		if err := json.Unmarshal([]byte(cuisine.String), &r.Cuisine); err != nil {
			return nil, fmt.Errorf("decode cuisine for %s: %w", r.ID, err)
		}
	}
	if hours.Valid && hours.String != "" {
		if err := json.Unmarshal([]byte(hours.String), &r.Hours); err != nil {
			return nil, fmt.Errorf("decode hours for %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

// CreateRestaurant inserts r. CreatedAt defaults to now.
func (db *DB) CreateRestaurant(ctx context.Context, r *models.Restaurant) (err error) {
	defer observe("insert", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if r.ID == "" {
		return ErrMissingID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	args, err := restaurantArgs(r)
	if err != nil {
		return err
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkExternalIDs(ctx, tx, r); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO restaurants ("+restaurantColumns+") VALUES ("+placeholders(25)+")", args...); err != nil {
			return fmt.Errorf("insert restaurant: %w", err)
		}
		return nil
	})
}

// UpdateRestaurant overwrites every column of the row with r's id. Photos are
// not touched. Taking a provider id that another row carries fails with
// ErrDuplicateExternalID.
func (db *DB) UpdateRestaurant(ctx context.Context, r *models.Restaurant) (err error) {
	defer observe("update", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	args, err := restaurantArgs(r)
	if err != nil {
		return err
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkExternalIDs(ctx, tx, r); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE restaurants SET
			google_place_id = ?, yelp_business_id = ?, foursquare_id = ?,
			name = ?, address = ?, city = ?, state = ?, zip_code = ?, country = ?, latitude = ?, longitude = ?,
			phone = ?, website = ?, email = ?, description = ?, cuisine = ?, price_range = ?, rating = ?, review_count = ?,
			hours = ?, last_updated = ?, created_at = ?, is_verified = ?, data_source = ?
			WHERE id = ?`, append(args[1:], r.ID)...)
		if err != nil {
			return fmt.Errorf("update restaurant %s: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("restaurant %s: %w", r.ID, models.ErrNotFound)
		}
		return nil
	})
}

// checkExternalIDs fails with ErrDuplicateExternalID when a row other than r
// already carries one of r's provider ids.
func checkExternalIDs(ctx context.Context, tx *sql.Tx, r *models.Restaurant) error {
	for _, p := range models.ProviderOrder {
		id := r.ExternalID(p)
		if id == "" {
			continue
		}
		col, _ := externalIDColumn(p)
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM restaurants WHERE "+col+" = ? AND id <> ?", id, r.ID).Scan(&n); err != nil {
			return fmt.Errorf("check %s: %w", col, err)
		}
		if n > 0 {
			return fmt.Errorf("%s %s: %w", p.Key(), id, ErrDuplicateExternalID)
		}
	}
	return nil
}

// GetRestaurant loads one restaurant with its photos.
func (db *DB) GetRestaurant(ctx context.Context, id string) (r *models.Restaurant, err error) {
	defer observe("select", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	r, err = db.queryOne(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("restaurant %s: %w", id, err)
	}
	if err := db.attachPhotos(ctx, []*models.Restaurant{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRestaurants returns every restaurant with photos, ordered by name.
func (db *DB) ListRestaurants(ctx context.Context) (out []*models.Restaurant, err error) {
	defer observe("select", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, "SELECT "+restaurantColumns+" FROM restaurants ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}
	if err := db.attachPhotos(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountRestaurants returns the number of stored restaurants.
func (db *DB) CountRestaurants(ctx context.Context) (n int, err error) {
	defer observe("count", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM restaurants").Scan(&n)
	return n, err
}

// FindByExternalID finds the restaurant carrying a provider's id.
func (db *DB) FindByExternalID(ctx context.Context, p models.Provider, id string) (r *models.Restaurant, err error) {
	defer observe("find_external", "restaurants", time.Now(), &err)
	col, err := externalIDColumn(p)
	if err != nil {
		return nil, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	r, err = db.queryOne(ctx, "WHERE "+col+" = ?", id)
	if err != nil {
		return nil, fmt.Errorf("%s id %s: %w", p.Key(), id, err)
	}
	return r, nil
}

// FindByNameCoordinates matches on the exact name and coordinates.
func (db *DB) FindByNameCoordinates(ctx context.Context, name string, lat, lng float64) (r *models.Restaurant, err error) {
	defer observe("find_name_coords", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	r, err = db.queryOne(ctx, "WHERE name = ? AND latitude = ? AND longitude = ?", name, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("%q at %f,%f: %w", name, lat, lng, err)
	}
	return r, nil
}

// FindByNameAddress matches name and address case-insensitively after
// trimming.
func (db *DB) FindByNameAddress(ctx context.Context, name, address string) (r *models.Restaurant, err error) {
	defer observe("find_name_address", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	r, err = db.queryOne(ctx, "WHERE lower(trim(name)) = ? AND lower(trim(address)) = ?",
		strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(address)))
	if err != nil {
		return nil, fmt.Errorf("%q at %q: %w", name, address, err)
	}
	return r, nil
}

// queryOne returns the first matching restaurant without photos, or an
// error wrapping models.ErrNotFound.
func (db *DB) queryOne(ctx context.Context, where string, args ...any) (*models.Restaurant, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants "+where+" ORDER BY created_at, id LIMIT 1", args...)
	r, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
