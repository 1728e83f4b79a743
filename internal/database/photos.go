// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/afritable/internal/models"
)

// ReplacePhotos deletes a restaurant's photos and inserts photos in order.
// The first photo becomes the primary one.
func (db *DB) ReplacePhotos(ctx context.Context, restaurantID string, photos []models.PhotoAsset) (err error) {
	defer observe("replace", "photos", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE restaurant_id = ?", restaurantID); err != nil {
			return fmt.Errorf("delete photos for %s: %w", restaurantID, err)
		}
		for i, p := range photos {
			_, err := tx.ExecContext(ctx, `INSERT INTO photos (
				id, restaurant_id, position, url, caption, source, type, quality,
				is_primary, is_verified, culturally_relevant, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), restaurantID, i, p.URL, p.Caption,
				string(p.Source), string(p.Type), string(p.Quality),
				i == 0, p.IsVerified, p.CulturallyRelevant, now)
			if err != nil {
				return fmt.Errorf("insert photo %d for %s: %w", i, restaurantID, err)
			}
		}
		return nil
	})
}

// attachPhotos loads the photos of rs in one query.
func (db *DB) attachPhotos(ctx context.Context, rs []*models.Restaurant) error {
	if len(rs) == 0 {
		return nil
	}
	byID := make(map[string]*models.Restaurant, len(rs))
	args := make([]any, 0, len(rs))
	for _, r := range rs {
		byID[r.ID] = r
		args = append(args, r.ID)
	}

	query := `SELECT id, restaurant_id, url, caption, source, type, quality,
		is_primary, is_verified, culturally_relevant
		FROM photos`
	if len(rs) < 500 {
		query += " WHERE restaurant_id IN (" + placeholders(len(rs)) + ")"
	} else {
		args = nil
	}
	query += " ORDER BY restaurant_id, position"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load photos: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			p                    models.PhotoAsset
			source, typ, quality string
		)
		if err := rows.Scan(&p.ID, &p.RestaurantID, &p.URL, &p.Caption, &source, &typ, &quality,
			&p.IsPrimary, &p.IsVerified, &p.CulturallyRelevant); err != nil {
			return fmt.Errorf("scan photo: %w", err)
		}
		p.Source = models.PhotoSource(source)
		p.Type = models.PhotoType(typ)
		p.Quality = models.PhotoQuality(quality)
		if r, ok := byID[p.RestaurantID]; ok {
			r.Photos = append(r.Photos, p)
		}
	}
	return rows.Err()
}
