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

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/afritable/internal/models"
)

// RecordQualityEvent appends an enhancement outcome.
func (db *DB) RecordQualityEvent(ctx context.Context, ev *models.QualityEvent) (err error) {
	defer observe("insert", "quality_events", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	sources, err := encodeJSON(ev.Sources, len(ev.Sources) == 0)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `INSERT INTO quality_events (
		id, restaurant_id, score, status, discrepancies, photos_collected, sources, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.RestaurantID, ev.Score, string(ev.Status), ev.Discrepancies, ev.PhotosCollected,
		sources, ev.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert quality event: %w", err)
	}
	return nil
}

// ListQualityEvents returns a restaurant's most recent events, newest first.
func (db *DB) ListQualityEvents(ctx context.Context, restaurantID string, limit int) (out []models.QualityEvent, err error) {
	defer observe("select", "quality_events", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT id, restaurant_id, score, status, discrepancies,
		photos_collected, sources, created_at
		FROM quality_events WHERE restaurant_id = ?
		ORDER BY created_at DESC, id LIMIT ?`, restaurantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list quality events: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			ev      models.QualityEvent
			status  string
			sources sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.RestaurantID, &ev.Score, &status, &ev.Discrepancies,
			&ev.PhotosCollected, &sources, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quality event: %w", err)
		}
		ev.Status = models.VerificationStatus(status)
		ev.CreatedAt = ev.CreatedAt.UTC()
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &ev.Sources); err != nil {
				return nil, fmt.Errorf("decode sources: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RecordDiscrepancies appends the discrepancies found in one enhancement run.
func (db *DB) RecordDiscrepancies(ctx context.Context, restaurantID string, ds []models.Discrepancy) (err error) {
	if len(ds) == 0 {
		return nil
	}
	defer observe("insert", "discrepancies", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range ds {
			values, err := json.Marshal(d.Values)
			if err != nil {
				return fmt.Errorf("encode %s values: %w", d.Field, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO discrepancies (
				id, restaurant_id, field, source_values, resolution, confidence, resolved, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), restaurantID, d.Field, string(values), d.Resolution, d.Confidence, d.Resolved, now); err != nil {
				return fmt.Errorf("insert %s discrepancy: %w", d.Field, err)
			}
		}
		return nil
	})
}

// ListDiscrepancies returns a restaurant's recorded discrepancies, newest
// first.
func (db *DB) ListDiscrepancies(ctx context.Context, restaurantID string) (out []models.Discrepancy, err error) {
	defer observe("select", "discrepancies", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT field, source_values, resolution, confidence, resolved
		FROM discrepancies WHERE restaurant_id = ? ORDER BY created_at DESC, field`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list discrepancies: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			d      models.Discrepancy
			values string
		)
		if err := rows.Scan(&d.Field, &values, &d.Resolution, &d.Confidence, &d.Resolved); err != nil {
			return nil, fmt.Errorf("scan discrepancy: %w", err)
		}
		if err := json.Unmarshal([]byte(values), &d.Values); err != nil {
			return nil, fmt.Errorf("decode %s values: %w", d.Field, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetVerified sets the verification flag.
func (db *DB) SetVerified(ctx context.Context, id string, verified bool) (err error) {
	defer observe("update", "restaurants", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, "UPDATE restaurants SET is_verified = ? WHERE id = ?", verified, id)
	if err != nil {
		return fmt.Errorf("set verified on %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("restaurant %s: %w", id, models.ErrNotFound)
	}
	return nil
}
