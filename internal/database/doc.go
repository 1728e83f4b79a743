// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package database is the DuckDB-backed restaurant store.
//
// # Files
//
//   - database.go: connection lifecycle and pool configuration
//   - schema.go: table and index creation
//   - restaurants.go: restaurant CRUD and the finders used for matching
//   - photos.go: per-restaurant photo replacement and loading
//   - quality.go: quality events, discrepancy history and verification flags
//
// # Conventions
//
// Every method takes a context and applies a 30 second timeout when the caller
// did not set a deadline. Finders return an error wrapping models.ErrNotFound
// when no row matches. Empty external ids are stored as NULL so that the
// provider id indexes only cover real ids. Weekly hours, cuisine tags and
// discrepancy values are stored as JSON text.
//
// Every query is timed into afritable_db_query_duration_seconds with its
// operation and table labels.
package database
