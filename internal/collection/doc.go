// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package collection searches every provider across the configured metro
// areas and upserts what it finds into the restaurant store.
//
// Search results are folded with Dedupe on a name plus normalized address key.
// Upsert then matches each candidate against stored records by provider id,
// then by name and coordinates, then by name and address. A match gains the
// candidate's missing fields and any provider ids no other restaurant owns.
//
// Searches are paced between terms, regions and metros, and a provider that
// reports its daily quota exhausted is skipped for the rest of the run.
package collection
