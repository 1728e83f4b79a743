// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

/*
Package models defines the data structures shared by the Afritable pipeline.

Key Components:

  - Restaurant: canonical restaurant record, keyed by an internal id with nullable
    cross-references to Google Places, Yelp and Foursquare
  - SourceRecord: a single provider's transient view of a place
  - PhotoAsset: a classified photo owned by a restaurant
  - Discrepancy: a field-level disagreement between providers and its resolution
  - QualityMetrics: per-restaurant quality scores, issues and recommendations
  - ScrapedRestaurantData / MapsListing: output of the website and Maps scrapers

Enumerations (Provider, PriceTier, PhotoType, PhotoQuality, IssueType, Severity,
VerificationStatus) are string types so they serialize as their upper-case names
in JSON, DuckDB columns and log fields alike.

Records in this package carry no behavior beyond small helpers. Matching,
merging and scoring live in the collection, enhancement and monitoring packages.
*/
package models
