// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package scraper reads restaurant websites with goquery and Google Maps
// business panels with a headless Chrome (chromedp). Website scraping is
// best-effort and never returns an error.
package scraper
