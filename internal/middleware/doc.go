// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package middleware holds the HTTP middleware shared by the admin API:
// request ids wired into the logging context and Prometheus request metrics.
//
// Both middlewares use the http.HandlerFunc shape; the api package adapts them
// for chi.
package middleware
