// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package logging provides the process-wide zerolog logger for Afritable.
//
// The package keeps a single global logger configured once at startup and hands
// out component loggers derived from it:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	log := logging.WithComponent("enhancement")
//	log.Info().Str("restaurant_id", id).Msg("enhancement started")
//
// Context helpers attach correlation, request and task identifiers so that a
// single enhancement run can be followed across adapters, scrapers and the
// store:
//
//	ctx = logging.ContextWithTaskID(ctx, task.ID)
//	logging.Ctx(ctx).Warn().Err(err).Msg("provider skipped")
//
// NewSlogLogger bridges the logger to log/slog for libraries that only accept
// a *slog.Logger, such as the suture supervisor hooks.
//
// Field names are snake_case. Secrets embedded in provider URLs must be passed
// through RedactURL before they are logged.
package logging
