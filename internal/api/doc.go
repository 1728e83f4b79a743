// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package api serves the admin HTTP API of the pipeline.
//
// Long-running work (enhancement, collection) is never done inside a request:
// handlers submit a task and answer 202 Accepted with its id, and callers
// follow progress through /api/v1/admin/tasks/{id} or the /api/v1/ws event
// stream. Read endpoints (quality, usage, health) answer synchronously.
//
// Every JSON response uses the Response envelope:
//
//	{"status":"success","data":...,"metadata":{"timestamp":"..."}}
//	{"status":"error","error":{"code":"VALIDATION_ERROR","message":"..."},...}
package api
