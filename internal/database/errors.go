// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package database

import (
	"errors"
	"io"
	"time"

	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
)

var (
	// ErrDuplicateExternalID is returned by CreateRestaurant and
	// UpdateRestaurant when another row already carries one of the record's
	// provider ids.
	ErrDuplicateExternalID = errors.New("external id already belongs to another restaurant")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrMissingID           = errors.New("restaurant id is required")
)

// closeWithLog closes a resource and logs a failure.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on error paths where the close error is not
// actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// observe records a query's duration and outcome. Call it deferred with a
// pointer to the named error result.
func observe(operation, table string, start time.Time, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), e)
}
