// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"errors"
	"fmt"

	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/quota"
)

var (
	// ErrNotConfigured is returned when a provider has no API key.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrQuotaExceeded aliases quota.ErrQuotaExceeded so callers need only this package.
	ErrQuotaExceeded = quota.ErrQuotaExceeded

	// ErrNotImplemented is returned by capability stubs.
	ErrNotImplemented = errors.New("not implemented")
)

// APIError is a provider-reported failure: a non-2xx status or an error
// payload inside a 200 response.
type APIError struct {
	Provider   models.Provider
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider.Key(), e.StatusCode, e.Message)
}

// IsAPIError reports whether err wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
