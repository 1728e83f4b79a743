// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package logging

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters that carry provider credentials.
var sensitiveParams = []string{"key", "api_key", "apikey", "token", "access_token", "client_secret"}

// RedactURL masks credential query parameters so provider URLs can be logged.
// Unparseable input is returned as "[invalid url]".
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid url]"
	}
	q := u.Query()
	changed := false
	for k := range q {
		if isSensitive(k) {
			q.Set(k, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// MaskSecret keeps the last four characters of s.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func isSensitive(param string) bool {
	p := strings.ToLower(param)
	for _, s := range sensitiveParams {
		if p == s {
			return true
		}
	}
	return false
}
