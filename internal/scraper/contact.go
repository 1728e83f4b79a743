// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package scraper

import (
	"strings"
)

// placeholderPhones are digit strings that show up in templates and demo listings.
var placeholderPhones = map[string]bool{
	"5555555555": true,
	"0000000000": true,
	"1234567890": true,
}

// CleanPhone keeps digits and '+' and returns "" for values with fewer than ten
// digits or that match a known placeholder number.
func CleanPhone(raw string) string {
	var b strings.Builder
	digits := 0
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+':
			b.WriteRune(r)
		}
	}
	if digits < 10 {
		return ""
	}
	cleaned := b.String()

	national := strings.TrimPrefix(cleaned, "+")
	if len(national) == 11 && national[0] == '1' {
		national = national[1:]
	}
	if placeholderPhones[national] {
		return ""
	}
	return cleaned
}

// CleanWebsite trims raw and returns "" for obvious placeholder URLs.
func CleanWebsite(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if s == "" || strings.Contains(lower, "example") || strings.Contains(lower, "placeholder") {
		return ""
	}
	return s
}
