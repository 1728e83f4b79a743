// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/tomtom215/afritable/internal/models"
)

var (
	phonePattern    = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
	phoneSeparators = regexp.MustCompile(`[\s\-().]`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// NormalizePhone strips spaces, dashes, dots and parentheses.
func NormalizePhone(phone string) string {
	return phoneSeparators.ReplaceAllString(strings.TrimSpace(phone), "")
}

// IsValidPhone reports whether phone is an E.164-like number once separators
// are removed.
func IsValidPhone(phone string) bool {
	if strings.TrimSpace(phone) == "" {
		return false
	}
	return phonePattern.MatchString(NormalizePhone(phone))
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

var addressWords = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"av":   "avenue",
	"blvd": "boulevard",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"pl":   "place",
	"hwy":  "highway",
	"pkwy": "parkway",
	"ste":  "suite",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
}

// NormalizeAddress lowercases an address, drops periods and commas and
// expands common street suffix and direction abbreviations.
func NormalizeAddress(address string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return ' '
		}
		return r
	}, strings.ToLower(strings.TrimSpace(address)))

	words := strings.Fields(cleaned)
	for i, w := range words {
		if full, ok := addressWords[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// IsValidWebsite accepts absolute http and https URLs with a host.
func IsValidWebsite(site string) bool {
	site = strings.TrimSpace(site)
	if site == "" {
		return false
	}
	u, err := url.ParseRequestURI(site)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// HasValidAddress requires a street address and non-zero coordinates.
func HasValidAddress(r *models.Restaurant) bool {
	return strings.TrimSpace(r.Address) != "" && r.Latitude != 0 && r.Longitude != 0
}

// HasBusinessHours reports whether any weekday has both open and close set.
func HasBusinessHours(r *models.Restaurant) bool {
	return r.Hours.HasAny()
}

// BusinessInfo is the outcome of the business-information checks.
type BusinessInfo struct {
	PhoneValid   bool `json:"phone_valid"`
	AddressValid bool `json:"address_valid"`
	WebsiteValid bool `json:"website_valid"`
	HasHours     bool `json:"has_hours"`
}

// CheckBusinessInfo runs every business-information check against r.
func CheckBusinessInfo(r *models.Restaurant) BusinessInfo {
	return BusinessInfo{
		PhoneValid:   IsValidPhone(r.Phone),
		AddressValid: HasValidAddress(r),
		WebsiteValid: IsValidWebsite(r.Website),
		HasHours:     HasBusinessHours(r),
	}
}
