// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package models

// Provider identifies an external place-data source.
type Provider string

const (
	ProviderGoogle     Provider = "GOOGLE"
	ProviderYelp       Provider = "YELP"
	ProviderFoursquare Provider = "FOURSQUARE"
)

// ProviderOrder is the fixed priority used to break ties between providers.
var ProviderOrder = []Provider{ProviderGoogle, ProviderYelp, ProviderFoursquare}

// Key returns the lower-case form used in config keys, metric labels and quota keys.
func (p Provider) Key() string {
	switch p {
	case ProviderGoogle:
		return "google"
	case ProviderYelp:
		return "yelp"
	case ProviderFoursquare:
		return "foursquare"
	default:
		return "unknown"
	}
}

// PriceTier is the canonical four-tier price enum.
type PriceTier string

const (
	PriceBudget        PriceTier = "BUDGET"
	PriceModerate      PriceTier = "MODERATE"
	PriceExpensive     PriceTier = "EXPENSIVE"
	PriceVeryExpensive PriceTier = "VERY_EXPENSIVE"
)

// PhotoSource is where a photo was obtained.
type PhotoSource string

const (
	PhotoSourceGoogle     PhotoSource = "GOOGLE"
	PhotoSourceYelp       PhotoSource = "YELP"
	PhotoSourceFoursquare PhotoSource = "FOURSQUARE"
	PhotoSourceWebsite    PhotoSource = "WEBSITE"
	PhotoSourceInstagram  PhotoSource = "INSTAGRAM"
	PhotoSourceManual     PhotoSource = "MANUAL"
)

// PhotoSourceFor maps a provider to its photo source.
func PhotoSourceFor(p Provider) PhotoSource {
	switch p {
	case ProviderGoogle:
		return PhotoSourceGoogle
	case ProviderYelp:
		return PhotoSourceYelp
	case ProviderFoursquare:
		return PhotoSourceFoursquare
	default:
		return PhotoSourceManual
	}
}

type PhotoType string

const (
	PhotoTypeFood     PhotoType = "FOOD"
	PhotoTypeInterior PhotoType = "INTERIOR"
	PhotoTypeExterior PhotoType = "EXTERIOR"
	PhotoTypeMenu     PhotoType = "MENU"
	PhotoTypeChef     PhotoType = "CHEF"
	PhotoTypeOther    PhotoType = "OTHER"
)

type PhotoQuality string

const (
	PhotoQualityHigh   PhotoQuality = "HIGH"
	PhotoQualityMedium PhotoQuality = "MEDIUM"
	PhotoQualityLow    PhotoQuality = "LOW"
)

// IssueType classifies a data quality issue.
type IssueType string

const (
	IssueMissingData      IssueType = "MISSING_DATA"
	IssueInaccurateData   IssueType = "INACCURATE_DATA"
	IssueLowQualityPhotos IssueType = "LOW_QUALITY_PHOTOS"
	IssueOutdatedInfo     IssueType = "OUTDATED_INFO"
	IssueDuplicateEntry   IssueType = "DUPLICATE_ENTRY"
)

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// VerificationStatus is derived from a quality score.
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "VERIFIED"
	StatusPending  VerificationStatus = "PENDING"
	StatusFlagged  VerificationStatus = "FLAGGED"
)
