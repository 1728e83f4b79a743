// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package monitoring

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/validation"
)

const (
	requiredFieldPoints = 8
	optionalFieldPoints = 2
	completenessTotal   = 10*requiredFieldPoints + 5*optionalFieldPoints
	accuracyCheckPoints = 20
	verificationPoints  = 25
	minDescriptionLen   = 50
	minPhotos           = 3
)

// Fixed suggested actions, one per issue rule.
const (
	ActionAddPhone       = "Add a contact phone number from Google Places or the restaurant website"
	ActionAddWebsite     = "Add the restaurant website or a social media page"
	ActionAddDescription = "Write a description of at least 50 characters covering cuisine and atmosphere"
	ActionAddPhotos      = "Collect photos from linked sources or request them from the owner"
	ActionMorePhotos     = "Collect at least 3 photos, prioritizing food photos"
	ActionRefresh        = "Re-run enhancement to refresh data from all linked sources"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// Assess scores r as of now. staleAfter is the OUTDATED_INFO threshold.
func Assess(r *models.Restaurant, now time.Time, staleAfter time.Duration) *models.QualityMetrics {
	m := &models.QualityMetrics{
		RestaurantID: r.ID,
		Completeness: Completeness(r),
		Accuracy:     Accuracy(r),
		PhotoQuality: PhotoScore(r.Photos),
		Verification: VerificationScore(r),
		AssessedAt:   now,
	}
	m.OverallScore = (m.Completeness + m.Accuracy + m.PhotoQuality + m.Verification) / 4
	m.Issues = Issues(r, now, staleAfter)
	m.Recommendations = recommendations(m)
	return m
}

// Completeness weighs ten required and five optional fields.
func Completeness(r *models.Restaurant) float64 {
	required := []bool{
		filled(r.Name),
		filled(r.Address),
		filled(r.City),
		filled(r.State),
		filled(r.Phone),
		r.Latitude != 0,
		r.Longitude != 0,
		len(r.Cuisine) > 0,
		r.PriceRange != "",
		r.Hours.HasAny(),
	}
	optional := []bool{
		filled(r.Website),
		filled(r.Email),
		filled(r.Description),
		r.Rating > 0,
		filled(r.ZipCode),
	}
	points := 0
	for _, ok := range required {
		if ok {
			points += requiredFieldPoints
		}
	}
	for _, ok := range optional {
		if ok {
			points += optionalFieldPoints
		}
	}
	return float64(points) / completenessTotal
}

// Accuracy runs five format checks worth 20 points each.
func Accuracy(r *models.Restaurant) float64 {
	points := 0
	for _, ok := range []bool{
		validation.IsValidPhone(r.Phone),
		r.Latitude != 0 && r.Longitude != 0,
		validation.IsValidWebsite(r.Website),
		validation.IsValidEmail(r.Email),
		r.Hours.HasAny(),
	} {
		if ok {
			points += accuracyCheckPoints
		}
	}
	return float64(points) / 100
}

// PhotoScore gives each photo 5 points for an image extension, 3 for a caption
// and 2 for being primary, normalized by 10 per photo.
func PhotoScore(photos []models.PhotoAsset) float64 {
	if len(photos) == 0 {
		return 0
	}
	points := 0
	for _, p := range photos {
		if hasImageExtension(p.URL) {
			points += 5
		}
		if filled(p.Caption) {
			points += 3
		}
		if p.IsPrimary {
			points += 2
		}
	}
	return min(1, float64(points)/float64(len(photos)*10))
}

// VerificationScore counts linked providers and the verified flag.
func VerificationScore(r *models.Restaurant) float64 {
	points := 0
	for _, ok := range []bool{r.GooglePlaceID != "", r.YelpBusinessID != "", r.FoursquareID != "", r.IsVerified} {
		if ok {
			points += verificationPoints
		}
	}
	return float64(points) / 100
}

// Issues applies the issue rules to r.
func Issues(r *models.Restaurant, now time.Time, staleAfter time.Duration) []models.Issue {
	issues := []models.Issue{}
	if !filled(r.Phone) {
		issues = append(issues, models.Issue{
			Type: models.IssueMissingData, Severity: models.SeverityHigh, Field: "phone",
			Description: "Restaurant has no phone number", SuggestedAction: ActionAddPhone,
		})
	}
	if !filled(r.Website) {
		issues = append(issues, models.Issue{
			Type: models.IssueMissingData, Severity: models.SeverityMedium, Field: "website",
			Description: "Restaurant has no website", SuggestedAction: ActionAddWebsite,
		})
	}
	if len(strings.TrimSpace(r.Description)) < minDescriptionLen {
		issues = append(issues, models.Issue{
			Type: models.IssueMissingData, Severity: models.SeverityMedium, Field: "description",
			Description: "Description is missing or too short", SuggestedAction: ActionAddDescription,
		})
	}
	switch n := len(r.Photos); {
	case n == 0:
		issues = append(issues, models.Issue{
			Type: models.IssueMissingData, Severity: models.SeverityHigh, Field: "photos",
			Description: "Restaurant has no photos", SuggestedAction: ActionAddPhotos,
		})
	case n < minPhotos:
		issues = append(issues, models.Issue{
			Type: models.IssueLowQualityPhotos, Severity: models.SeverityMedium, Field: "photos",
			Description: "Restaurant has fewer than 3 photos", SuggestedAction: ActionMorePhotos,
		})
	}
	if IsOutdated(r, now, staleAfter) {
		issues = append(issues, models.Issue{
			Type: models.IssueOutdatedInfo, Severity: models.SeverityMedium, Field: "last_updated",
			Description: "Restaurant data has not been refreshed recently", SuggestedAction: ActionRefresh,
		})
	}
	return issues
}

// IsOutdated reports whether r was last updated more than staleAfter ago.
func IsOutdated(r *models.Restaurant, now time.Time, staleAfter time.Duration) bool {
	return now.Sub(r.LastUpdated) > staleAfter
}

func recommendations(m *models.QualityMetrics) []string {
	recs := []string{}
	if m.Completeness < 0.8 {
		recs = append(recs, "Fill in missing business details such as hours, price range and cuisine")
	}
	if m.Accuracy < 0.8 {
		recs = append(recs, "Verify phone, website and email formats")
	}
	if m.PhotoQuality < 0.6 {
		recs = append(recs, "Add captioned, high-resolution photos")
	}
	if m.Verification < 0.5 {
		recs = append(recs, "Link the restaurant to more data sources")
	}
	return recs
}

func hasImageExtension(raw string) bool {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		p = raw[:i]
	}
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

func filled(s string) bool {
	return strings.TrimSpace(s) != ""
}
