// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tomtom215/afritable/internal/models"
)

var priceRe = regexp.MustCompile(`\$\s*(\d{1,4}(?:\.\d{1,2})?)`)

// ParsePrice returns the first "$12.99"-style amount in s, or 0.
func ParsePrice(s string) float64 {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// dietaryKeywords maps a tag to the phrases that imply it.
var dietaryKeywords = []struct {
	tag      string
	keywords []string
}{
	{"vegan", []string{"vegan", "plant-based", "plant based"}},
	{"vegetarian", []string{"vegetarian", "veggie", "meatless"}},
	{"gluten-free", []string{"gluten-free", "gluten free", "teff"}},
	{"halal", []string{"halal"}},
	{"dairy-free", []string{"dairy-free", "dairy free"}},
	{"spicy", []string{"spicy", "hot pepper", "berbere", "pepper soup", "scotch bonnet", "mitmita"}},
}

var popularKeywords = []string{
	"popular", "signature", "best seller", "bestseller", "best-seller",
	"chef's special", "house special", "favorite", "favourite", "must try", "must-try",
}

var ingredientKeywords = []string{
	"injera", "berbere", "teff", "niter kibbeh", "lentil", "chickpea", "collard",
	"plantain", "cassava", "yam", "fufu", "egusi", "okra", "jollof", "suya",
	"peanut", "groundnut", "palm oil", "goat", "lamb", "beef", "chicken", "fish",
	"shrimp", "rice", "cabbage", "spinach", "tomato", "onion", "ginger", "garlic",
}

// DietaryTags returns the dietary tags whose keywords occur in text.
func DietaryTags(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, d := range dietaryKeywords {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, d.tag)
				break
			}
		}
	}
	return out
}

// IsPopular reports whether text marks a dish as a house favourite.
func IsPopular(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range popularKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Ingredients returns known ingredients mentioned in text, in list order.
func Ingredients(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, kw := range ingredientKeywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

var dayPatterns = []struct {
	day string
	re  *regexp.Regexp
}{
	{"monday", regexp.MustCompile(`(?i)\bmon(?:day)?\b`)},
	{"tuesday", regexp.MustCompile(`(?i)\btue(?:s|sday)?\b`)},
	{"wednesday", regexp.MustCompile(`(?i)\bwed(?:nesday)?\b`)},
	{"thursday", regexp.MustCompile(`(?i)\bthu(?:r|rs|rsday)?\b`)},
	{"friday", regexp.MustCompile(`(?i)\bfri(?:day)?\b`)},
	{"saturday", regexp.MustCompile(`(?i)\bsat(?:urday)?\b`)},
	{"sunday", regexp.MustCompile(`(?i)\bsun(?:day)?\b`)},
}

var (
	timeRangeRe = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)?)\s*(?:-|–|—|to)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)?)`)
	closedRe    = regexp.MustCompile(`(?i)\bclosed\b`)
)

// ParseHours reads "Monday 11am - 10pm" style lines. It reports false when no
// weekday could be matched. The result always carries all seven weekdays.
func ParseHours(text string) (models.WeeklyHours, bool) {
	hours := models.EmptyWeeklyHours()
	matched := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		days := daysInLine(line)
		if len(days) == 0 {
			continue
		}

		var h models.DayHours
		if m := timeRangeRe.FindStringSubmatch(line); m != nil {
			open, ok1 := ParseClock(m[1])
			closeAt, ok2 := ParseClock(m[2])
			if !ok1 || !ok2 {
				continue
			}
			h = models.DayHours{Open: open, Close: closeAt}
		} else if closedRe.MatchString(line) {
			h = models.DayHours{Closed: true}
		} else {
			continue
		}
		for _, d := range days {
			hours[d] = h
			matched = true
		}
	}
	return hours, matched
}

// daysInLine expands "Mon - Fri" ranges and lists of individual day names.
func daysInLine(line string) []string {
	type hit struct {
		idx int
		pos int
	}
	var hits []hit
	for i, p := range dayPatterns {
		if loc := p.re.FindStringIndex(line); loc != nil {
			hits = append(hits, hit{idx: i, pos: loc[0]})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	// Order by position in the line.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	if len(hits) == 2 {
		between := line[hits[0].pos:hits[1].pos]
		if strings.ContainsAny(between, "-–—") || strings.Contains(strings.ToLower(between), " to ") {
			var out []string
			for i := hits[0].idx; ; i = (i + 1) % 7 {
				out = append(out, dayPatterns[i].day)
				if i == hits[1].idx {
					break
				}
			}
			return out
		}
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, dayPatterns[h.idx].day)
	}
	return out
}

// ParseClock normalizes "11am", "9:30 pm" or "17:00" to 24-hour "HH:MM".
func ParseClock(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	pm := strings.HasSuffix(s, "pm")
	am := strings.HasSuffix(s, "am")
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "pm"), "am"))

	hourStr, minStr := s, "00"
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hourStr, minStr = s[:i], s[i+1:]
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return "", false
	}
	minute, err := strconv.Atoi(minStr)
	if err != nil || minute < 0 || minute > 59 {
		return "", false
	}
	switch {
	case pm && hour < 12:
		hour += 12
	case am && hour == 12:
		hour = 0
	}
	if hour < 0 || hour > 24 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
