// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package photos

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tomtom215/afritable/internal/models"
)

// typeKeywords are checked in order; the first type with a hit wins.
var typeKeywords = []struct {
	typ      models.PhotoType
	keywords []string
}{
	{models.PhotoTypeMenu, []string{"menu", "price list"}},
	{models.PhotoTypeChef, []string{"chef", "cook", "kitchen staff", "owner"}},
	{models.PhotoTypeInterior, []string{"interior", "inside", "dining room", "seating", "decor", "ambiance", "bar area"}},
	{models.PhotoTypeExterior, []string{"exterior", "outside", "storefront", "building", "facade", "entrance", "signage", "patio"}},
	{models.PhotoTypeFood, []string{
		"food", "dish", "plate", "platter", "meal", "stew", "soup", "rice", "bread",
		"injera", "wat", "tibs", "kitfo", "jollof", "suya", "egusi", "fufu", "plantain",
		"tagine", "couscous", "yassa", "mafe", "curry", "grill", "dessert", "appetizer",
	}},
}

// highQualityHosts serve full-resolution originals.
var highQualityHosts = []string{"googleusercontent.com", "yelpcdn.com", "4sqi.net"}

var (
	widthHintRe = regexp.MustCompile(`(?i)(?:maxwidth|width|[?&/_-]w)[=_-]?(\d{2,5})`)
	lowHints    = []string{"thumb", "small", "ms.jpg", "/s.jpg", "avatar"}
	highHints   = []string{"/o.jpg", "original", "large", "1080", "full"}
)

// ClassifyType infers the photo type from its caption, url and alt text.
func ClassifyType(texts ...string) models.PhotoType {
	lower := strings.ToLower(strings.Join(texts, " "))
	for _, tk := range typeKeywords {
		for _, kw := range tk.keywords {
			if containsWord(lower, kw) {
				return tk.typ
			}
		}
	}
	return models.PhotoTypeOther
}

// ClassifyQuality grades a photo from url hints. Thumbnail hints win over CDN hosts.
func ClassifyQuality(rawURL string) models.PhotoQuality {
	lower := strings.ToLower(rawURL)

	width := 0
	if m := widthHintRe.FindStringSubmatch(lower); m != nil {
		width, _ = strconv.Atoi(m[1])
	}

	for _, h := range lowHints {
		if strings.Contains(lower, h) {
			return models.PhotoQualityLow
		}
	}
	if width > 0 && width < 300 {
		return models.PhotoQualityLow
	}
	if width >= 800 {
		return models.PhotoQualityHigh
	}
	for _, h := range highHints {
		if strings.Contains(lower, h) {
			return models.PhotoQualityHigh
		}
	}
	for _, h := range highQualityHosts {
		if strings.Contains(lower, h) {
			return models.PhotoQualityHigh
		}
	}
	return models.PhotoQualityMedium
}

// cuisineDishes ties cuisine tags to dishes that mark a photo as culturally relevant.
var cuisineDishes = map[string][]string{
	"ethiopian":     {"injera", "wat", "tibs", "kitfo", "shiro", "berbere", "gomen"},
	"eritrean":      {"injera", "zigni", "tsebhi", "shiro", "ful"},
	"nigerian":      {"jollof", "suya", "egusi", "pounded yam", "puff puff", "moi moi", "pepper soup"},
	"ghanaian":      {"jollof", "waakye", "kelewele", "banku", "fufu", "kenkey"},
	"senegalese":    {"thieboudienne", "yassa", "mafe", "thiakry"},
	"somali":        {"suqaar", "canjeero", "bariis", "sambusa"},
	"moroccan":      {"tagine", "couscous", "harira", "pastilla"},
	"kenyan":        {"nyama choma", "ugali", "sukuma", "pilau"},
	"south african": {"bobotie", "bunny chow", "braai", "boerewors"},
	"cameroonian":   {"ndole", "achu", "eru"},
	"ivorian":       {"attieke", "alloco", "kedjenou"},
}

// CulturalKeywords returns the lower-case cuisine tags of r plus their dishes.
func CulturalKeywords(r *models.Restaurant) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, c := range r.Cuisine {
		c = strings.ToLower(strings.TrimSpace(c))
		c = strings.TrimSuffix(c, " restaurant")
		add(c)
		for _, d := range cuisineDishes[c] {
			add(d)
		}
	}
	return out
}

// IsCulturallyRelevant reports whether any keyword occurs in the texts.
func IsCulturallyRelevant(keywords []string, texts ...string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(strings.Join(texts, " "))
	for _, kw := range keywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord matches kw at word boundaries so "wat" does not hit "water".
func containsWord(s, kw string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], kw)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(kw)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
