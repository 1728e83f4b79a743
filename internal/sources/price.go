// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import "github.com/tomtom215/afritable/internal/models"

// GooglePrice maps Google's price_level (0-4). Free (0) is treated as budget.
func GooglePrice(level *int) models.PriceTier {
	if level == nil {
		return ""
	}
	switch *level {
	case 0, 1:
		return models.PriceBudget
	case 2:
		return models.PriceModerate
	case 3:
		return models.PriceExpensive
	case 4:
		return models.PriceVeryExpensive
	}
	return ""
}

// YelpPrice maps Yelp's dollar-sign price strings.
func YelpPrice(price string) models.PriceTier {
	switch price {
	case "$":
		return models.PriceBudget
	case "$$":
		return models.PriceModerate
	case "$$$":
		return models.PriceExpensive
	case "$$$$":
		return models.PriceVeryExpensive
	}
	return ""
}

// FoursquarePrice maps Foursquare's 1-4 price field.
func FoursquarePrice(price int) models.PriceTier {
	switch price {
	case 1:
		return models.PriceBudget
	case 2:
		return models.PriceModerate
	case 3:
		return models.PriceExpensive
	case 4:
		return models.PriceVeryExpensive
	}
	return ""
}
