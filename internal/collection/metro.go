// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package collection

// Region is a searchable sub-area of a metro. Location is free text such as
// "Silver Spring, MD"; an empty Location searches around the metro center.
type Region struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// MetroArea is one collection target.
type MetroArea struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	RadiusM   int      `json:"radius_m"`
	Regions   []Region `json:"regions"`
}

// DefaultMetroAreas returns the metros with the largest African diaspora
// restaurant scenes.
func DefaultMetroAreas() []MetroArea {
	return []MetroArea{
		{Name: "Washington DC", Latitude: 38.9072, Longitude: -77.0369, RadiusM: 40000, Regions: []Region{
			{"Washington", "Washington, DC"},
			{"Silver Spring", "Silver Spring, MD"},
			{"Alexandria", "Alexandria, VA"},
			{"Hyattsville", "Hyattsville, MD"},
		}},
		{Name: "New York", Latitude: 40.7128, Longitude: -74.0060, RadiusM: 40000, Regions: []Region{
			{"Harlem", "Harlem, New York, NY"},
			{"Bronx", "Bronx, NY"},
			{"Brooklyn", "Brooklyn, NY"},
			{"Newark", "Newark, NJ"},
		}},
		{Name: "Houston", Latitude: 29.7604, Longitude: -95.3698, RadiusM: 40000, Regions: []Region{
			{"Houston", "Houston, TX"},
			{"Alief", "Alief, Houston, TX"},
			{"Sugar Land", "Sugar Land, TX"},
		}},
		{Name: "Atlanta", Latitude: 33.7490, Longitude: -84.3880, RadiusM: 40000, Regions: []Region{
			{"Atlanta", "Atlanta, GA"},
			{"Clarkston", "Clarkston, GA"},
			{"Decatur", "Decatur, GA"},
		}},
		{Name: "Minneapolis-St. Paul", Latitude: 44.9778, Longitude: -93.2650, RadiusM: 30000, Regions: []Region{
			{"Minneapolis", "Minneapolis, MN"},
			{"St. Paul", "St. Paul, MN"},
			{"Brooklyn Park", "Brooklyn Park, MN"},
		}},
		{Name: "Dallas-Fort Worth", Latitude: 32.7767, Longitude: -96.7970, RadiusM: 40000, Regions: []Region{
			{"Dallas", "Dallas, TX"},
			{"Garland", "Garland, TX"},
			{"Arlington", "Arlington, TX"},
		}},
		{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437, RadiusM: 40000, Regions: []Region{
			{"Little Ethiopia", "Fairfax Ave, Los Angeles, CA"},
			{"Inglewood", "Inglewood, CA"},
			{"Long Beach", "Long Beach, CA"},
		}},
		{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298, RadiusM: 35000, Regions: []Region{
			{"Chicago", "Chicago, IL"},
			{"Edgewater", "Edgewater, Chicago, IL"},
			{"Evanston", "Evanston, IL"},
		}},
		{Name: "Seattle", Latitude: 47.6062, Longitude: -122.3321, RadiusM: 30000, Regions: []Region{
			{"Seattle", "Seattle, WA"},
			{"Tukwila", "Tukwila, WA"},
			{"Kent", "Kent, WA"},
		}},
		{Name: "Philadelphia", Latitude: 39.9526, Longitude: -75.1652, RadiusM: 30000, Regions: []Region{
			{"Philadelphia", "Philadelphia, PA"},
			{"Upper Darby", "Upper Darby, PA"},
		}},
		{Name: "Columbus", Latitude: 39.9612, Longitude: -82.9988, RadiusM: 30000, Regions: []Region{
			{"Columbus", "Columbus, OH"},
			{"Reynoldsburg", "Reynoldsburg, OH"},
		}},
		{Name: "Boston", Latitude: 42.3601, Longitude: -71.0589, RadiusM: 30000, Regions: []Region{
			{"Boston", "Boston, MA"},
			{"Lowell", "Lowell, MA"},
		}},
	}
}

// DefaultSearchTerms are the cuisine queries sent to every provider.
func DefaultSearchTerms() []string {
	return []string{
		"african restaurant",
		"ethiopian restaurant",
		"nigerian restaurant",
		"ghanaian restaurant",
		"eritrean restaurant",
		"somali restaurant",
		"senegalese restaurant",
		"kenyan restaurant",
		"moroccan restaurant",
		"south african restaurant",
		"west african restaurant",
		"cameroonian restaurant",
	}
}

// PrimaryRegions keeps only the first region of each metro.
func PrimaryRegions(metros []MetroArea) []MetroArea {
	out := make([]MetroArea, 0, len(metros))
	for _, m := range metros {
		if len(m.Regions) > 1 {
			m.Regions = m.Regions[:1]
		}
		out = append(out, m)
	}
	return out
}
