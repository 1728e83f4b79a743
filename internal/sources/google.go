// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/models"
)

const (
	googleMaxRadius = 50000

	googleDetailFields = "place_id,name,formatted_address,address_components,geometry," +
		"formatted_phone_number,international_phone_number,website,rating,user_ratings_total," +
		"price_level,types,opening_hours,photos"

	googlePhotoMaxWidth = 1600
)

// GoogleClient talks to the Google Places web service.
type GoogleClient struct {
	http *httpClient
}

// NewGoogleClient creates a Places client. The API key is sent as a query parameter.
func NewGoogleClient(cfg config.ProviderConfig, gate QuotaGate) *GoogleClient {
	return &GoogleClient{http: newHTTPClient(models.ProviderGoogle, cfg, gate, queryKeyAuth)}
}

func (c *GoogleClient) Provider() models.Provider { return models.ProviderGoogle }
func (c *GoogleClient) Configured() bool          { return c.http.configured() }

// AddressComponent is one entry of a Places address_components array.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type googlePeriodPoint struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

type googlePlace struct {
	PlaceID           string             `json:"place_id"`
	Name              string             `json:"name"`
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []AddressComponent `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedPhone     string   `json:"formatted_phone_number"`
	InternationalPhone string   `json:"international_phone_number"`
	Website            string   `json:"website"`
	Rating             float64  `json:"rating"`
	UserRatingsTotal   int      `json:"user_ratings_total"`
	PriceLevel         *int     `json:"price_level"`
	Types              []string `json:"types"`
	OpeningHours       *struct {
		Periods []struct {
			Open  googlePeriodPoint  `json:"open"`
			Close *googlePeriodPoint `json:"close"`
		} `json:"periods"`
	} `json:"opening_hours"`
	Photos []struct {
		PhotoReference   string   `json:"photo_reference"`
		HTMLAttributions []string `json:"html_attributions"`
	} `json:"photos"`
}

type googleSearchResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []googlePlace `json:"results"`
}

type googleDetailsResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Result       googlePlace `json:"result"`
}

func (c *GoogleClient) statusError(status, msg string) error {
	if msg == "" {
		msg = status
	} else {
		msg = status + ": " + msg
	}
	return &APIError{Provider: models.ProviderGoogle, StatusCode: http.StatusOK, Message: msg}
}

// Search runs a Text Search. ZERO_RESULTS is an empty success.
func (c *GoogleClient) Search(ctx context.Context, q SearchQuery) ([]models.SourceRecord, error) {
	params := url.Values{}
	query := q.Term
	if !q.HasCoordinates() && q.Location != "" {
		query = strings.TrimSpace(query + " in " + q.Location)
	}
	params.Set("query", query)
	if q.HasCoordinates() {
		params.Set("location", q.latLng())
	}
	if r := clampRadius(q.Radius, googleMaxRadius); r > 0 {
		params.Set("radius", strconv.Itoa(r))
	}
	if q.Category != "" {
		params.Set("type", q.Category)
	} else {
		params.Set("type", "restaurant")
	}

	var resp googleSearchResponse
	if err := c.http.getJSON(ctx, EndpointSearch, "/textsearch/json", params, &resp); err != nil {
		return nil, err
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []models.SourceRecord{}, nil
	default:
		return nil, c.statusError(resp.Status, resp.ErrorMessage)
	}

	out := make([]models.SourceRecord, 0, len(resp.Results))
	for i := range resp.Results {
		out = append(out, c.normalize(&resp.Results[i]))
	}
	return out, nil
}

// Details fetches a single place by place_id.
func (c *GoogleClient) Details(ctx context.Context, placeID string) (*models.SourceRecord, error) {
	if placeID == "" {
		return nil, fmt.Errorf("google details: empty place id")
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", googleDetailFields)

	var resp googleDetailsResponse
	if err := c.http.getJSON(ctx, EndpointDetails, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, c.statusError(resp.Status, resp.ErrorMessage)
	}
	rec := c.normalize(&resp.Result)
	return &rec, nil
}

func (c *GoogleClient) normalize(p *googlePlace) models.SourceRecord {
	rec := models.SourceRecord{
		Source:      models.ProviderGoogle,
		ExternalID:  p.PlaceID,
		Name:        strings.TrimSpace(p.Name),
		Latitude:    p.Geometry.Location.Lat,
		Longitude:   p.Geometry.Location.Lng,
		Phone:       p.FormattedPhone,
		Website:     p.Website,
		Rating:      models.RoundRating(p.Rating),
		ReviewCount: p.UserRatingsTotal,
		PriceRange:  GooglePrice(p.PriceLevel),
		Categories:  cleanCategories(p.Types),
	}
	if rec.Phone == "" {
		rec.Phone = p.InternationalPhone
	}

	addr := ParseGoogleAddress(p.FormattedAddress, p.AddressComponents)
	rec.Address = addr.Street
	rec.City = addr.City
	rec.State = addr.State
	rec.ZipCode = addr.Zip
	rec.Country = addr.Country

	if p.OpeningHours != nil && len(p.OpeningHours.Periods) > 0 {
		hours := models.EmptyWeeklyHours()
		for _, period := range p.OpeningHours.Periods {
			day, ok := weekdayFromSunday(period.Open.Day)
			if !ok {
				continue
			}
			h := models.DayHours{Open: hhmm(period.Open.Time)}
			if period.Close != nil {
				h.Close = hhmm(period.Close.Time)
			} else {
				// A missing close means open around the clock.
				h.Close = "23:59"
			}
			hours[day] = h
		}
		rec.Hours = hours
	}

	for _, ph := range p.Photos {
		if ph.PhotoReference == "" {
			continue
		}
		rec.Photos = append(rec.Photos, models.SourcePhoto{URL: c.photoURL(ph.PhotoReference)})
	}
	return rec
}

// photoURL points at the Places photo endpoint without credentials. The URL is
// stored and served as is; whoever fetches it attaches their own key.
func (c *GoogleClient) photoURL(ref string) string {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(googlePhotoMaxWidth))
	params.Set("photo_reference", ref)
	return c.http.baseURL + "/photo?" + params.Encode()
}

// Address is a parsed postal address.
type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

// ParseGoogleAddress extracts address parts from structured address_components
// when they carry a locality. Otherwise it falls back to splitting
// formatted_address positionally: "street, city, STATE ZIP[, country]".
func ParseGoogleAddress(formatted string, components []AddressComponent) Address {
	var a Address
	parts := splitTrim(formatted, ",")
	if len(parts) > 0 {
		a.Street = parts[0]
	}

	var streetNumber, route string
	for _, c := range components {
		switch {
		case hasType(c.Types, "street_number"):
			streetNumber = c.LongName
		case hasType(c.Types, "route"):
			route = c.ShortName
		case hasType(c.Types, "locality"):
			a.City = c.LongName
		case hasType(c.Types, "postal_town") && a.City == "":
			a.City = c.LongName
		case hasType(c.Types, "administrative_area_level_1"):
			a.State = c.ShortName
		case hasType(c.Types, "postal_code"):
			a.Zip = c.LongName
		case hasType(c.Types, "country"):
			a.Country = c.ShortName
		}
	}
	if a.Street == "" && route != "" {
		a.Street = strings.TrimSpace(streetNumber + " " + route)
	}
	if a.City != "" {
		return a
	}

	return parsePositional(parts, a)
}

func parsePositional(parts []string, a Address) Address {
	if len(parts) >= 2 {
		a.City = parts[1]
	}
	if len(parts) >= 3 {
		fields := strings.Fields(parts[2])
		if len(fields) > 0 {
			a.State = fields[0]
		}
		if len(fields) > 1 {
			a.Zip = fields[len(fields)-1]
		}
	}
	if len(parts) >= 4 && a.Country == "" {
		a.Country = parts[len(parts)-1]
	}
	return a
}

func splitTrim(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
