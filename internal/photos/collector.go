// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package photos gathers restaurant photos from the place-search providers,
// the restaurant website and social accounts, then classifies, dedupes and
// ranks them.
package photos

import (
	"context"
	"errors"
	"sort"

	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/sources"
)

// DefaultMaxPhotos is used when the configured limit is not positive.
const DefaultMaxPhotos = 25

// ErrSocialNotImplemented is returned by NotImplementedSocialSource.
var ErrSocialNotImplemented = errors.New("social photo source not implemented")

// WebsiteScraper is the slice of scraper.WebsiteScraper the collector needs.
type WebsiteScraper interface {
	ScrapeWebsite(ctx context.Context, url string) models.ScrapedRestaurantData
}

// SocialPhotoSource fetches photos from a restaurant's social accounts.
type SocialPhotoSource interface {
	Available() bool
	Photos(ctx context.Context, r *models.Restaurant) ([]models.PhotoAsset, error)
}

// NotImplementedSocialSource is the default SocialPhotoSource. No social
// platform integration exists yet.
type NotImplementedSocialSource struct{}

func (NotImplementedSocialSource) Available() bool { return false }

func (NotImplementedSocialSource) Photos(context.Context, *models.Restaurant) ([]models.PhotoAsset, error) {
	return nil, ErrSocialNotImplemented
}

// Collection is the ranked photo set for one restaurant.
type Collection struct {
	Photos           []models.PhotoAsset `json:"photos"`
	TotalCollected   int                 `json:"total_collected"`
	HighQualityCount int                 `json:"high_quality_count"`
	FoodPhotoCount   int                 `json:"food_photo_count"`
	Sources          []string            `json:"sources"`
	Errors           []string            `json:"errors,omitempty"`
}

// Collector fans out to every photo source. It never writes to storage.
type Collector struct {
	adapters  []sources.Adapter
	scraper   WebsiteScraper
	social    SocialPhotoSource
	maxPhotos int
}

// NewCollector creates a collector. scraper and social may be nil.
func NewCollector(adapters []sources.Adapter, scraper WebsiteScraper, social SocialPhotoSource, maxPhotos int) *Collector {
	if social == nil {
		social = NotImplementedSocialSource{}
	}
	if maxPhotos <= 0 {
		maxPhotos = DefaultMaxPhotos
	}
	return &Collector{adapters: adapters, scraper: scraper, social: social, maxPhotos: maxPhotos}
}

// Inputs are already-fetched source data for Collect and Assemble.
type Inputs struct {
	Records map[models.Provider]*models.SourceRecord
	Scraped *models.ScrapedRestaurantData
	Social  []models.PhotoAsset
}

// CollectAllPhotos fetches details from every provider the restaurant is linked
// to, scrapes its website and asks the social source, then ranks the result.
// Per-source failures are logged and listed in Collection.Errors; only context
// cancellation is returned as an error.
func (c *Collector) CollectAllPhotos(ctx context.Context, r *models.Restaurant) (*Collection, error) {
	return c.Collect(ctx, r, Inputs{})
}

// Collect is CollectAllPhotos with some inputs already fetched. A provider
// present in known.Records, even with a nil record, is not asked again; a
// non-nil known.Scraped or known.Social skips the website or social fetch.
func (c *Collector) Collect(ctx context.Context, r *models.Restaurant, known Inputs) (*Collection, error) {
	log := logging.Ctx(ctx)
	in := Inputs{Records: make(map[models.Provider]*models.SourceRecord, len(c.adapters)), Scraped: known.Scraped, Social: known.Social}
	for p, rec := range known.Records {
		in.Records[p] = rec
	}
	var errs []string

	for _, a := range c.adapters {
		id := r.ExternalID(a.Provider())
		if _, done := in.Records[a.Provider()]; done || id == "" || !a.Configured() {
			continue
		}
		rec, err := a.Details(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("provider", a.Provider().Key()).Str("restaurant_id", r.ID).Msg("Photo details fetch failed")
			errs = append(errs, a.Provider().Key()+": "+err.Error())
			continue
		}
		in.Records[a.Provider()] = rec
	}

	if in.Scraped == nil && r.Website != "" && c.scraper != nil {
		data := c.scraper.ScrapeWebsite(ctx, r.Website)
		in.Scraped = &data
	}

	switch {
	case in.Social != nil:
	case c.social.Available():
		social, err := c.social.Photos(ctx, r)
		if err != nil {
			log.Warn().Err(err).Str("restaurant_id", r.ID).Msg("Social photo fetch failed")
			errs = append(errs, "social: "+err.Error())
		}
		in.Social = social
	default:
		log.Debug().Str("restaurant_id", r.ID).Msg("Social photo source not available, skipping")
	}

	col := c.Assemble(r, in)
	col.Errors = errs
	return col, nil
}

type candidate struct {
	photo models.PhotoAsset
	alt   string
}

// Assemble classifies, dedupes by (url, type), ranks and truncates the photos
// found in in. It does no I/O.
func (c *Collector) Assemble(r *models.Restaurant, in Inputs) *Collection {
	var cands []candidate
	for _, p := range models.ProviderOrder {
		rec := in.Records[p]
		if rec == nil {
			continue
		}
		for _, sp := range rec.Photos {
			cands = append(cands, candidate{photo: models.PhotoAsset{
				URL:        sp.URL,
				Caption:    sp.Caption,
				Source:     models.PhotoSourceFor(p),
				IsVerified: true,
			}})
		}
	}
	if in.Scraped != nil {
		for _, sp := range in.Scraped.Photos {
			cands = append(cands, candidate{
				photo: models.PhotoAsset{URL: sp.URL, Caption: sp.Alt, Source: models.PhotoSourceWebsite},
				alt:   sp.Alt,
			})
		}
	}
	for _, p := range in.Social {
		cands = append(cands, candidate{photo: p})
	}

	keywords := CulturalKeywords(r)
	col := &Collection{TotalCollected: len(cands), Photos: []models.PhotoAsset{}, Sources: []string{}}
	seen := make(map[string]bool, len(cands))
	sourceSeen := map[models.PhotoSource]bool{}

	for _, cd := range cands {
		p := cd.photo
		if p.URL == "" {
			continue
		}
		p.RestaurantID = r.ID
		if p.Type == "" {
			p.Type = ClassifyType(p.Caption, p.URL, cd.alt)
		}
		if p.Quality == "" {
			p.Quality = ClassifyQuality(p.URL)
		}
		p.CulturallyRelevant = p.CulturallyRelevant || IsCulturallyRelevant(keywords, p.Caption, p.URL, cd.alt)
		p.IsPrimary = false

		key := p.URL + "|" + string(p.Type)
		if seen[key] {
			continue
		}
		seen[key] = true
		col.Photos = append(col.Photos, p)
	}

	Prioritize(col.Photos)
	if len(col.Photos) > c.maxPhotos {
		col.Photos = col.Photos[:c.maxPhotos]
	}

	for _, p := range col.Photos {
		if p.Quality == models.PhotoQualityHigh {
			col.HighQualityCount++
		}
		if p.Type == models.PhotoTypeFood {
			col.FoodPhotoCount++
		}
		if !sourceSeen[p.Source] {
			sourceSeen[p.Source] = true
			col.Sources = append(col.Sources, string(p.Source))
		}
		metrics.PhotosCollected.WithLabelValues(string(p.Source)).Inc()
	}
	return col
}

// Prioritize stable-sorts photos: food first, then high quality, then verified,
// then culturally relevant.
func Prioritize(photos []models.PhotoAsset) {
	sort.SliceStable(photos, func(i, j int) bool {
		a, b := photos[i], photos[j]
		if af, bf := a.Type == models.PhotoTypeFood, b.Type == models.PhotoTypeFood; af != bf {
			return af
		}
		if ah, bh := a.Quality == models.PhotoQualityHigh, b.Quality == models.PhotoQualityHigh; ah != bh {
			return ah
		}
		if a.IsVerified != b.IsVerified {
			return a.IsVerified
		}
		if a.CulturallyRelevant != b.CulturallyRelevant {
			return a.CulturallyRelevant
		}
		return false
	})
}
