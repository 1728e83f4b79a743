// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/events"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/photos"
	"github.com/tomtom215/afritable/internal/scraper"
	"github.com/tomtom215/afritable/internal/sources"
	"github.com/tomtom215/afritable/internal/validation"
)

// ErrRestaurantNotFound is returned when the requested restaurant does not exist.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// Store is the persistence the enhancement service needs.
type Store interface {
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, r *models.Restaurant) error
	ReplacePhotos(ctx context.Context, restaurantID string, photos []models.PhotoAsset) error
	RecordDiscrepancies(ctx context.Context, restaurantID string, ds []models.Discrepancy) error
	RecordQualityEvent(ctx context.Context, ev *models.QualityEvent) error
}

// Publisher sends pipeline events. *events.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// MapsLookup reads a business panel from a map listing. *scraper.MapsScraper
// implements it.
type MapsLookup interface {
	Enabled() bool
	ScrapeMapsListing(ctx context.Context, query string) (*models.MapsListing, error)
}

// ExtrasSource hands out the provider-specific extractors. *sources.Registry
// implements it.
type ExtrasSource interface {
	Extras(p models.Provider) sources.Extras
}

// Options selects the optional enhancement steps.
type Options struct {
	Photos      bool `json:"photos"`
	Scraping    bool `json:"scraping"`
	Validation  bool `json:"validation"`
	ForceUpdate bool `json:"force_update"`
}

// DefaultOptions enables every step without overwriting existing values.
func DefaultOptions() Options {
	return Options{Photos: true, Scraping: true, Validation: true}
}

// OptionsFromConfig builds Options from the enhancement config section.
func OptionsFromConfig(cfg config.EnhancementConfig) Options {
	return Options{Photos: cfg.Photos, Scraping: cfg.Scraping, Validation: cfg.Validation}
}

// Result reports one enhancement run.
type Result struct {
	RestaurantID    string                    `json:"restaurant_id"`
	Score           float64                   `json:"score"`
	Status          models.VerificationStatus `json:"status"`
	Sources         []string                  `json:"sources"`
	Discrepancies   []models.Discrepancy      `json:"discrepancies"`
	Validation      *validation.BusinessInfo  `json:"validation,omitempty"`
	Photos          *photos.Collection        `json:"photos,omitempty"`
	Scraped         bool                      `json:"scraped"`
	MapsUsed        bool                      `json:"maps_used"`
	Menu            []models.MenuItem         `json:"menu,omitempty"`
	Attributes      map[string]string         `json:"attributes,omitempty"`
	SocialMedia     map[string]string         `json:"social_media,omitempty"`
	Cultural        *CulturalContext          `json:"cultural,omitempty"`
	CulturalSkipped bool                      `json:"cultural_skipped"`
	Updated         []string                  `json:"updated_fields"`
	Errors          []string                  `json:"errors"`
	Duration        time.Duration             `json:"duration_ns"`
}

func (r *Result) addError(step string, err error) {
	r.Errors = append(r.Errors, step+": "+err.Error())
}

// Deps are the collaborators of Service. Everything but Store may be nil.
type Deps struct {
	Store     Store
	Adapters  []sources.Adapter
	Scraper   photos.WebsiteScraper
	Maps      MapsLookup
	Extras    ExtrasSource
	Photos    *photos.Collector
	Cultural  CulturalEnricher
	Publisher Publisher
}

// Service runs enhancement passes.
type Service struct {
	store     Store
	adapters  []sources.Adapter
	scraper   photos.WebsiteScraper
	maps      MapsLookup
	extras    ExtrasSource
	photos    *photos.Collector
	cultural  CulturalEnricher
	publisher Publisher
	cfg       config.EnhancementConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates an enhancement service.
func NewService(cfg config.EnhancementConfig, deps Deps) *Service {
	if deps.Cultural == nil {
		deps.Cultural = NotImplementedEnricher{}
	}
	if deps.Photos == nil {
		deps.Photos = photos.NewCollector(deps.Adapters, deps.Scraper, nil, 0)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.SkipRecentWithin <= 0 {
		cfg.SkipRecentWithin = DefaultSkipRecentWithin
	}
	return &Service{
		store:     deps.Store,
		adapters:  deps.Adapters,
		scraper:   deps.Scraper,
		maps:      deps.Maps,
		extras:    deps.Extras,
		photos:    deps.Photos,
		cultural:  deps.Cultural,
		publisher: deps.Publisher,
		cfg:       cfg,
		logger:    logging.WithComponent("enhancement"),
		now:       time.Now,
	}
}

// EnhanceRestaurant runs one enhancement pass. Only a missing restaurant or a
// failed load is returned as an error; step failures land in Result.Errors.
func (s *Service) EnhanceRestaurant(ctx context.Context, id string, opts Options) (*Result, error) {
	start := s.now()
	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("load restaurant %s: %w", id, err)
	}
	if r == nil {
		return nil, ErrRestaurantNotFound
	}

	log := s.logger.With().Str("restaurant_id", id).Logger()
	res := &Result{RestaurantID: id, Sources: []string{}, Discrepancies: []models.Discrepancy{}, Updated: []string{}, Errors: []string{}}

	records := s.fetchDetails(ctx, r, res, &log)
	ver := Verify(records)
	res.Discrepancies = append(res.Discrepancies, ver.Discrepancies...)
	for _, p := range ver.Sources {
		res.Sources = append(res.Sources, p.Key())
	}
	for _, d := range ver.Discrepancies {
		metrics.DiscrepanciesTotal.WithLabelValues(d.Field).Inc()
	}
	s.applyVerified(r, records, ver, opts.ForceUpdate, res)
	if opts.Scraping {
		s.fillFromMaps(ctx, r, res, &log)
		s.collectExtras(ctx, r, res, &log)
	}

	var scraped *models.ScrapedRestaurantData
	if (opts.Scraping || opts.Photos) && r.Website != "" && s.scraper != nil {
		data := s.scraper.ScrapeWebsite(ctx, r.Website)
		scraped = &data
	}

	if opts.Photos {
		// Every adapter was already tried by fetchDetails; failures stay nil.
		recs := make(map[models.Provider]*models.SourceRecord, len(s.adapters))
		for i, a := range s.adapters {
			recs[a.Provider()] = records[i]
		}
		col, err := s.photos.Collect(ctx, r, photos.Inputs{Records: recs, Scraped: scraped})
		if err != nil {
			log.Warn().Err(err).Msg("Photo collection failed")
			res.addError("photos", err)
		} else {
			res.Photos = col
			for _, e := range col.Errors {
				res.Errors = append(res.Errors, "photos: "+e)
			}
		}
	}

	if opts.Scraping && scraped != nil {
		if scraped.Useful() {
			res.Scraped = true
			res.SocialMedia = scraped.SocialMedia
			s.applyScraped(r, scraped, opts.ForceUpdate, res)
		} else {
			log.Debug().Str("website", r.Website).Msg("Scrape found no menu or social links, ignoring")
		}
	}

	var business validation.BusinessInfo
	if opts.Validation {
		business = validation.CheckBusinessInfo(r)
		res.Validation = &business
	}

	if s.cultural.Available() {
		cc, err := s.cultural.Enrich(ctx, r, scraped)
		if err != nil {
			log.Warn().Err(err).Msg("Cultural enrichment failed")
			res.addError("cultural", err)
		}
		res.Cultural = cc
	} else {
		res.CulturalSkipped = true
	}

	high, food := photoCounts(r.Photos)
	if res.Photos != nil && len(res.Photos.Photos) > 0 {
		high, food = res.Photos.HighQualityCount, res.Photos.FoodPhotoCount
	}
	res.Score = QualityScore(ScoreInputs{
		PhoneValid:        business.PhoneValid,
		AddressValid:      business.AddressValid,
		HighQualityPhotos: high,
		FoodPhotos:        food,
		Restaurant:        r,
		Unresolved:        ver.Unresolved(),
	})
	res.Status = StatusFor(res.Score)

	s.persist(ctx, r, res, &log)

	res.Duration = s.now().Sub(start)
	metrics.RecordEnhancement(string(res.Status), res.Score, res.Duration)
	log.Info().
		Float64("score", res.Score).
		Str("status", string(res.Status)).
		Int("discrepancies", len(res.Discrepancies)).
		Int("errors", len(res.Errors)).
		Dur("duration", res.Duration).
		Msg("Restaurant enhanced")
	return res, nil
}

// fetchDetails calls Details on every configured adapter the restaurant is
// linked to. The result is in adapter order with nil for skipped providers.
func (s *Service) fetchDetails(ctx context.Context, r *models.Restaurant, res *Result, log *zerolog.Logger) []*models.SourceRecord {
	records := make([]*models.SourceRecord, len(s.adapters))
	errs := make([]error, len(s.adapters))

	var wg sync.WaitGroup
	for i, a := range s.adapters {
		id := r.ExternalID(a.Provider())
		if id == "" || !a.Configured() {
			continue
		}
		wg.Add(1)
		go func(i int, a sources.Adapter, id string) {
			defer wg.Done()
			records[i], errs[i] = a.Details(ctx, id)
		}(i, a, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		p := s.adapters[i].Provider().Key()
		if errors.Is(err, sources.ErrQuotaExceeded) {
			log.Info().Str("provider", p).Msg("Daily quota reached, skipping source")
		} else {
			log.Warn().Err(err).Str("provider", p).Msg("Source details failed")
		}
		res.addError(p, err)
		records[i] = nil
	}
	return records
}

// applyVerified merges agreed and resolved scalar values plus location, hours
// and categories from the first source that has them.
func (s *Service) applyVerified(r *models.Restaurant, records []*models.SourceRecord, ver Verification, force bool, res *Result) {
	set := func(field string, cur *string) {
		v, ok := ver.Values[field]
		if !ok || v == *cur || (*cur != "" && !force) {
			return
		}
		*cur = v
		res.Updated = append(res.Updated, field)
	}
	set(FieldName, &r.Name)
	set(FieldPhone, &r.Phone)
	set(FieldWebsite, &r.Website)
	set(FieldAddress, &r.Address)

	if v, ok := ver.Values[FieldRating]; ok && (r.Rating == 0 || force) {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f != r.Rating {
			r.Rating = f
			res.Updated = append(res.Updated, FieldRating)
		}
	}
	if v, ok := ver.Values[FieldPrice]; ok && (r.PriceRange == "" || force) && models.PriceTier(v) != r.PriceRange {
		r.PriceRange = models.PriceTier(v)
		res.Updated = append(res.Updated, FieldPrice)
	}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		fill := func(field string, cur *string, v string) {
			if *cur == "" && v != "" {
				*cur = v
				res.Updated = append(res.Updated, field)
			}
		}
		fill("city", &r.City, rec.City)
		fill("state", &r.State, rec.State)
		fill("zip_code", &r.ZipCode, rec.ZipCode)
		fill("country", &r.Country, rec.Country)
		if r.Latitude == 0 && r.Longitude == 0 && rec.Latitude != 0 && rec.Longitude != 0 {
			r.Latitude, r.Longitude = rec.Latitude, rec.Longitude
			res.Updated = append(res.Updated, "coordinates")
		}
		if rec.ReviewCount > r.ReviewCount {
			r.ReviewCount = rec.ReviewCount
		}
		if !r.Hours.HasAny() && rec.Hours.HasAny() {
			r.Hours = rec.Hours
			res.Updated = append(res.Updated, "hours")
		}
		if (len(r.Cuisine) == 0 || force) && len(rec.Categories) > 0 && !slices.Contains(res.Updated, "cuisine") {
			r.Cuisine = append([]string(nil), rec.Categories...)
			res.Updated = append(res.Updated, "cuisine")
		}
	}
}

// fillFromMaps looks the restaurant up on the map listing when it still lacks
// a phone or a website after verification. Listing values only fill gaps.
func (s *Service) fillFromMaps(ctx context.Context, r *models.Restaurant, res *Result, log *zerolog.Logger) {
	if s.maps == nil || !s.maps.Enabled() || (r.Phone != "" && r.Website != "") || r.Name == "" {
		return
	}
	query := strings.TrimSpace(r.Name + " " + r.Address + " " + r.City)
	listing, err := s.maps.ScrapeMapsListing(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("Maps lookup failed")
		res.addError("maps", err)
		return
	}
	res.MapsUsed = true
	if r.Phone == "" && listing.Phone != "" {
		r.Phone = listing.Phone
		res.Updated = append(res.Updated, FieldPhone)
	}
	if r.Website == "" && listing.Website != "" {
		r.Website = listing.Website
		res.Updated = append(res.Updated, FieldWebsite)
	}
}

// collectExtras asks each linked provider's extractor for menu and attribute
// data. The first menu found wins; attribute keys are prefixed with the provider.
func (s *Service) collectExtras(ctx context.Context, r *models.Restaurant, res *Result, log *zerolog.Logger) {
	if s.extras == nil {
		return
	}
	for _, p := range models.ProviderOrder {
		id := r.ExternalID(p)
		if id == "" {
			continue
		}
		ex := s.extras.Extras(p)
		if ex == nil || !ex.Available() {
			log.Debug().Str("provider", p.Key()).Msg("No extras extractor for provider, skipping")
			continue
		}
		if len(res.Menu) == 0 {
			menu, err := ex.Menu(ctx, id)
			if err != nil {
				res.addError(p.Key()+"_menu", err)
			} else {
				res.Menu = menu
			}
		}
		attrs, err := ex.Attributes(ctx, id)
		if err != nil {
			res.addError(p.Key()+"_attributes", err)
			continue
		}
		for k, v := range attrs {
			if res.Attributes == nil {
				res.Attributes = map[string]string{}
			}
			res.Attributes[p.Key()+"."+k] = v
		}
	}
}

func (s *Service) applyScraped(r *models.Restaurant, d *models.ScrapedRestaurantData, force bool, res *Result) {
	set := func(field string, cur *string, v string) {
		if v == "" || v == *cur || (*cur != "" && !force) {
			return
		}
		*cur = v
		res.Updated = append(res.Updated, field)
	}
	set("description", &r.Description, d.Description)
	set(FieldPhone, &r.Phone, scraper.CleanPhone(d.Contact.Phone))
	set("email", &r.Email, d.Contact.Email)
	if !r.Hours.HasAny() && d.BusinessHours.HasAny() {
		r.Hours = d.BusinessHours
		res.Updated = append(res.Updated, "hours")
	}
}

func (s *Service) persist(ctx context.Context, r *models.Restaurant, res *Result, log *zerolog.Logger) {
	now := s.now().UTC()
	if res.Status == models.StatusVerified {
		r.IsVerified = true
	}
	r.LastUpdated = now

	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		log.Error().Err(err).Msg("Failed to persist enhanced restaurant")
		res.addError("persist", err)
	}

	if res.Photos != nil && len(res.Photos.Photos) > 0 {
		for i := range res.Photos.Photos {
			res.Photos.Photos[i].IsPrimary = i == 0
		}
		if err := s.store.ReplacePhotos(ctx, r.ID, res.Photos.Photos); err != nil {
			log.Error().Err(err).Msg("Failed to replace photos")
			res.addError("photos", err)
		} else {
			r.Photos = res.Photos.Photos
		}
	}

	if len(res.Discrepancies) > 0 {
		if err := s.store.RecordDiscrepancies(ctx, r.ID, res.Discrepancies); err != nil {
			log.Warn().Err(err).Msg("Failed to record discrepancies")
			res.addError("discrepancies", err)
		}
	}

	ev := &models.QualityEvent{
		ID:            uuid.NewString(),
		RestaurantID:  r.ID,
		Score:         res.Score,
		Status:        res.Status,
		Discrepancies: len(res.Discrepancies),
		Sources:       res.Sources,
		CreatedAt:     now,
	}
	if res.Photos != nil {
		ev.PhotosCollected = len(res.Photos.Photos)
	}
	if err := s.store.RecordQualityEvent(ctx, ev); err != nil {
		log.Warn().Err(err).Msg("Failed to record quality event")
		res.addError("quality_event", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.TopicQuality, ev); err != nil {
			log.Warn().Err(err).Msg("Failed to publish quality event")
			res.addError("publish", err)
		}
	}
}
