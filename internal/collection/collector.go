// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/sources"
)

// Upsert outcomes, also used as metric labels.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

// DefaultQuickSweepTerms is how many search terms the quick sweep uses.
const DefaultQuickSweepTerms = 3

// Store is the persistence batch collection needs. Finders return an error
// wrapping models.ErrNotFound when nothing matches.
type Store interface {
	FindByExternalID(ctx context.Context, p models.Provider, id string) (*models.Restaurant, error)
	FindByNameCoordinates(ctx context.Context, name string, lat, lng float64) (*models.Restaurant, error)
	FindByNameAddress(ctx context.Context, name, address string) (*models.Restaurant, error)
	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	UpdateRestaurant(ctx context.Context, r *models.Restaurant) error
	ListRestaurants(ctx context.Context) ([]*models.Restaurant, error)
}

// Sleeper pauses between searches. It returns early with the context error.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Report summarizes a collection run.
type Report struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Searches   int            `json:"searches"`
	Fetched    int            `json:"fetched"`
	Unique     int            `json:"unique"`
	Created    int            `json:"created"`
	Updated    int            `json:"updated"`
	Failed     int            `json:"failed"`
	QuotaSkips int            `json:"quota_skips"`
	BySource   map[string]int `json:"by_source"`
	Errors     []string       `json:"errors"`
}

// Collector runs metro-area collection.
type Collector struct {
	store    Store
	adapters []sources.Adapter
	cfg      config.CollectionConfig
	sleep    Sleeper
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCollector creates a collector that paces searches with the configured delays.
func NewCollector(cfg config.CollectionConfig, store Store, adapters []sources.Adapter) *Collector {
	if cfg.QuickSweepTerms <= 0 {
		cfg.QuickSweepTerms = DefaultQuickSweepTerms
	}
	return &Collector{
		store:    store,
		adapters: adapters,
		cfg:      cfg,
		sleep:    Sleep,
		logger:   logging.WithComponent("collection"),
		now:      time.Now,
	}
}

// WithSleeper replaces the pacing function.
func (c *Collector) WithSleeper(s Sleeper) *Collector {
	c.sleep = s
	return c
}

// CollectQuickSweep searches the primary region of every default metro with
// the first few search terms.
func (c *Collector) CollectQuickSweep(ctx context.Context) (*Report, error) {
	terms := DefaultSearchTerms()
	terms = terms[:min(c.cfg.QuickSweepTerms, len(terms))]
	return c.CollectMetroAreas(ctx, PrimaryRegions(DefaultMetroAreas()), terms)
}

// CollectAll searches every region of every default metro with every term.
func (c *Collector) CollectAll(ctx context.Context) (*Report, error) {
	return c.CollectMetroAreas(ctx, DefaultMetroAreas(), DefaultSearchTerms())
}

// CollectMetroAreas searches every (region, term) pair on every configured
// provider, dedupes the results and upserts them. Pacing delays run between
// terms, regions and metros. Only context cancellation aborts the run.
func (c *Collector) CollectMetroAreas(ctx context.Context, metros []MetroArea, terms []string) (*Report, error) {
	rep := &Report{StartedAt: c.now(), BySource: map[string]int{}, Errors: []string{}}
	exhausted := map[models.Provider]bool{}
	var cands []Candidate

	c.logger.Info().Int("metros", len(metros)).Int("terms", len(terms)).Msg("Starting metro collection")

	for mi, metro := range metros {
		if mi > 0 {
			if err := c.sleep(ctx, c.cfg.MetroDelay); err != nil {
				return c.finish(rep), err
			}
		}
		for ri, region := range metro.Regions {
			if ri > 0 {
				if err := c.sleep(ctx, c.cfg.RegionDelay); err != nil {
					return c.finish(rep), err
				}
			}
			for ti, term := range terms {
				if ti > 0 {
					if err := c.sleep(ctx, c.cfg.TermDelay); err != nil {
						return c.finish(rep), err
					}
				}
				q := searchQuery(metro, region, term)
				for _, a := range c.adapters {
					if !a.Configured() || exhausted[a.Provider()] {
						continue
					}
					found, err := c.search(ctx, a, q, region, rep)
					if errors.Is(err, sources.ErrQuotaExceeded) {
						exhausted[a.Provider()] = true
						continue
					}
					if err != nil && ctx.Err() != nil {
						return c.finish(rep), ctx.Err()
					}
					cands = append(cands, found...)
				}
			}
		}
	}

	unique := Dedupe(cands)
	rep.Unique = len(unique)
	metrics.CollectionRecords.WithLabelValues("duplicate").Add(float64(rep.Fetched - rep.Unique))

	for _, cand := range unique {
		if err := ctx.Err(); err != nil {
			return c.finish(rep), err
		}
		outcome, err := c.Upsert(ctx, cand)
		metrics.CollectionRecords.WithLabelValues(outcome).Inc()
		switch outcome {
		case OutcomeCreated:
			rep.Created++
		case OutcomeUpdated:
			rep.Updated++
		default:
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Sprintf("upsert %q: %v", cand.Name, err))
		}
	}

	c.finish(rep)
	c.logger.Info().
		Int("fetched", rep.Fetched).
		Int("unique", rep.Unique).
		Int("created", rep.Created).
		Int("updated", rep.Updated).
		Int("failed", rep.Failed).
		Int("quota_skips", rep.QuotaSkips).
		Dur("duration", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("Metro collection complete")
	return rep, nil
}

func (c *Collector) finish(rep *Report) *Report {
	rep.FinishedAt = c.now()
	return rep
}

func (c *Collector) search(ctx context.Context, a sources.Adapter, q sources.SearchQuery, region Region, rep *Report) ([]Candidate, error) {
	p := a.Provider().Key()
	rep.Searches++
	records, err := a.Search(ctx, q)
	if err != nil {
		if errors.Is(err, sources.ErrQuotaExceeded) {
			rep.QuotaSkips++
			c.logger.Warn().Str("provider", p).Msg("Daily quota reached, skipping provider for the rest of the run")
			return nil, err
		}
		c.logger.Warn().Err(err).Str("provider", p).Str("region", region.Name).Str("term", q.Term).Msg("Search failed")
		rep.Errors = append(rep.Errors, fmt.Sprintf("%s %s %q: %v", p, region.Name, q.Term, err))
		return nil, err
	}

	out := make([]Candidate, 0, len(records))
	for _, rec := range records {
		rec.Region = region.Name
		rec.Source = a.Provider()
		out = append(out, NewCandidate(rec))
	}
	rep.Fetched += len(out)
	rep.BySource[p] += len(out)
	metrics.CollectionRecords.WithLabelValues("fetched").Add(float64(len(out)))
	return out, nil
}

func searchQuery(m MetroArea, r Region, term string) sources.SearchQuery {
	q := sources.SearchQuery{Term: term, Location: r.Location, Radius: m.RadiusM}
	if r.Location == "" {
		q.Latitude, q.Longitude = m.Latitude, m.Longitude
	}
	return q
}

// Upsert matches cand by any external id, then by exact name and coordinates,
// then by name and address. A match is merged and updated; anything else is
// created.
func (c *Collector) Upsert(ctx context.Context, cand Candidate) (string, error) {
	existing, err := c.match(ctx, cand)
	if err != nil {
		return OutcomeFailed, err
	}

	now := c.now().UTC()
	if existing != nil {
		ids, err := c.claimableIDs(ctx, existing, cand.ExternalIDs)
		if err != nil {
			return OutcomeFailed, err
		}
		cand.ExternalIDs = ids
		mergeCandidate(existing, cand)
		if err := c.store.UpdateRestaurant(ctx, existing); err != nil {
			return OutcomeFailed, fmt.Errorf("update restaurant: %w", err)
		}
		return OutcomeUpdated, nil
	}

	r := cand.ToRestaurant()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	var srcs []string
	for _, p := range models.ProviderOrder {
		if id := cand.ExternalIDs[p]; id != "" {
			r.SetExternalID(p, id)
			srcs = append(srcs, p.Key())
		}
	}
	r.DataSource = strings.Join(srcs, ",")
	if err := c.store.CreateRestaurant(ctx, r); err != nil {
		return OutcomeFailed, fmt.Errorf("create restaurant: %w", err)
	}
	return OutcomeCreated, nil
}

// claimableIDs drops the ids that existing lacks but another restaurant
// already owns, so a merge never gives one provider id two owners.
func (c *Collector) claimableIDs(ctx context.Context, existing *models.Restaurant, ids map[models.Provider]string) (map[models.Provider]string, error) {
	out := make(map[models.Provider]string, len(ids))
	for p, id := range ids {
		if existing.ExternalID(p) != "" {
			out[p] = id
			continue
		}
		owner, err := c.store.FindByExternalID(ctx, p, id)
		switch {
		case errors.Is(err, models.ErrNotFound):
			out[p] = id
		case err != nil:
			return nil, fmt.Errorf("find by %s id: %w", p.Key(), err)
		case owner.ID == existing.ID:
			out[p] = id
		default:
			c.logger.Warn().Str("provider", p.Key()).Str("external_id", id).
				Str("restaurant_id", existing.ID).Str("owner_id", owner.ID).
				Msg("External id conflict, keeping it on its current owner")
		}
	}
	return out, nil
}

func (c *Collector) match(ctx context.Context, cand Candidate) (*models.Restaurant, error) {
	for _, p := range models.ProviderOrder {
		id := cand.ExternalIDs[p]
		if id == "" {
			continue
		}
		r, err := c.store.FindByExternalID(ctx, p, id)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("find by %s id: %w", p.Key(), err)
		}
	}
	r, err := c.store.FindByNameCoordinates(ctx, cand.Name, cand.Latitude, cand.Longitude)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("find by name and coordinates: %w", err)
	}
	if cand.Address == "" {
		return nil, nil
	}
	r, err = c.store.FindByNameAddress(ctx, cand.Name, cand.Address)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("find by name and address: %w", err)
}

// mergeCandidate adds missing ids and fills empty fields. Ratings and review
// counts take the fresher search values.
func mergeCandidate(r *models.Restaurant, cand Candidate) {
	for p, id := range cand.ExternalIDs {
		if r.ExternalID(p) == "" {
			r.SetExternalID(p, id)
		}
	}
	fill := func(cur *string, v string) {
		if *cur == "" {
			*cur = v
		}
	}
	fill(&r.Address, cand.Address)
	fill(&r.City, cand.City)
	fill(&r.State, cand.State)
	fill(&r.ZipCode, cand.ZipCode)
	fill(&r.Country, cand.Country)
	fill(&r.Phone, cand.Phone)
	fill(&r.Website, cand.Website)
	if r.Latitude == 0 && r.Longitude == 0 {
		r.Latitude, r.Longitude = cand.Latitude, cand.Longitude
	}
	if r.PriceRange == "" {
		r.PriceRange = cand.PriceRange
	}
	if len(r.Cuisine) == 0 {
		r.Cuisine = append([]string(nil), cand.Categories...)
	}
	if !r.Hours.HasAny() && cand.Hours.HasAny() {
		r.Hours = cand.Hours
	}
	if cand.Rating > 0 {
		r.Rating = models.RoundRating(cand.Rating)
	}
	if cand.ReviewCount > 0 {
		r.ReviewCount = cand.ReviewCount
	}
}
