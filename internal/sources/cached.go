// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/tomtom215/afritable/internal/cache"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
)

// DetailsCache stores place details keyed by provider and external id.
type DetailsCache = cache.LRU[models.SourceRecord]

// NewDetailsCache creates a details cache shared by every provider.
func NewDetailsCache(size int, ttl time.Duration) *DetailsCache {
	return cache.NewLRU[models.SourceRecord](size, ttl)
}

// CachedAdapter serves repeated Details lookups from a cache. Search always
// goes to the provider. Only successful lookups are cached.
type CachedAdapter struct {
	Adapter
	cache *DetailsCache
}

// NewCachedAdapter wraps a with c.
func NewCachedAdapter(a Adapter, c *DetailsCache) *CachedAdapter {
	return &CachedAdapter{Adapter: a, cache: c}
}

// Details returns a copy of the cached record or fetches and caches it.
func (a *CachedAdapter) Details(ctx context.Context, externalID string) (*models.SourceRecord, error) {
	provider := a.Provider().Key()
	key := provider + ":" + externalID
	if rec, ok := a.cache.Get(key); ok {
		metrics.SourceCacheLookups.WithLabelValues(provider, "hit").Inc()
		return cloneRecord(&rec), nil
	}
	metrics.SourceCacheLookups.WithLabelValues(provider, "miss").Inc()

	rec, err := a.Adapter.Details(ctx, externalID)
	if err != nil {
		return nil, err
	}
	a.cache.Add(key, *cloneRecord(rec))
	return rec, nil
}

func cloneRecord(rec *models.SourceRecord) *models.SourceRecord {
	c := *rec
	c.Categories = slices.Clone(rec.Categories)
	c.Photos = slices.Clone(rec.Photos)
	c.Hours = maps.Clone(rec.Hours)
	return &c
}
