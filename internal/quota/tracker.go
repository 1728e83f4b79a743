// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/afritable/internal/metrics"
)

// Tracker enforces per-provider daily ceilings over a Store. A ceiling of
// zero means unlimited.
//
// Allow and Record are separate calls, so concurrent callers that all pass
// Allow near the ceiling may overshoot it by at most the number of in-flight
// calls. Counting itself never undercounts.
type Tracker struct {
	store  Store
	limits map[string]int
	now    func() time.Time
}

// NewTracker creates a tracker. limits is keyed by provider key ("google").
func NewTracker(store Store, limits map[string]int) *Tracker {
	l := make(map[string]int, len(limits))
	for k, v := range limits {
		l[k] = v
	}
	return &Tracker{store: store, limits: l, now: time.Now}
}

// Limit returns the configured ceiling for provider.
func (t *Tracker) Limit(provider string) int {
	return t.limits[provider]
}

// Allow returns ErrQuotaExceeded if provider has used today's ceiling.
func (t *Tracker) Allow(ctx context.Context, provider string) error {
	limit := t.limits[provider]
	if limit <= 0 {
		return nil
	}
	used, err := t.store.Count(ctx, provider, Day(t.now()))
	if err != nil {
		return fmt.Errorf("read %s quota: %w", provider, err)
	}
	if used >= int64(limit) {
		metrics.RecordQuotaRejection(provider)
		return fmt.Errorf("%s: %d/%d requests today: %w", provider, used, limit, ErrQuotaExceeded)
	}
	return nil
}

// Record counts one completed call against (provider, endpoint, today).
func (t *Tracker) Record(ctx context.Context, provider, endpoint string) error {
	day := Day(t.now())
	if _, err := t.store.Increment(ctx, provider, endpoint, day); err != nil {
		return fmt.Errorf("record %s/%s usage: %w", provider, endpoint, err)
	}
	if total, err := t.store.Count(ctx, provider, day); err == nil {
		metrics.QuotaUsage.WithLabelValues(provider).Set(float64(total))
	}
	return nil
}

// ProviderUsage summarizes one provider's consumption for a day.
type ProviderUsage struct {
	Provider  string    `json:"provider"`
	Day       string    `json:"day"`
	Used      int64     `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int64     `json:"remaining"`
	Endpoints []Counter `json:"endpoints"`
}

// Usage reports today's consumption for every provider with a configured limit
// or recorded traffic.
func (t *Tracker) Usage(ctx context.Context) ([]ProviderUsage, error) {
	day := Day(t.now())
	counters, err := t.store.Usage(ctx, day)
	if err != nil {
		return nil, err
	}

	byProvider := make(map[string]*ProviderUsage)
	order := []string{}
	get := func(p string) *ProviderUsage {
		if u, ok := byProvider[p]; ok {
			return u
		}
		u := &ProviderUsage{Provider: p, Day: day, Limit: t.limits[p], Endpoints: []Counter{}}
		byProvider[p] = u
		order = append(order, p)
		return u
	}
	for _, p := range []string{"google", "yelp", "foursquare"} {
		if _, ok := t.limits[p]; ok {
			get(p)
		}
	}
	for _, c := range counters {
		u := get(c.Provider)
		u.Used += c.Count
		u.Endpoints = append(u.Endpoints, c)
	}

	out := make([]ProviderUsage, 0, len(order))
	for _, p := range order {
		u := byProvider[p]
		if u.Limit > 0 {
			u.Remaining = int64(u.Limit) - u.Used
			if u.Remaining < 0 {
				u.Remaining = 0
			}
		} else {
			u.Remaining = -1
		}
		out = append(out, *u)
	}
	return out, nil
}
