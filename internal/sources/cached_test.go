// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
)

type countingAdapter struct {
	provider models.Provider
	calls    int
	err      error
}

func (c *countingAdapter) Provider() models.Provider { return c.provider }
func (c *countingAdapter) Configured() bool          { return true }

func (c *countingAdapter) Search(context.Context, SearchQuery) ([]models.SourceRecord, error) {
	c.calls++
	return nil, nil
}

func (c *countingAdapter) Details(_ context.Context, id string) (*models.SourceRecord, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &models.SourceRecord{
		Source: c.provider, ExternalID: id, Name: "Chercher",
		Categories: []string{"ethiopian"},
		Hours:      models.WeeklyHours{"monday": {Open: "11:00", Close: "22:00"}},
	}, nil
}

func TestCachedAdapterServesRepeatLookups(t *testing.T) {
	inner := &countingAdapter{provider: models.ProviderYelp}
	a := NewCachedAdapter(inner, NewDetailsCache(10, time.Hour))
	hits := testutil.ToFloat64(metrics.SourceCacheLookups.WithLabelValues("yelp", "hit"))

	first, err := a.Details(context.Background(), "y1")
	if err != nil {
		t.Fatal(err)
	}
	first.Categories[0] = "mutated"

	second, err := a.Details(context.Background(), "y1")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("provider calls = %d, want 1", inner.calls)
	}
	if second.Categories[0] != "ethiopian" {
		t.Errorf("cached record shares state with caller: %v", second.Categories)
	}
	second.Hours["monday"] = models.DayHours{}
	third, _ := a.Details(context.Background(), "y1")
	if third.Hours["monday"].Open != "11:00" {
		t.Errorf("hours = %+v", third.Hours)
	}
	if got := testutil.ToFloat64(metrics.SourceCacheLookups.WithLabelValues("yelp", "hit")) - hits; got != 2 {
		t.Errorf("hit count delta = %v, want 2", got)
	}

	if _, err := a.Details(context.Background(), "y2"); err != nil || inner.calls != 2 {
		t.Errorf("distinct id should miss: calls = %d err = %v", inner.calls, err)
	}
	if _, err := a.Search(context.Background(), SearchQuery{Term: "x"}); err != nil || inner.calls != 3 {
		t.Errorf("Search should pass through: calls = %d", inner.calls)
	}
}

func TestCachedAdapterDoesNotCacheErrors(t *testing.T) {
	inner := &countingAdapter{provider: models.ProviderGoogle, err: ErrQuotaExceeded}
	a := NewCachedAdapter(inner, NewDetailsCache(10, time.Hour))

	for i := 0; i < 2; i++ {
		if _, err := a.Details(context.Background(), "g1"); !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("error = %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("provider calls = %d, want 2", inner.calls)
	}
}

func TestCachedAdapterKeysByProvider(t *testing.T) {
	c := NewDetailsCache(10, time.Hour)
	g := &countingAdapter{provider: models.ProviderGoogle}
	y := &countingAdapter{provider: models.ProviderYelp}
	reg := NewRegistryFrom(g, y).WithDetailsCache(c)
	reg.WithDetailsCache(c)

	for _, a := range reg.Adapters() {
		if _, ok := a.(*CachedAdapter); !ok {
			t.Fatalf("%s adapter not wrapped", a.Provider())
		}
		if cached := a.(*CachedAdapter); cached.Adapter == nil {
			t.Fatal("missing inner adapter")
		}
		if _, err := a.Details(context.Background(), "same-id"); err != nil {
			t.Fatal(err)
		}
	}
	if g.calls != 1 || y.calls != 1 || c.Len() != 2 {
		t.Errorf("calls google %d yelp %d, cached %d", g.calls, y.calls, c.Len())
	}
	if _, isCached := reg.Adapters()[0].(*CachedAdapter).Adapter.(*CachedAdapter); isCached {
		t.Error("adapter wrapped twice")
	}
}
