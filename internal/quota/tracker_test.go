// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func fixedTracker(store Store, limits map[string]int, at time.Time) *Tracker {
	tr := NewTracker(store, limits)
	tr.now = func() time.Time { return at }
	return tr
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	at := time.Date(2026, 3, 2, 1, 30, 0, 0, loc)
	if got := Day(at); got != "2026-03-01" {
		t.Errorf("Day() = %q, want 2026-03-01", got)
	}
}

func TestTrackerAllowUnderLimit(t *testing.T) {
	ctx := context.Background()
	tr := fixedTracker(NewMemoryStore(), map[string]int{"google": 3}, time.Now())

	for i := 0; i < 3; i++ {
		if err := tr.Allow(ctx, "google"); err != nil {
			t.Fatalf("call %d: Allow() error = %v", i, err)
		}
		if err := tr.Record(ctx, "google", "search"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	err := tr.Allow(ctx, "google")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Allow() after ceiling = %v, want ErrQuotaExceeded", err)
	}
}

func TestTrackerCountsAcrossEndpoints(t *testing.T) {
	ctx := context.Background()
	tr := fixedTracker(NewMemoryStore(), map[string]int{"yelp": 2}, time.Now())

	_ = tr.Record(ctx, "yelp", "search")
	_ = tr.Record(ctx, "yelp", "details")

	if err := tr.Allow(ctx, "yelp"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Allow() = %v, want ErrQuotaExceeded", err)
	}
}

func TestTrackerZeroLimitIsUnlimited(t *testing.T) {
	ctx := context.Background()
	tr := fixedTracker(NewMemoryStore(), map[string]int{"foursquare": 0}, time.Now())
	for i := 0; i < 50; i++ {
		_ = tr.Record(ctx, "foursquare", "search")
	}
	if err := tr.Allow(ctx, "foursquare"); err != nil {
		t.Errorf("Allow() = %v, want nil for unlimited provider", err)
	}
}

func TestTrackerResetsAtDayBoundary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	day1 := time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)
	tr := fixedTracker(store, map[string]int{"google": 1}, day1)

	_ = tr.Record(ctx, "google", "search")
	if err := tr.Allow(ctx, "google"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Allow() on day 1 = %v, want ErrQuotaExceeded", err)
	}

	tr.now = func() time.Time { return day1.Add(2 * time.Minute) }
	if err := tr.Allow(ctx, "google"); err != nil {
		t.Errorf("Allow() on day 2 = %v, want nil", err)
	}
}

func TestTrackerConcurrentRecordNeverUndercounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tr := fixedTracker(store, map[string]int{"google": 1000}, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.Record(ctx, "google", "details")
		}()
	}
	wg.Wait()

	n, err := store.Count(ctx, "google", Day(tr.now()))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 100 {
		t.Errorf("Count() = %d, want 100", n)
	}
}

func TestTrackerUsage(t *testing.T) {
	ctx := context.Background()
	tr := fixedTracker(NewMemoryStore(), map[string]int{"google": 10, "yelp": 0}, time.Now())
	_ = tr.Record(ctx, "google", "search")
	_ = tr.Record(ctx, "google", "search")
	_ = tr.Record(ctx, "google", "details")

	usage, err := tr.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("len(Usage()) = %d, want 2", len(usage))
	}

	g := usage[0]
	if g.Provider != "google" || g.Used != 3 || g.Remaining != 7 || len(g.Endpoints) != 2 {
		t.Errorf("google usage = %+v", g)
	}
	y := usage[1]
	if y.Provider != "yelp" || y.Used != 0 || y.Remaining != -1 {
		t.Errorf("yelp usage = %+v", y)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Close()
	if _, err := s.Increment(context.Background(), "google", "search", "2026-01-01"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Increment() after Close = %v, want ErrStoreClosed", err)
	}
}
