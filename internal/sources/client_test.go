// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/quota"
)

func testProviderConfig(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	}
}

// countingServer returns a server that counts hits and replies with body.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func usedToday(t *testing.T, store quota.Store, provider string) int64 {
	t.Helper()
	n, err := store.Count(context.Background(), provider, quota.Day(time.Now()))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	return n
}

func TestNotConfiguredMakesNoCall(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, `{"businesses":[]}`)
	store := quota.NewMemoryStore()
	tracker := quota.NewTracker(store, map[string]int{"yelp": 10})

	cfg := testProviderConfig(srv.URL)
	cfg.APIKey = ""
	c := NewYelpClient(cfg, tracker)

	_, err := c.Search(context.Background(), SearchQuery{Term: "ethiopian", Location: "Atlanta, GA"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Search() error = %v, want ErrNotConfigured", err)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Errorf("server hits = %d, want 0", atomic.LoadInt32(hits))
	}
	if n := usedToday(t, store, "yelp"); n != 0 {
		t.Errorf("quota used = %d, want 0", n)
	}
}

func TestQuotaExhaustedMakesNoCall(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, `{"status":"OK","results":[]}`)
	store := quota.NewMemoryStore()
	tracker := quota.NewTracker(store, map[string]int{"google": 1})
	c := NewGoogleClient(testProviderConfig(srv.URL), tracker)
	ctx := context.Background()

	if _, err := c.Search(ctx, SearchQuery{Term: "nigerian", Location: "Houston, TX"}); err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	_, err := c.Search(ctx, SearchQuery{Term: "nigerian", Location: "Houston, TX"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("second Search() error = %v, want ErrQuotaExceeded", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
	if n := usedToday(t, store, "google"); n != 1 {
		t.Errorf("quota used = %d, want 1", n)
	}
}

func TestSuccessfulCallRecordsOnce(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, `{"businesses":[{"id":"a"},{"id":"b"},{"id":"c"}]}`)
	store := quota.NewMemoryStore()
	c := NewYelpClient(testProviderConfig(srv.URL), quota.NewTracker(store, map[string]int{"yelp": 100}))

	recs, err := c.Search(context.Background(), SearchQuery{Term: "senegalese", Location: "New York, NY"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("len(recs) = %d, want 3", len(recs))
	}
	if n := usedToday(t, store, "yelp"); n != 1 {
		t.Errorf("quota used = %d, want 1", n)
	}
}

func TestRetryOn429(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"fsq_id":"4b0","name":"Dukem"}]}`))
	}))
	defer srv.Close()

	c := NewFoursquareClient(testProviderConfig(srv.URL), nil)
	recs, err := c.Search(context.Background(), SearchQuery{Term: "ethiopian", Location: "Washington, DC"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "Dukem" {
		t.Errorf("recs = %+v", recs)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	srv, hits := countingServer(t, http.StatusTooManyRequests, ``)
	c := NewYelpClient(testProviderConfig(srv.URL), nil)

	_, err := c.Details(context.Background(), "abyssinia-atlanta")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Details() error = %v, want 429 APIError", err)
	}
	if got := atomic.LoadInt32(hits); got != 3 {
		t.Errorf("server hits = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"fsq_id":"4b0","name":"Dukem"}]}`))
	}))
	defer srv.Close()

	c := NewFoursquareClient(testProviderConfig(srv.URL), nil)
	recs, err := c.Search(context.Background(), SearchQuery{Term: "ethiopian", Location: "Washington, DC"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("recs = %+v", recs)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestServerErrorGivesUpAfterMaxRetries(t *testing.T) {
	srv, hits := countingServer(t, http.StatusBadGateway, `{"error":{"description":"upstream down"}}`)
	c := NewYelpClient(testProviderConfig(srv.URL), nil)

	_, err := c.Details(context.Background(), "abyssinia-atlanta")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("Details() error = %v, want 502 APIError", err)
	}
	if got := atomic.LoadInt32(hits); got != 3 {
		t.Errorf("server hits = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestHTTPErrorBecomesAPIError(t *testing.T) {
	srv, _ := countingServer(t, http.StatusUnauthorized,
		`{"error":{"code":"TOKEN_INVALID","description":"Invalid access token"}}`)
	store := quota.NewMemoryStore()
	c := NewYelpClient(testProviderConfig(srv.URL), quota.NewTracker(store, nil))

	_, err := c.Details(context.Background(), "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Details() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid access token" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if n := usedToday(t, store, "yelp"); n != 0 {
		t.Errorf("quota used = %d, want 0 for failed call", n)
	}
}

func TestMalformedJSONReturnsError(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, `{"results": [`)
	c := NewFoursquareClient(testProviderConfig(srv.URL), nil)
	if _, err := c.Search(context.Background(), SearchQuery{Location: "Dallas, TX"}); err == nil {
		t.Fatal("Search() error = nil, want decode error")
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":{"description":"bad"}}`, "bad"},
		{`{"error_message":"denied"}`, "denied"},
		{`{"message":"nope"}`, "nope"},
		{`plain text`, "plain text"},
		{``, "empty response body"},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
