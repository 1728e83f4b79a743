// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package monitoring

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/models"
)

type fakeStore struct {
	mu          sync.Mutex
	restaurants []*models.Restaurant
	verified    map[string]bool
	listCalls   int
}

func (s *fakeStore) GetRestaurant(_ context.Context, id string) (*models.Restaurant, error) {
	for _, r := range s.restaurants {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) ListRestaurants(context.Context) ([]*models.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return s.restaurants, nil
}

func (s *fakeStore) SetVerified(_ context.Context, id string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verified == nil {
		s.verified = map[string]bool{}
	}
	s.verified[id] = v
	return nil
}

func newTestService(store Store, d DiscrepancyDetector) *Service {
	s := NewService(config.MonitoringConfig{}, store, d)
	s.now = func() time.Time { return testNow }
	return s
}

func TestAssessRestaurantNotFound(t *testing.T) {
	s := newTestService(&fakeStore{}, nil)
	if _, err := s.AssessRestaurant(context.Background(), "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("AssessRestaurant() error = %v, want ErrNotFound", err)
	}
}

func TestGenerateReport(t *testing.T) {
	store := &fakeStore{restaurants: []*models.Restaurant{completeRestaurant(), {ID: "bad"}}}
	rep, err := newTestService(store, nil).GenerateReport(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if rep.TotalRestaurants != 2 || rep.NeedingAttention != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Verification != (VerificationBreakdown{Verified: 1, Flagged: 1}) {
		t.Errorf("Verification = %+v", rep.Verification)
	}
	if rep.AverageCompleteness != 0.5 {
		t.Errorf("AverageCompleteness = %v", rep.AverageCompleteness)
	}

	wantIssues := []IssueSummary{
		{Type: models.IssueMissingData, Severity: models.SeverityHigh, Count: 1, Percentage: 50},
		{Type: models.IssueMissingData, Severity: models.SeverityMedium, Count: 1, Percentage: 50},
		{Type: models.IssueOutdatedInfo, Severity: models.SeverityMedium, Count: 1, Percentage: 50},
	}
	if !reflect.DeepEqual(rep.TopIssues, wantIssues) {
		t.Errorf("TopIssues = %+v", rep.TopIssues)
	}
	if len(rep.Recommendations) != 3 {
		t.Errorf("Recommendations = %v", rep.Recommendations)
	}
}

func TestGenerateReportEmpty(t *testing.T) {
	rep, err := newTestService(&fakeStore{}, nil).GenerateReport(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalRestaurants != 0 || rep.AverageScore != 0 || len(rep.TopIssues) != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestBuildReportKeepsTopTen(t *testing.T) {
	var rs []*models.Restaurant
	var ms []*models.QualityMetrics
	for i := 0; i < 12; i++ {
		rs = append(rs, &models.Restaurant{IsVerified: true})
		var issues []models.Issue
		for j := 0; j <= i; j++ {
			issues = append(issues, models.Issue{Type: models.IssueType(fmt.Sprintf("T%02d", j)), Severity: models.SeverityLow})
		}
		ms = append(ms, &models.QualityMetrics{OverallScore: 0.9, Completeness: 1, PhotoQuality: 1, Issues: issues})
	}
	rep := BuildReport(rs, ms, DefaultAttentionThreshold, testNow)
	if len(rep.TopIssues) != 10 {
		t.Fatalf("len(TopIssues) = %d", len(rep.TopIssues))
	}
	if rep.TopIssues[0].Type != "T00" || rep.TopIssues[0].Count != 12 || rep.TopIssues[9].Type != "T09" {
		t.Errorf("TopIssues = %+v", rep.TopIssues)
	}
	if len(rep.Recommendations) != 0 {
		t.Errorf("Recommendations = %v", rep.Recommendations)
	}
}

func TestIdentifyOutdatedRestaurants(t *testing.T) {
	day := 24 * time.Hour
	store := &fakeStore{restaurants: []*models.Restaurant{
		{ID: "old", LastUpdated: testNow.Add(-31 * day)},
		{ID: "recent", LastUpdated: testNow.Add(-29 * day)},
	}}
	ids, err := newTestService(store, nil).IdentifyOutdatedRestaurants(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"old"}) {
		t.Errorf("IdentifyOutdatedRestaurants() = %v", ids)
	}
}

type fakeDetector struct {
	mu    sync.Mutex
	calls []string
	found map[string][]models.Discrepancy
}

func (d *fakeDetector) Available() bool { return true }

func (d *fakeDetector) Detect(_ context.Context, r *models.Restaurant) ([]models.Discrepancy, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, r.ID)
	if r.ID == "broken" {
		return nil, errors.New("provider down")
	}
	return d.found[r.ID], nil
}

func TestFlagDataDiscrepancies(t *testing.T) {
	store := &fakeStore{restaurants: []*models.Restaurant{
		{ID: "r1", GooglePlaceID: "g1", IsVerified: true},
		{ID: "r2", YelpBusinessID: "y2", IsVerified: true},
		{ID: "broken", FoursquareID: "f3"},
		{ID: "unlinked"},
	}}
	d := &fakeDetector{found: map[string][]models.Discrepancy{"r1": {{Field: "phone"}}}}

	n, err := newTestService(store, d).FlagDataDiscrepancies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("flagged = %d, want 1", n)
	}
	if v, ok := store.verified["r1"]; !ok || v {
		t.Errorf("verified = %v", store.verified)
	}
	if !reflect.DeepEqual(d.calls, []string{"r1", "r2", "broken"}) {
		t.Errorf("detector calls = %v", d.calls)
	}
}

func TestFlagDataDiscrepanciesNoopDetector(t *testing.T) {
	store := &fakeStore{restaurants: []*models.Restaurant{{ID: "r1", GooglePlaceID: "g1"}}}
	n, err := newTestService(store, nil).FlagDataDiscrepancies(context.Background())
	if err != nil || n != 0 {
		t.Errorf("FlagDataDiscrepancies() = %d, %v", n, err)
	}
	if store.listCalls != 0 || store.verified != nil {
		t.Error("noop detector should not sweep the store")
	}
}
