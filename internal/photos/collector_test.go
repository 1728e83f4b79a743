// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package photos

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/sources"
)

type fakeAdapter struct {
	provider models.Provider
	record   *models.SourceRecord
	err      error
	calls    atomic.Int32
}

func (f *fakeAdapter) Provider() models.Provider { return f.provider }
func (f *fakeAdapter) Configured() bool          { return true }

func (f *fakeAdapter) Search(context.Context, sources.SearchQuery) ([]models.SourceRecord, error) {
	return nil, nil
}

func (f *fakeAdapter) Details(ctx context.Context, _ string) (*models.SourceRecord, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.record, f.err
}

type fakeScraper struct {
	data models.ScrapedRestaurantData
}

func (f fakeScraper) ScrapeWebsite(context.Context, string) models.ScrapedRestaurantData {
	return f.data
}

type failingSocial struct{}

func (failingSocial) Available() bool { return true }
func (failingSocial) Photos(context.Context, *models.Restaurant) ([]models.PhotoAsset, error) {
	return nil, errors.New("rate limited")
}

func testRestaurant() *models.Restaurant {
	return &models.Restaurant{
		ID:             "r1",
		Name:           "Abyssinia",
		GooglePlaceID:  "g1",
		YelpBusinessID: "y1",
		Website:        "https://abyssinia.test",
		Cuisine:        []string{"Ethiopian"},
	}
}

func TestCollectAllPhotos(t *testing.T) {
	google := &fakeAdapter{provider: models.ProviderGoogle, record: &models.SourceRecord{
		Source: models.ProviderGoogle,
		Photos: []models.SourcePhoto{
			{URL: "https://lh3.googleusercontent.com/p/a"},
			{URL: "https://lh3.googleusercontent.com/p/a"},
		},
	}}
	yelp := &fakeAdapter{provider: models.ProviderYelp, err: errors.New("boom")}
	fsq := &fakeAdapter{provider: models.ProviderFoursquare}
	scraper := fakeScraper{data: models.ScrapedRestaurantData{Photos: []models.ScrapedPhoto{
		{URL: "https://abyssinia.test/img/doro.jpg", Alt: "Doro wat"},
		{URL: "https://abyssinia.test/img/room.jpg", Alt: "dining room"},
	}}}

	c := NewCollector([]sources.Adapter{google, yelp, fsq}, scraper, nil, 0)
	col, err := c.CollectAllPhotos(context.Background(), testRestaurant())
	if err != nil {
		t.Fatalf("CollectAllPhotos() error = %v", err)
	}

	if fsq.calls.Load() != 0 {
		t.Error("foursquare was called without an external id")
	}
	if col.TotalCollected != 4 {
		t.Errorf("TotalCollected = %d, want 4", col.TotalCollected)
	}
	if len(col.Photos) != 3 {
		t.Fatalf("len(Photos) = %d, want 3: %+v", len(col.Photos), col.Photos)
	}

	first := col.Photos[0]
	if first.Type != models.PhotoTypeFood || first.Source != models.PhotoSourceWebsite || !first.CulturallyRelevant || first.IsVerified {
		t.Errorf("Photos[0] = %+v", first)
	}
	second := col.Photos[1]
	if second.Source != models.PhotoSourceGoogle || second.Quality != models.PhotoQualityHigh || !second.IsVerified {
		t.Errorf("Photos[1] = %+v", second)
	}
	if col.Photos[2].Type != models.PhotoTypeInterior {
		t.Errorf("Photos[2] = %+v", col.Photos[2])
	}
	for _, p := range col.Photos {
		if p.RestaurantID != "r1" || p.IsPrimary {
			t.Errorf("photo = %+v", p)
		}
	}

	if col.HighQualityCount != 1 || col.FoodPhotoCount != 1 {
		t.Errorf("counts = high %d, food %d", col.HighQualityCount, col.FoodPhotoCount)
	}
	if len(col.Sources) != 2 || col.Sources[0] != "WEBSITE" || col.Sources[1] != "GOOGLE" {
		t.Errorf("Sources = %v", col.Sources)
	}
	if len(col.Errors) != 1 {
		t.Errorf("Errors = %v, want one yelp failure", col.Errors)
	}
}

func TestCollectAllPhotosSocialFailureIsRecorded(t *testing.T) {
	r := testRestaurant()
	r.GooglePlaceID, r.YelpBusinessID, r.Website = "", "", ""

	col, err := NewCollector(nil, nil, failingSocial{}, 0).CollectAllPhotos(context.Background(), r)
	if err != nil {
		t.Fatalf("CollectAllPhotos() error = %v", err)
	}
	if len(col.Photos) != 0 || len(col.Errors) != 1 {
		t.Errorf("collection = %+v", col)
	}
}

func TestCollectAllPhotosCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	google := &fakeAdapter{provider: models.ProviderGoogle, record: &models.SourceRecord{}}
	_, err := NewCollector([]sources.Adapter{google}, nil, nil, 0).CollectAllPhotos(ctx, testRestaurant())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestAssembleTruncatesAfterRanking(t *testing.T) {
	rec := &models.SourceRecord{Photos: []models.SourcePhoto{
		{URL: "https://cdn.test/1.jpg", Caption: "dining room"},
		{URL: "https://cdn.test/2.jpg", Caption: "storefront"},
		{URL: "https://cdn.test/3.jpg", Caption: "injera platter"},
	}}
	c := NewCollector(nil, nil, nil, 2)
	col := c.Assemble(testRestaurant(), Inputs{Records: map[models.Provider]*models.SourceRecord{models.ProviderYelp: rec}})

	if len(col.Photos) != 2 || col.TotalCollected != 3 {
		t.Fatalf("collection = %+v", col)
	}
	if col.Photos[0].URL != "https://cdn.test/3.jpg" || col.Photos[1].URL != "https://cdn.test/1.jpg" {
		t.Errorf("order = %s, %s", col.Photos[0].URL, col.Photos[1].URL)
	}
}

func TestNotImplementedSocialSource(t *testing.T) {
	var s SocialPhotoSource = NotImplementedSocialSource{}
	if s.Available() {
		t.Error("Available() = true")
	}
	if _, err := s.Photos(context.Background(), &models.Restaurant{}); !errors.Is(err, ErrSocialNotImplemented) {
		t.Errorf("Photos() error = %v", err)
	}
}

func TestCollectSkipsKnownInputs(t *testing.T) {
	google := &fakeAdapter{provider: models.ProviderGoogle, record: &models.SourceRecord{}}
	yelp := &fakeAdapter{provider: models.ProviderYelp, record: &models.SourceRecord{Photos: []models.SourcePhoto{
		{URL: "https://s3-media.yelp.test/o.jpg", Caption: "doro wat"},
	}}}
	known := Inputs{
		Records: map[models.Provider]*models.SourceRecord{
			models.ProviderGoogle: {Photos: []models.SourcePhoto{{URL: "https://lh3.googleusercontent.com/p/a", Caption: "injera"}}},
		},
		Scraped: &models.ScrapedRestaurantData{},
	}
	c := NewCollector([]sources.Adapter{google, yelp}, fakeScraper{data: models.ScrapedRestaurantData{
		Photos: []models.ScrapedPhoto{{URL: "https://abyssinia.test/should-not-appear.jpg"}},
	}}, nil, 0)

	col, err := c.Collect(context.Background(), testRestaurant(), known)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if google.calls.Load() != 0 || yelp.calls.Load() != 1 {
		t.Errorf("Details calls google = %d yelp = %d, want 0 and 1", google.calls.Load(), yelp.calls.Load())
	}
	if col.TotalCollected != 2 {
		t.Errorf("TotalCollected = %d, want the known google photo and the fetched yelp photo", col.TotalCollected)
	}
	if len(known.Records) != 1 {
		t.Errorf("known.Records was modified: %v", known.Records)
	}
}
