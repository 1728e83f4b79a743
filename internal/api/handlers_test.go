// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/afritable/internal/collection"
	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/monitoring"
	"github.com/tomtom215/afritable/internal/quota"
	"github.com/tomtom215/afritable/internal/tasks"
)

type fakeEnhancer struct {
	mu        sync.Mutex
	single    []enhancement.Options
	batches   []enhancement.BatchOptions
	needsWork []*models.Restaurant
}

func (f *fakeEnhancer) EnhanceRestaurant(_ context.Context, id string, opts enhancement.Options) (*enhancement.Result, error) {
	f.mu.Lock()
	f.single = append(f.single, opts)
	f.mu.Unlock()
	return &enhancement.Result{RestaurantID: id, Score: 0.8, Status: models.StatusVerified}, nil
}

func (f *fakeEnhancer) EnhanceBatch(_ context.Context, opts enhancement.BatchOptions) (*enhancement.BatchReport, error) {
	f.mu.Lock()
	f.batches = append(f.batches, opts)
	f.mu.Unlock()
	return &enhancement.BatchReport{Processed: len(opts.IDs)}, nil
}

func (f *fakeEnhancer) NeedsEnhancement(context.Context) ([]*models.Restaurant, error) {
	return f.needsWork, nil
}

type fakeCollector struct {
	full chan bool
}

func (f *fakeCollector) Collect(_ context.Context, full bool) (*collection.Report, error) {
	f.full <- full
	return &collection.Report{Created: 1}, nil
}

type fakeMonitor struct {
	outdated []string
}

func (f *fakeMonitor) AssessRestaurant(_ context.Context, id string) (*models.QualityMetrics, error) {
	if id != "r1" {
		return nil, fmt.Errorf("assess restaurant %s: %w", id, models.ErrNotFound)
	}
	return &models.QualityMetrics{RestaurantID: id, OverallScore: 0.75}, nil
}

func (f *fakeMonitor) GenerateReport(context.Context) (*monitoring.Report, error) {
	return &monitoring.Report{TotalRestaurants: 3, AverageScore: 0.6}, nil
}

func (f *fakeMonitor) IdentifyOutdatedRestaurants(context.Context) ([]string, error) {
	return f.outdated, nil
}

type fakeStore struct {
	pingErr error
}

func (s *fakeStore) GetRestaurant(_ context.Context, id string) (*models.Restaurant, error) {
	if id != "r1" {
		return nil, models.ErrNotFound
	}
	return &models.Restaurant{ID: id, Name: "Abyssinia"}, nil
}

func (s *fakeStore) ListQualityEvents(_ context.Context, id string, limit int) ([]models.QualityEvent, error) {
	return []models.QualityEvent{{ID: "q1", RestaurantID: id, Score: float64(limit) / 100}}, nil
}

func (s *fakeStore) ListDiscrepancies(context.Context, string) ([]models.Discrepancy, error) {
	return nil, nil
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

type fakeUsage struct{}

func (fakeUsage) Usage(context.Context) ([]quota.ProviderUsage, error) {
	return []quota.ProviderUsage{{Provider: "google", Used: 12, Limit: 100, Remaining: 88}}, nil
}

// stubQueue rejects submissions with err.
type stubQueue struct{ err error }

func (q stubQueue) Name() string                              { return "stub" }
func (q stubQueue) Submit(string, tasks.Func) (string, error) { return "", q.err }
func (q stubQueue) Get(string) (tasks.Task, error)            { return tasks.Task{}, tasks.ErrTaskNotFound }
func (q stubQueue) List() []tasks.Task                        { return nil }

type testEnv struct {
	router    http.Handler
	enhancer  *fakeEnhancer
	collector *fakeCollector
	store     *fakeStore
	enhQueue  *tasks.Queue
	jobsQueue *tasks.Queue
}

func startQueue(t *testing.T, name string) *tasks.Queue {
	t.Helper()
	q := tasks.NewQueue(name, tasks.Options{Workers: 1, Size: 8}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	for _, w := range q.Workers() {
		go func() { _ = w.Serve(ctx) }()
	}
	t.Cleanup(func() {
		cancel()
		q.Close()
	})
	return q
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		enhancer:  &fakeEnhancer{needsWork: []*models.Restaurant{{ID: "r2", Name: "Dukem", City: "Washington"}}},
		collector: &fakeCollector{full: make(chan bool, 1)},
		store:     &fakeStore{},
		enhQueue:  startQueue(t, "enhancement"),
		jobsQueue: startQueue(t, "jobs"),
	}
	h := NewHandler(Deps{
		Enhancer:       env.enhancer,
		Collector:      env.collector,
		Monitor:        &fakeMonitor{outdated: []string{"r3"}},
		Store:          env.store,
		Usage:          fakeUsage{},
		Enhancement:    env.enhQueue,
		Jobs:           env.jobsQueue,
		DefaultOptions: enhancement.DefaultOptions(),
	})
	env.router = NewRouter(h, MiddlewareConfig{CORSAllowedOrigins: []string{"https://admin.afritable.test"}, RateLimitDisabled: true})
	return env
}

func (env *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body == "" {
		req.Body = http.NoBody
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func dataMap(t *testing.T, resp Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v, want object", resp.Data)
	}
	return m
}

func waitTask(t *testing.T, q *tasks.Queue, id string) tasks.Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	task, err := q.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait(%s): %v", id, err)
	}
	return task
}

func TestEnhanceRestaurantAccepted(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/admin/enhancement/restaurants/r1", `{"photos":false,"force_update":true}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	data := dataMap(t, resp)
	id, _ := data["task_id"].(string)
	if id == "" || data["queue"] != "enhancement" || data["kind"] != KindEnhanceRestaurant {
		t.Fatalf("data = %v", data)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/admin/tasks/"+id {
		t.Errorf("Location = %q", loc)
	}

	task := waitTask(t, env.enhQueue, id)
	if task.Status != tasks.StatusSucceeded {
		t.Fatalf("task = %+v", task)
	}
	want := enhancement.Options{Photos: false, Scraping: true, Validation: true, ForceUpdate: true}
	if len(env.enhancer.single) != 1 || env.enhancer.single[0] != want {
		t.Errorf("options = %+v, want %+v", env.enhancer.single, want)
	}

	rec, resp = env.do(t, http.MethodGet, "/api/v1/admin/tasks/"+id, "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["status"] != string(tasks.StatusSucceeded) {
		t.Errorf("GET task = %d %v", rec.Code, resp.Data)
	}
}

func TestEnhanceRestaurantErrors(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name, path, body string
		status           int
		code             string
	}{
		{"unknown restaurant", "/api/v1/admin/enhancement/restaurants/nope", "", http.StatusNotFound, CodeNotFound},
		{"malformed body", "/api/v1/admin/enhancement/restaurants/r1", `{"photos":`, http.StatusBadRequest, CodeBadRequest},
		{"unknown field", "/api/v1/admin/enhancement/restaurants/r1", `{"colour":"red"}`, http.StatusBadRequest, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status || resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("got %d %+v, want %d %s", rec.Code, resp.Error, tt.status, tt.code)
			}
		})
	}
}

func TestEnhanceBatchValidation(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/admin/enhancement/batch", `{"batch_size":500,"ids":[""]}`)
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != CodeValidation {
		t.Fatalf("got %d %+v", rec.Code, resp.Error)
	}
	if len(resp.Error.Fields) != 2 {
		t.Errorf("fields = %+v", resp.Error.Fields)
	}

	rec, resp = env.do(t, http.MethodPost, "/api/v1/admin/enhancement/batch", `{"ids":["r1","r2"],"batch_size":5,"skip_existing":true}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	waitTask(t, env.enhQueue, dataMap(t, resp)["task_id"].(string))
	got := env.enhancer.batches[0]
	if len(got.IDs) != 2 || got.BatchSize != 5 || !got.SkipExisting || !got.Options.Photos {
		t.Errorf("batch options = %+v", got)
	}
}

func TestCollectUsesJobsQueue(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/admin/collection", `{"mode":"full"}`)
	if rec.Code != http.StatusAccepted || dataMap(t, resp)["queue"] != "jobs" {
		t.Fatalf("got %d %v", rec.Code, resp.Data)
	}
	if full := <-env.collector.full; !full {
		t.Error("full collection not requested")
	}

	rec, _ = env.do(t, http.MethodPost, "/api/v1/admin/collection", `{"mode":"everything"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid mode status = %d", rec.Code)
	}

	rec, _ = env.do(t, http.MethodPost, "/api/v1/admin/collection", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("empty body status = %d", rec.Code)
	}
	if full := <-env.collector.full; full {
		t.Error("empty body should run the quick sweep")
	}
}

func TestSubmitQueueErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{tasks.ErrQueueFull, http.StatusServiceUnavailable, CodeQueueFull},
		{tasks.ErrQueueClosed, http.StatusServiceUnavailable, CodeUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := NewHandler(Deps{Collector: &fakeCollector{}, Jobs: stubQueue{err: tt.err}})
			rec := httptest.NewRecorder()
			NewRouter(h, MiddlewareConfig{RateLimitDisabled: true}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/collection", http.NoBody))
			var resp Response
			_ = json.Unmarshal(rec.Body.Bytes(), &resp)
			if rec.Code != tt.status || resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("got %d %+v", rec.Code, resp.Error)
			}
		})
	}
}

func TestListTasksAcrossQueues(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.enhQueue.Submit("a", func(context.Context) (any, error) { return nil, nil })
	waitTask(t, env.enhQueue, a)
	b, _ := env.jobsQueue.Submit("b", func(context.Context) (any, error) { return nil, errors.New("failed") })
	waitTask(t, env.jobsQueue, b)

	_, resp := env.do(t, http.MethodGet, "/api/v1/admin/tasks", "")
	if resp.Metadata.Count == nil || *resp.Metadata.Count != 2 {
		t.Fatalf("count = %v", resp.Metadata.Count)
	}
	_, resp = env.do(t, http.MethodGet, "/api/v1/admin/tasks?status=failed", "")
	items, _ := resp.Data.([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != b {
		t.Errorf("failed tasks = %v", resp.Data)
	}

	rec, _ := env.do(t, http.MethodGet, "/api/v1/admin/tasks/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing task status = %d", rec.Code)
	}
}

func TestQualityEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/admin/quality/restaurants/r1?limit=50", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataMap(t, resp)
	history, _ := data["history"].([]any)
	ds, _ := data["discrepancies"].([]any)
	if len(history) != 1 || history[0].(map[string]any)["score"] != 0.5 || ds == nil {
		t.Errorf("data = %v", data)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/admin/quality/restaurants/nope", http.StatusNotFound},
		{"/api/v1/admin/quality/restaurants/r1?limit=0", http.StatusBadRequest},
		{"/api/v1/admin/quality/report", http.StatusOK},
		{"/api/v1/admin/quality/outdated", http.StatusOK},
		{"/api/v1/admin/restaurants/needs-enhancement", http.StatusOK},
		{"/api/v1/admin/usage", http.StatusOK},
	}
	for _, tt := range tests {
		if rec, _ := env.do(t, http.MethodGet, tt.path, ""); rec.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
		}
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/admin/restaurants/needs-enhancement", "")
	items, _ := resp.Data.([]any)
	if len(items) != 1 || items[0].(map[string]any)["last_updated"] != nil {
		t.Errorf("needs-enhancement = %v", resp.Data)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, resp := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["status"] != "healthy" {
		t.Errorf("healthy = %d %v", rec.Code, resp.Data)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	env.store.pingErr = errors.New("database is locked")
	rec, resp = env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable || dataMap(t, resp)["status"] != "degraded" {
		t.Errorf("degraded = %d %v", rec.Code, resp.Data)
	}
}

func TestRoutingErrors(t *testing.T) {
	env := newTestEnv(t)
	if rec, resp := env.do(t, http.MethodGet, "/api/v1/admin/nothing", ""); rec.Code != http.StatusNotFound || resp.Error == nil {
		t.Errorf("unknown route = %d", rec.Code)
	}
	if rec, _ := env.do(t, http.MethodGet, "/api/v1/admin/collection", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method = %d", rec.Code)
	}
	if rec, _ := env.do(t, http.MethodGet, "/api/v1/ws", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ws without hub = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(Deps{Usage: fakeUsage{}})
	router := NewRouter(h, MiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/usage", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	h := NewHandler(Deps{AllowedOrigins: []string{"https://admin.afritable.test"}})
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://admin.afritable.test", true},
		{"https://evil.test", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.checkWebSocketOrigin(req); got != tt.want {
			t.Errorf("origin %q = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
