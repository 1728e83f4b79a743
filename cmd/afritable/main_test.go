// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/afritable/internal/collection"
	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/monitoring"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(*testing.T, *options)
	}{
		{
			name: "defaults enable every step",
			args: []string{"enhance"},
			check: func(t *testing.T, o *options) {
				if o.command != "enhance" || !o.steps.Photos || !o.steps.Scraping || !o.steps.Validation || o.steps.ForceUpdate {
					t.Errorf("opts = %+v", o)
				}
			},
		},
		{
			name: "step flags",
			args: []string{"--restaurant-id", "r1", "--photos=false", "--force-update", "--batch-size", "5", "--skip-existing", "enhance"},
			check: func(t *testing.T, o *options) {
				if o.restaurantID != "r1" || o.steps.Photos || !o.steps.ForceUpdate || o.batchSize != 5 || !o.skipExisting {
					t.Errorf("opts = %+v", o)
				}
			},
		},
		{
			name: "full collection",
			args: []string{"collect", "--full", "--config", "/etc/afritable.yaml"},
			check: func(t *testing.T, o *options) {
				if !o.full || o.configPath != "/etc/afritable.yaml" {
					t.Errorf("opts = %+v", o)
				}
			},
		},
		{name: "missing command", args: nil, wantErr: true},
		{name: "two commands", args: []string{"report", "stale"}, wantErr: true},
		{name: "unknown command", args: []string{"migrate"}, wantErr: true},
		{name: "unknown flag", args: []string{"--verbose", "report"}, wantErr: true},
		{name: "batch size too large", args: []string{"--batch-size", "51", "enhance"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, opts)
			}
		})
	}
}

type fakePipeline struct {
	calls     []string
	batchOpts enhancement.BatchOptions
	err       error
}

func (f *fakePipeline) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakePipeline) Collect(_ context.Context, full bool) (*collection.Report, error) {
	if full {
		return &collection.Report{Created: 2}, f.record("collect-full")
	}
	return &collection.Report{Created: 1}, f.record("collect-quick")
}

func (f *fakePipeline) PurgeTestData(context.Context) (*collection.PurgeReport, error) {
	return &collection.PurgeReport{PhonesCleared: 3}, f.record("purge")
}

func (f *fakePipeline) EnhanceRestaurant(_ context.Context, id string, _ enhancement.Options) (*enhancement.Result, error) {
	return &enhancement.Result{RestaurantID: id, Score: 0.9}, f.record("enhance-one")
}

func (f *fakePipeline) EnhanceBatch(_ context.Context, opts enhancement.BatchOptions) (*enhancement.BatchReport, error) {
	f.batchOpts = opts
	return &enhancement.BatchReport{Processed: 4}, f.record("enhance-batch")
}

func (f *fakePipeline) AssessRestaurant(_ context.Context, id string) (*models.QualityMetrics, error) {
	return &models.QualityMetrics{RestaurantID: id}, f.record("assess")
}

func (f *fakePipeline) GenerateReport(context.Context) (*monitoring.Report, error) {
	return &monitoring.Report{TotalRestaurants: 7}, f.record("report")
}

func (f *fakePipeline) IdentifyOutdatedRestaurants(context.Context) ([]string, error) {
	return []string{"a", "b"}, f.record("stale")
}

func (f *fakePipeline) FlagDataDiscrepancies(context.Context) (int, error) {
	return 2, f.record("flag")
}

func TestExecuteCommands(t *testing.T) {
	tests := []struct {
		args     []string
		wantCall string
		wantKey  string
	}{
		{[]string{"collect"}, "collect-quick", "created"},
		{[]string{"collect", "--full"}, "collect-full", "created"},
		{[]string{"enhance", "--restaurant-id", "r1"}, "enhance-one", "restaurant_id"},
		{[]string{"enhance"}, "enhance-batch", "processed"},
		{[]string{"assess", "--restaurant-id", "r1"}, "assess", "restaurant_id"},
		{[]string{"report"}, "report", "total_restaurants"},
		{[]string{"stale"}, "stale", "restaurant_ids"},
		{[]string{"flag"}, "flag", "flagged"},
		{[]string{"purge-test-data"}, "purge", "phones_cleared"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			opts, err := parseArgs(tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatal(err)
			}
			p := &fakePipeline{}
			var out bytes.Buffer
			if code := execute(context.Background(), p, opts, &out); code != 0 {
				t.Fatalf("exit code = %d", code)
			}
			if len(p.calls) != 1 || p.calls[0] != tt.wantCall {
				t.Errorf("calls = %v, want %s", p.calls, tt.wantCall)
			}
			var summary map[string]any
			if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
				t.Fatalf("stdout is not JSON: %v\n%s", err, out.String())
			}
			if _, ok := summary[tt.wantKey]; !ok {
				t.Errorf("summary %v lacks %q", summary, tt.wantKey)
			}
		})
	}
}

func TestExecuteBatchOptions(t *testing.T) {
	opts, err := parseArgs([]string{"enhance", "--batch-size", "3", "--skip-existing", "--scraping=false"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	p := &fakePipeline{}
	if code := execute(context.Background(), p, opts, &bytes.Buffer{}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	got := p.batchOpts
	if got.BatchSize != 3 || !got.SkipExisting || got.Options.Scraping || !got.Options.Photos {
		t.Errorf("batch options = %+v", got)
	}
}

func TestExecuteFailures(t *testing.T) {
	opts, _ := parseArgs([]string{"assess"}, &bytes.Buffer{})
	if code := execute(context.Background(), &fakePipeline{}, opts, &bytes.Buffer{}); code != 1 {
		t.Errorf("assess without id: exit code = %d", code)
	}

	opts, _ = parseArgs([]string{"report"}, &bytes.Buffer{})
	var out bytes.Buffer
	if code := execute(context.Background(), &fakePipeline{err: errors.New("database locked")}, opts, &out); code != 1 {
		t.Errorf("failing command: exit code = %d", code)
	}
	if out.Len() != 0 {
		t.Errorf("failed command wrote %q", out.String())
	}
}

func TestRunUsageErrors(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"frobnicate"}, &bytes.Buffer{}, &stderr); code != 1 {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage: afritable") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
