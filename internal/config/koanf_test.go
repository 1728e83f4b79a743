// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Sources.Google.DailyQuota != 1000 {
		t.Errorf("Google.DailyQuota = %d, want 1000", cfg.Sources.Google.DailyQuota)
	}
	if cfg.Sources.Yelp.DailyQuota != 5000 {
		t.Errorf("Yelp.DailyQuota = %d, want 5000", cfg.Sources.Yelp.DailyQuota)
	}
	if cfg.Sources.Foursquare.DailyQuota != 1000 {
		t.Errorf("Foursquare.DailyQuota = %d, want 1000", cfg.Sources.Foursquare.DailyQuota)
	}
	if cfg.Sources.AnyConfigured() {
		t.Error("no provider should be configured by default")
	}
	if cfg.Scraper.Timeout != 10*time.Second {
		t.Errorf("Scraper.Timeout = %v, want 10s", cfg.Scraper.Timeout)
	}
	if cfg.Enhancement.BatchSize != 10 {
		t.Errorf("Enhancement.BatchSize = %d, want 10", cfg.Enhancement.BatchSize)
	}
	if cfg.Monitoring.StaleAfter != 30*24*time.Hour {
		t.Errorf("Monitoring.StaleAfter = %v, want 720h", cfg.Monitoring.StaleAfter)
	}
	if cfg.Collection.TermDelay != time.Second || cfg.Collection.RegionDelay != 2*time.Second || cfg.Collection.MetroDelay != 5*time.Second {
		t.Errorf("Collection delays = %v/%v/%v, want 1s/2s/5s",
			cfg.Collection.TermDelay, cfg.Collection.RegionDelay, cfg.Collection.MetroDelay)
	}
	if cfg.Schedule.CollectionSweep != "0 */6 * * *" {
		t.Errorf("Schedule.CollectionSweep = %q", cfg.Schedule.CollectionSweep)
	}
	if cfg.Schedule.StalenessSweep != "0 3 * * 0" {
		t.Errorf("Schedule.StalenessSweep = %q", cfg.Schedule.StalenessSweep)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"GOOGLE_PLACES_API_KEY", "sources.google.api_key"},
		{"YELP_DAILY_QUOTA", "sources.yelp.daily_quota"},
		{"FOURSQUARE_API_KEY", "sources.foursquare.api_key"},
		{"LOG_LEVEL", "logging.level"},
		{"PACING_METRO_DELAY", "collection.metro_delay"},
		{"SCHEDULE_DAILY_QUALITY", "schedule.daily_quality"},
		{"NATS_URL", "events.nats_url"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("GOOGLE_PLACES_API_KEY", "AIzaTestKey123")
	t.Setenv("YELP_DAILY_QUOTA", "250")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PACING_TERM_DELAY", "1500ms")
	t.Setenv("CORS_ORIGINS", "https://afritable.com, https://admin.afritable.com")
	t.Setenv("DETAILS_CACHE_TTL", "90m")

	cfg, err := LoadWithKoanf("")
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Sources.Google.APIKey != "AIzaTestKey123" {
		t.Errorf("Google.APIKey = %q", cfg.Sources.Google.APIKey)
	}
	if !cfg.Sources.Google.Configured() {
		t.Error("Google should be configured")
	}
	if cfg.Sources.Yelp.DailyQuota != 250 {
		t.Errorf("Yelp.DailyQuota = %d, want 250", cfg.Sources.Yelp.DailyQuota)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Collection.TermDelay != 1500*time.Millisecond {
		t.Errorf("Collection.TermDelay = %v, want 1.5s", cfg.Collection.TermDelay)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://admin.afritable.com" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Sources.DetailsCacheTTL != 90*time.Minute || cfg.Sources.DetailsCacheSize != 2000 {
		t.Errorf("details cache = %d / %v", cfg.Sources.DetailsCacheSize, cfg.Sources.DetailsCacheTTL)
	}

	// Unset values keep their defaults.
	if cfg.Sources.Foursquare.DailyQuota != 1000 {
		t.Errorf("Foursquare.DailyQuota = %d, want 1000 (default)", cfg.Sources.Foursquare.DailyQuota)
	}
	if cfg.Sources.Google.BaseURL != defaultGoogleBaseURL {
		t.Errorf("Google.BaseURL = %q, want default", cfg.Sources.Google.BaseURL)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
sources:
  yelp:
    api_key: "yelp-file-key"
    daily_quota: 100
enhancement:
  batch_size: 4
schedule:
  timezone: "America/New_York"
logging:
  level: "warn"
`)
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf("")
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Sources.Yelp.APIKey != "yelp-file-key" {
		t.Errorf("Yelp.APIKey = %q", cfg.Sources.Yelp.APIKey)
	}
	if cfg.Sources.Yelp.DailyQuota != 100 {
		t.Errorf("Yelp.DailyQuota = %d, want 100", cfg.Sources.Yelp.DailyQuota)
	}
	if cfg.Enhancement.BatchSize != 4 {
		t.Errorf("Enhancement.BatchSize = %d, want 4", cfg.Enhancement.BatchSize)
	}
	if cfg.Schedule.Timezone != "America/New_York" {
		t.Errorf("Schedule.Timezone = %q", cfg.Schedule.Timezone)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Enhancement.SkipRecentWithin != 7*24*time.Hour {
		t.Errorf("Enhancement.SkipRecentWithin = %v, want default", cfg.Enhancement.SkipRecentWithin)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
sources:
  google:
    daily_quota: 10
`)
	t.Setenv("GOOGLE_DAILY_QUOTA", "20")

	cfg, err := LoadWithKoanf(path)
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Sources.Google.DailyQuota != 20 {
		t.Errorf("Google.DailyQuota = %d, want 20 (env wins)", cfg.Sources.Google.DailyQuota)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad port", map[string]string{"HTTP_PORT": "70000"}, "HTTP_PORT"},
		{"negative quota", map[string]string{"YELP_DAILY_QUOTA": "-1"}, "YELP_DAILY_QUOTA"},
		{"placeholder key", map[string]string{"GOOGLE_PLACES_API_KEY": "your_api_key_here"}, "placeholder"},
		{"negative pacing", map[string]string{"PACING_REGION_DELAY": "-2s"}, "PACING_REGION_DELAY"},
		{"bad cron", map[string]string{"SCHEDULE_DAILY_QUALITY": "0 2 * *"}, "SCHEDULE_DAILY_QUALITY"},
		{"bad nats", map[string]string{"NATS_URL": "http://localhost:4222"}, "NATS_URL"},
		{"bad base url", map[string]string{"YELP_BASE_URL": "ftp://api.yelp.com"}, "YELP_BASE_URL"},
		{"zero batch", map[string]string{"ENHANCEMENT_BATCH_SIZE": "0"}, "ENHANCEMENT_BATCH_SIZE"},
		{"negative cache size", map[string]string{"DETAILS_CACHE_SIZE": "-5"}, "DETAILS_CACHE_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigPathEnvVar, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadWithKoanf("")
			if err == nil {
				t.Fatalf("LoadWithKoanf() expected error containing %q, got nil", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want it to contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	path := writeConfigFile(t, "logging:\n  level: info\n")
	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}
}
