// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/afritable/config.yaml",
	"/etc/afritable/config.yml",
}

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

const (
	defaultGoogleBaseURL     = "https://maps.googleapis.com/maps/api/place"
	defaultYelpBaseURL       = "https://api.yelp.com/v3"
	defaultFoursquareBaseURL = "https://api.foursquare.com/v3"
)

func defaultProvider(baseURL string, quota int, rps float64) ProviderConfig {
	return ProviderConfig{
		BaseURL:           baseURL,
		DailyQuota:        quota,
		Timeout:           30 * time.Second,
		RequestsPerSecond: rps,
		Burst:             1,
		MaxRetries:        3,
		RetryBaseDelay:    time.Second,
	}
}

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/afritable.duckdb",
			MaxMemory: "1GB",
		},
		Quota: QuotaConfig{
			Store: "badger",
			Path:  "/data/quota",
		},
		Sources: SourcesConfig{
			Google:     defaultProvider(defaultGoogleBaseURL, 1000, 10),
			Yelp:       defaultProvider(defaultYelpBaseURL, 5000, 5),
			Foursquare: defaultProvider(defaultFoursquareBaseURL, 1000, 10),

			DetailsCacheSize: 2000,
			DetailsCacheTTL:  6 * time.Hour,
		},
		Scraper: ScraperConfig{
			Timeout:      10 * time.Second,
			MaxBodyBytes: 5 << 20,
			MapsURL:      "https://www.google.com/maps",
			MapsTimeout:  45 * time.Second,
		},
		Photos: PhotosConfig{
			MaxPhotos: 25,
		},
		Enhancement: EnhancementConfig{
			BatchSize:        10,
			SkipRecentWithin: 7 * 24 * time.Hour,
			Photos:           true,
			Scraping:         true,
			Validation:       true,
		},
		Monitoring: MonitoringConfig{
			StaleAfter:         30 * 24 * time.Hour,
			AttentionThreshold: 0.7,
		},
		Collection: CollectionConfig{
			TermDelay:       1 * time.Second,
			RegionDelay:     2 * time.Second,
			MetroDelay:      5 * time.Second,
			QuickSweepTerms: 3,
		},
		Schedule: ScheduleConfig{
			Enabled:         true,
			Timezone:        "UTC",
			CollectionSweep: "0 */6 * * *",
			DailyQuality:    "0 2 * * *",
			StalenessSweep:  "0 3 * * 0",
			MetroCollection: "0 4 * * 0",
		},
		Tasks: TasksConfig{
			EnhancementWorkers: 4,
			QueueSize:          256,
			TaskTimeout:        2 * time.Hour,
			Retention:          24 * time.Hour,
		},
		Events: EventsConfig{
			SubjectPrefix: "afritable",
		},
	}
}

// LoadWithKoanf loads configuration with koanf. An explicit path takes
// precedence over CONFIG_PATH and the default search paths.
func LoadWithKoanf(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"cors_origins":      "server.cors_origins",
	"rate_limit_reqs":   "server.rate_limit_reqs",
	"rate_limit_window": "server.rate_limit_window",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"quota_store": "quota.store",
	"badger_path": "quota.path",

	"google_places_api_key":  "sources.google.api_key",
	"google_places_base_url": "sources.google.base_url",
	"google_daily_quota":     "sources.google.daily_quota",
	"yelp_api_key":           "sources.yelp.api_key",
	"yelp_base_url":          "sources.yelp.base_url",
	"yelp_daily_quota":       "sources.yelp.daily_quota",
	"foursquare_api_key":     "sources.foursquare.api_key",
	"foursquare_base_url":    "sources.foursquare.base_url",
	"foursquare_daily_quota": "sources.foursquare.daily_quota",
	"details_cache_size":     "sources.details_cache_size",
	"details_cache_ttl":      "sources.details_cache_ttl",

	"scraper_timeout":      "scraper.timeout",
	"scraper_maps_enabled": "scraper.maps_enabled",
	"chrome_path":          "scraper.chrome_path",

	"max_photos": "photos.max_photos",

	"enhancement_batch_size":  "enhancement.batch_size",
	"enhancement_skip_recent": "enhancement.skip_recent_within",
	"enhancement_photos":      "enhancement.photos",
	"enhancement_scraping":    "enhancement.scraping",
	"enhancement_validation":  "enhancement.validation",

	"stale_after":         "monitoring.stale_after",
	"attention_threshold": "monitoring.attention_threshold",

	"pacing_term_delay":   "collection.term_delay",
	"pacing_region_delay": "collection.region_delay",
	"pacing_metro_delay":  "collection.metro_delay",
	"quick_sweep_terms":   "collection.quick_sweep_terms",

	"schedule_enabled":          "schedule.enabled",
	"schedule_timezone":         "schedule.timezone",
	"schedule_collection_sweep": "schedule.collection_sweep",
	"schedule_daily_quality":    "schedule.daily_quality",
	"schedule_staleness_sweep":  "schedule.staleness_sweep",
	"schedule_metro_collection": "schedule.metro_collection",

	"task_workers":   "tasks.enhancement_workers",
	"task_queue":     "tasks.queue_size",
	"task_timeout":   "tasks.task_timeout",
	"task_retention": "tasks.retention",

	"nats_url":            "events.nats_url",
	"nats_subject_prefix": "events.subject_prefix",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
