// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package config

import "time"

// Config is the complete runtime configuration. It is built once at process
// start by Load and passed down to every service constructor.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Quota       QuotaConfig       `koanf:"quota"`
	Sources     SourcesConfig     `koanf:"sources"`
	Scraper     ScraperConfig     `koanf:"scraper"`
	Photos      PhotosConfig      `koanf:"photos"`
	Enhancement EnhancementConfig `koanf:"enhancement"`
	Monitoring  MonitoringConfig  `koanf:"monitoring"`
	Collection  CollectionConfig  `koanf:"collection"`
	Schedule    ScheduleConfig    `koanf:"schedule"`
	Tasks       TasksConfig       `koanf:"tasks"`
	Events      EventsConfig      `koanf:"events"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig holds the admin HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// QuotaConfig selects where daily API usage counters are kept.
type QuotaConfig struct {
	// Store is "badger" (persistent) or "memory".
	Store string `koanf:"store"`
	Path  string `koanf:"path"`
}

// ProviderConfig configures one place-search API.
type ProviderConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	DailyQuota        int           `koanf:"daily_quota"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	MaxRetries        int           `koanf:"max_retries"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay"`
}

// Configured reports whether an API key is present.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

type SourcesConfig struct {
	Google     ProviderConfig `koanf:"google"`
	Yelp       ProviderConfig `koanf:"yelp"`
	Foursquare ProviderConfig `koanf:"foursquare"`

	// Details lookups are cached per provider and id. A zero TTL disables it.
	DetailsCacheSize int           `koanf:"details_cache_size"`
	DetailsCacheTTL  time.Duration `koanf:"details_cache_ttl"`
}

// AnyConfigured reports whether at least one provider has a key.
func (s SourcesConfig) AnyConfigured() bool {
	return s.Google.Configured() || s.Yelp.Configured() || s.Foursquare.Configured()
}

type ScraperConfig struct {
	Timeout      time.Duration `koanf:"timeout"`
	MaxBodyBytes int64         `koanf:"max_body_bytes"`

	// Maps scraping drives a headless Chrome and is off unless enabled.
	MapsEnabled bool          `koanf:"maps_enabled"`
	MapsURL     string        `koanf:"maps_url"`
	MapsTimeout time.Duration `koanf:"maps_timeout"`
	ChromePath  string        `koanf:"chrome_path"`
}

type PhotosConfig struct {
	MaxPhotos int `koanf:"max_photos"`
}

type EnhancementConfig struct {
	BatchSize        int           `koanf:"batch_size"`
	SkipRecentWithin time.Duration `koanf:"skip_recent_within"`
	Photos           bool          `koanf:"photos"`
	Scraping         bool          `koanf:"scraping"`
	Validation       bool          `koanf:"validation"`
}

type MonitoringConfig struct {
	StaleAfter         time.Duration `koanf:"stale_after"`
	AttentionThreshold float64       `koanf:"attention_threshold"`
}

// CollectionConfig holds the batch collection pacing. The delays are external
// rate-limit requirements and must not be disabled in production.
type CollectionConfig struct {
	TermDelay       time.Duration `koanf:"term_delay"`
	RegionDelay     time.Duration `koanf:"region_delay"`
	MetroDelay      time.Duration `koanf:"metro_delay"`
	QuickSweepTerms int           `koanf:"quick_sweep_terms"`
}

// ScheduleConfig holds the cron expressions of the recurring jobs.
type ScheduleConfig struct {
	Enabled         bool   `koanf:"enabled"`
	Timezone        string `koanf:"timezone"`
	CollectionSweep string `koanf:"collection_sweep"`
	DailyQuality    string `koanf:"daily_quality"`
	StalenessSweep  string `koanf:"staleness_sweep"`
	MetroCollection string `koanf:"metro_collection"`
}

type TasksConfig struct {
	EnhancementWorkers int           `koanf:"enhancement_workers"`
	QueueSize          int           `koanf:"queue_size"`
	TaskTimeout        time.Duration `koanf:"task_timeout"`
	Retention          time.Duration `koanf:"retention"`
}

// EventsConfig controls forwarding of pipeline events. With an empty NATSURL
// events stay in process.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in that order of precedence.
func Load() (*Config, error) {
	return LoadWithKoanf("")
}
