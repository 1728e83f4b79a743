// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true, "disabled": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
	validQuotaStore = map[string]bool{"badger": true, "memory": true}
)

// placeholderPatterns catch sample keys copied from documentation.
var placeholderPatterns = []string{
	"your_api_key",
	"your-api-key",
	"changeme",
	"replace_me",
	"xxxxxxxx",
	"<api_key>",
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateLogging,
		c.validateServer,
		c.validateQuota,
		c.validateSources,
		c.validateScraper,
		c.validateEnhancement,
		c.validateCollection,
		c.validateSchedule,
		c.validateTasks,
		c.validateEvents,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQS must be >= 0")
	}
	return nil
}

func (c *Config) validateQuota() error {
	if !validQuotaStore[c.Quota.Store] {
		return fmt.Errorf("QUOTA_STORE must be badger or memory, got %q", c.Quota.Store)
	}
	if c.Quota.Store == "badger" && c.Quota.Path == "" {
		return fmt.Errorf("BADGER_PATH is required when QUOTA_STORE=badger")
	}
	return nil
}

func (c *Config) validateSources() error {
	providers := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"GOOGLE", c.Sources.Google},
		{"YELP", c.Sources.Yelp},
		{"FOURSQUARE", c.Sources.Foursquare},
	}
	for _, p := range providers {
		if err := validateProvider(p.name, p.cfg); err != nil {
			return err
		}
	}
	if c.Sources.DetailsCacheSize < 0 || c.Sources.DetailsCacheTTL < 0 {
		return fmt.Errorf("DETAILS_CACHE_SIZE and DETAILS_CACHE_TTL must be >= 0")
	}
	return nil
}

func validateProvider(name string, p ProviderConfig) error {
	if p.DailyQuota < 0 {
		return fmt.Errorf("%s_DAILY_QUOTA must be >= 0, got %d", name, p.DailyQuota)
	}
	if err := validateHTTPURL(p.BaseURL, name+"_BASE_URL"); err != nil {
		return err
	}
	if p.RequestsPerSecond < 0 {
		return fmt.Errorf("%s requests_per_second must be >= 0", name)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("%s max_retries must be >= 0", name)
	}
	if containsPlaceholder(p.APIKey) {
		return fmt.Errorf("%s API key looks like a placeholder; set a real key or leave it empty", name)
	}
	return nil
}

func (c *Config) validateScraper() error {
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT must be positive")
	}
	if c.Scraper.MapsEnabled {
		if err := validateHTTPURL(c.Scraper.MapsURL, "scraper.maps_url"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateEnhancement() error {
	if c.Enhancement.BatchSize < 1 {
		return fmt.Errorf("ENHANCEMENT_BATCH_SIZE must be >= 1, got %d", c.Enhancement.BatchSize)
	}
	if c.Photos.MaxPhotos < 1 {
		return fmt.Errorf("MAX_PHOTOS must be >= 1, got %d", c.Photos.MaxPhotos)
	}
	if c.Monitoring.AttentionThreshold < 0 || c.Monitoring.AttentionThreshold > 1 {
		return fmt.Errorf("ATTENTION_THRESHOLD must be within [0,1]")
	}
	if c.Monitoring.StaleAfter <= 0 {
		return fmt.Errorf("STALE_AFTER must be positive")
	}
	return nil
}

func (c *Config) validateCollection() error {
	delays := map[string]time.Duration{
		"PACING_TERM_DELAY":   c.Collection.TermDelay,
		"PACING_REGION_DELAY": c.Collection.RegionDelay,
		"PACING_METRO_DELAY":  c.Collection.MetroDelay,
	}
	for name, d := range delays {
		if d < 0 {
			return fmt.Errorf("%s must be >= 0, got %s", name, d)
		}
	}
	if c.Collection.QuickSweepTerms < 1 {
		return fmt.Errorf("QUICK_SWEEP_TERMS must be >= 1")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if !c.Schedule.Enabled {
		return nil
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE is invalid: %w", err)
	}
	exprs := map[string]string{
		"SCHEDULE_COLLECTION_SWEEP": c.Schedule.CollectionSweep,
		"SCHEDULE_DAILY_QUALITY":    c.Schedule.DailyQuality,
		"SCHEDULE_STALENESS_SWEEP":  c.Schedule.StalenessSweep,
		"SCHEDULE_METRO_COLLECTION": c.Schedule.MetroCollection,
	}
	for name, expr := range exprs {
		if len(strings.Fields(expr)) != 5 {
			return fmt.Errorf("%s must be a 5-field cron expression, got %q", name, expr)
		}
	}
	return nil
}

func (c *Config) validateTasks() error {
	if c.Tasks.EnhancementWorkers < 1 {
		return fmt.Errorf("TASK_WORKERS must be >= 1")
	}
	if c.Tasks.QueueSize < 1 {
		return fmt.Errorf("TASK_QUEUE must be >= 1")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.NATSURL == "" {
		return nil
	}
	u, err := url.Parse(c.Events.NATSURL)
	if err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("NATS_URL scheme must be nats, tls, ws, or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("NATS_URL host is required")
	}
	return nil
}

func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}

func containsPlaceholder(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range placeholderPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
