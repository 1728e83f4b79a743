// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package metrics holds the Prometheus instrumentation for the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Source adapter metrics
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_source_requests_total",
			Help: "Total number of place-search API requests by provider, endpoint and outcome",
		},
		[]string{"provider", "endpoint", "status"}, // status: success, error, not_configured, quota_exceeded
	)

	SourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "afritable_source_request_duration_seconds",
			Help:    "Latency of place-search API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "endpoint"},
	)

	SourceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_source_cache_lookups_total",
			Help: "Place details cache lookups by provider and result",
		},
		[]string{"provider", "result"}, // result: hit, miss
	)

	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_quota_rejections_total",
			Help: "Calls refused because the provider's daily quota was reached",
		},
		[]string{"provider"},
	)

	QuotaUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afritable_quota_usage",
			Help: "Requests recorded against today's quota",
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afritable_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Scraper metrics
	ScrapeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_scrape_total",
			Help: "Website and Maps scrape attempts by outcome",
		},
		[]string{"kind", "status"}, // kind: website, maps
	)

	// Enhancement metrics
	EnhancementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_enhancements_total",
			Help: "Completed restaurant enhancement runs by verification status",
		},
		[]string{"status"},
	)

	EnhancementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afritable_enhancement_duration_seconds",
			Help:    "Duration of a single restaurant enhancement",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	DiscrepanciesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_discrepancies_total",
			Help: "Cross-source field discrepancies detected",
		},
		[]string{"field"},
	)

	QualityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afritable_quality_score",
			Help:    "Distribution of computed restaurant quality scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	PhotosCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_photos_collected_total",
			Help: "Photos retained after dedupe and prioritization, by source",
		},
		[]string{"source"},
	)

	// Collection metrics
	CollectionRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_collection_records_total",
			Help: "Batch collection records by outcome",
		},
		[]string{"outcome"}, // fetched, duplicate, created, updated, failed
	)

	// Monitoring metrics
	FleetAverageScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "afritable_fleet_average_quality_score",
			Help: "Average overall quality score from the last monitoring report",
		},
	)

	RestaurantsNeedingAttention = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "afritable_restaurants_needing_attention",
			Help: "Restaurants below the attention threshold in the last report",
		},
	)

	// Task and scheduler metrics
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_tasks_total",
			Help: "Background tasks by kind and final status",
		},
		[]string{"kind", "status"},
	)

	TaskQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afritable_task_queue_depth",
			Help: "Tasks waiting in each queue",
		},
		[]string{"queue"},
	)

	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_scheduler_runs_total",
			Help: "Scheduled job firings by job and outcome",
		},
		[]string{"job", "status"}, // status: submitted, failed, panic
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "afritable_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_duckdb_query_errors_total",
			Help: "DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Event metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_events_published_total",
			Help: "Pipeline events published by topic and outcome",
		},
		[]string{"topic", "status"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "afritable_websocket_clients",
			Help: "Connected event stream clients",
		},
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afritable_api_requests_total",
			Help: "Admin API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "afritable_api_request_duration_seconds",
			Help:    "Admin API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "afritable_api_active_requests",
			Help: "In-flight admin API requests",
		},
	)
)

// RecordSourceRequest records one adapter call.
func RecordSourceRequest(provider, endpoint, status string, duration time.Duration) {
	SourceRequests.WithLabelValues(provider, endpoint, status).Inc()
	if duration > 0 {
		SourceRequestDuration.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
	}
}

// RecordQuotaRejection counts a call refused before reaching the network.
func RecordQuotaRejection(provider string) {
	QuotaRejections.WithLabelValues(provider).Inc()
	SourceRequests.WithLabelValues(provider, "any", "quota_exceeded").Inc()
}

// RecordScrape records a scrape attempt.
func RecordScrape(kind string, ok bool) {
	status := "success"
	if !ok {
		status = "empty"
	}
	ScrapeTotal.WithLabelValues(kind, status).Inc()
}

// RecordEnhancement records a finished enhancement run.
func RecordEnhancement(status string, score float64, duration time.Duration) {
	EnhancementsTotal.WithLabelValues(status).Inc()
	QualityScore.Observe(score)
	EnhancementDuration.Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
