// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package app assembles the pipeline from configuration. The server and the
// batch CLI share one App so both run exactly the same services.
package app

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/api"
	"github.com/tomtom215/afritable/internal/collection"
	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/database"
	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/events"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/monitoring"
	"github.com/tomtom215/afritable/internal/photos"
	"github.com/tomtom215/afritable/internal/quota"
	"github.com/tomtom215/afritable/internal/scheduler"
	"github.com/tomtom215/afritable/internal/scraper"
	"github.com/tomtom215/afritable/internal/sources"
	"github.com/tomtom215/afritable/internal/supervisor"
	"github.com/tomtom215/afritable/internal/supervisor/services"
	"github.com/tomtom215/afritable/internal/tasks"
	ws "github.com/tomtom215/afritable/internal/websocket"
)

// Queue names.
const (
	QueueEnhancement = "enhancement"
	QueueJobs        = "jobs"
)

// App owns every long-lived component.
type App struct {
	Config *config.Config

	DB          *database.DB
	QuotaStore  quota.Store
	Quota       *quota.Tracker
	Bus         *events.Bus
	Registry    *sources.Registry
	Enhancement *enhancement.Service
	Monitoring  *monitoring.Service
	Collector   *collection.Collector

	EnhancementQueue *tasks.Queue
	JobsQueue        *tasks.Queue
	Scheduler        *scheduler.Scheduler
	Hub              *ws.Hub

	logger zerolog.Logger
}

// New opens the stores and builds every service. On error anything already
// opened is closed again.
func New(cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg, logger: logging.WithComponent("app")}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.DB, err = database.New(cfg.Database); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if a.QuotaStore, err = openQuotaStore(cfg.Quota); err != nil {
		return nil, err
	}
	a.Quota = quota.NewTracker(a.QuotaStore, map[string]int{
		"google":     cfg.Sources.Google.DailyQuota,
		"yelp":       cfg.Sources.Yelp.DailyQuota,
		"foursquare": cfg.Sources.Foursquare.DailyQuota,
	})
	if a.Bus, err = events.NewBus(cfg.Events); err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}

	a.Registry = sources.NewRegistry(cfg.Sources, a.Quota)
	if cfg.Sources.DetailsCacheTTL > 0 {
		a.Registry.WithDetailsCache(sources.NewDetailsCache(cfg.Sources.DetailsCacheSize, cfg.Sources.DetailsCacheTTL))
	}
	adapters := a.Registry.Adapters()
	if !cfg.Sources.AnyConfigured() {
		a.logger.Warn().Msg("No provider API keys configured, searches and verification will be skipped")
	}

	website := scraper.NewWebsiteScraper(cfg.Scraper)
	a.Enhancement = enhancement.NewService(cfg.Enhancement, enhancement.Deps{
		Store:     a.DB,
		Adapters:  adapters,
		Scraper:   website,
		Maps:      scraper.NewMapsScraper(cfg.Scraper),
		Extras:    a.Registry,
		Photos:    photos.NewCollector(adapters, website, nil, cfg.Photos.MaxPhotos),
		Publisher: a.Bus,
	})
	a.Monitoring = monitoring.NewService(cfg.Monitoring, a.DB, enhancement.NewSourceDiscrepancyDetector(adapters))
	a.Collector = collection.NewCollector(cfg.Collection, a.DB, adapters)

	a.EnhancementQueue = tasks.NewQueue(QueueEnhancement, tasks.Options{
		Workers:   cfg.Tasks.EnhancementWorkers,
		Size:      cfg.Tasks.QueueSize,
		Timeout:   cfg.Tasks.TaskTimeout,
		Retention: cfg.Tasks.Retention,
	}, a.Bus)
	// Scheduled jobs and manual collections share one worker so they never overlap.
	a.JobsQueue = tasks.NewQueue(QueueJobs, tasks.Options{
		Workers:   1,
		Size:      cfg.Tasks.QueueSize,
		Timeout:   cfg.Tasks.TaskTimeout,
		Retention: cfg.Tasks.Retention,
	}, a.Bus)

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	a.Scheduler = scheduler.New(loc, a.JobsQueue)
	a.Hub = ws.NewHub(a.Bus)
	return a, nil
}

func openQuotaStore(cfg config.QuotaConfig) (quota.Store, error) {
	switch cfg.Store {
	case "", "memory":
		return quota.NewMemoryStore(), nil
	case "badger":
		s, err := quota.OpenBadgerStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open quota store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown quota store %q", cfg.Store)
	}
}

// Handler builds the admin API router.
func (a *App) Handler() http.Handler {
	h := api.NewHandler(api.Deps{
		Enhancer:       a.Enhancement,
		Collector:      a,
		Monitor:        a.Monitoring,
		Store:          a.DB,
		Usage:          a.Quota,
		Enhancement:    a.EnhancementQueue,
		Jobs:           a.JobsQueue,
		Hub:            a.Hub,
		DefaultOptions: enhancement.OptionsFromConfig(a.Config.Enhancement),
		AllowedOrigins: a.Config.Server.CORSOrigins,
	})
	return api.NewRouter(h, api.MiddlewareConfigFrom(a.Config.Server))
}

// Addr is the admin API listen address.
func (a *App) Addr() string {
	return net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port))
}

// HTTPServer builds the admin API server. The write timeout is left open so
// websocket connections are not cut.
func (a *App) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              a.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.Config.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}
}

// SupervisorTree registers the scheduled jobs and builds the tree that runs
// every background service of the server.
func (a *App) SupervisorTree() (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataServices(a.EnhancementQueue.Workers())
	tree.AddDataServices(a.JobsQueue.Workers())
	tree.AddDataService(services.NewEventLogService(a.Bus))
	tree.AddDataService(services.NewCheckpointService(a.DB, 15*time.Minute))
	if a.Config.Schedule.Enabled {
		if err := a.RegisterJobs(); err != nil {
			return nil, err
		}
		tree.AddDataService(services.NewSchedulerService(a.Scheduler))
	} else {
		a.logger.Info().Msg("Scheduler disabled")
	}

	tree.AddAPIService(a.Hub)
	tree.AddAPIService(services.NewHTTPServerService(a.HTTPServer(), a.Addr(), tree.ShutdownTimeout()))
	return tree, nil
}

// Close releases everything New opened. It is safe on a partly built App.
func (a *App) Close() error {
	var errs []error
	if a.EnhancementQueue != nil {
		a.EnhancementQueue.Close()
	}
	if a.JobsQueue != nil {
		a.JobsQueue.Close()
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.QuotaStore != nil {
		if err := a.QuotaStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close quota store: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
