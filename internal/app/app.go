package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/services/crawler"
	"github.com/ternarybob/peulot/internal/services/enrichment"
	"github.com/ternarybob/peulot/internal/services/generator"
	"github.com/ternarybob/peulot/internal/services/llm"
	"github.com/ternarybob/peulot/internal/services/processing"
	"github.com/ternarybob/peulot/internal/services/search"
	"github.com/ternarybob/peulot/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config  *common.Config
	Logger  arbor.ILogger
	Storage interfaces.ActivityStorage

	// Pipeline
	Fetcher    *crawler.Fetcher
	Scraper    *crawler.Scraper
	LLM        *llm.ProviderFactory
	Enricher   *enrichment.Enricher
	Metrics    *processing.Metrics
	Processing *processing.Service
	Scheduler  *processing.Scheduler

	// Retrieval and generation
	Search    *search.KeywordSearchService
	Generator *generator.PlanGenerator
}

// New initializes the application with all dependencies
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initServices()

	logger.Debug().
		Str("storage", cfg.Storage.Type).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("llm_credentials", app.LLM.HasCredentials()).
		Msg("Application initialized")

	return app, nil
}

// initDatabase opens the configured activity store
func (a *App) initDatabase(ctx context.Context) error {
	store, err := storage.NewActivityStorage(ctx, a.Config, a.Logger)
	if err != nil {
		return err
	}
	a.Storage = store
	return nil
}

// initServices wires services in dependency order
func (a *App) initServices() {
	a.Fetcher = crawler.NewFetcher(nil, &a.Config.Crawler, a.Logger)
	a.Scraper = crawler.NewScraper(a.Fetcher, crawler.NewScraperOptions(a.Config), a.Logger)

	a.LLM = llm.NewProviderFactory(a.Config, a.Logger)
	a.Enricher = enrichment.NewEnricher(a.LLM, "", a.Logger)

	a.Metrics = processing.NewMetrics(&a.Config.Metrics)
	a.Processing = processing.NewService(a.Scraper, a.Enricher, a.Storage, a.Metrics, &a.Config.Processing, a.Logger)
	a.Scheduler = processing.NewScheduler(a.Processing, a.Logger)

	a.Search = search.NewKeywordSearchService(a.Storage, a.Logger)
	a.Generator = generator.NewPlanGenerator(a.LLM, a.Search, &a.Config.Generator, a.Logger)
}

// Close releases the store and provider clients
func (a *App) Close() error {
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}

	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	return nil
}
