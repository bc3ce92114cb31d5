package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"product_advisor/internal/config"
	"product_advisor/internal/core"
	"product_advisor/internal/llm"
	"product_advisor/internal/logger"
	"product_advisor/internal/metrics"
	"product_advisor/internal/nodes"
	"product_advisor/internal/services"
	"product_advisor/internal/storage"
	"product_advisor/pkg"

	"github.com/prometheus/client_golang/prometheus"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// application holds the wired components shared by the commands
type application struct {
	config   *config.Config
	catalog  *storage.SQLiteCatalog
	sessions core.SessionStore
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	advisor  *core.Orchestrator
	tools    *nodes.Toolbox
	closers  []func() error
}

// newApplication loads configuration and wires storage, extraction and the orchestrator.
// With autoSeed an empty catalog is filled before use.
func newApplication(ctx context.Context, configPath string, autoSeed bool) (*application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.InitLogger(cfg.Log); err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}

	app := &application{config: cfg, registry: prometheus.NewRegistry()}
	app.metrics = metrics.NewMetrics(app.registry)

	catalog, err := storage.OpenCatalog(cfg.Catalog.DBPath)
	if err != nil {
		return nil, err
	}
	app.catalog = catalog
	app.closers = append(app.closers, catalog.Close)

	if autoSeed {
		if err := app.seedCatalog(ctx, cfg.Catalog.SeedFile); err != nil {
			app.Close()
			return nil, err
		}
	}

	if cfg.Redis.URL != "" {
		redisStore, err := storage.NewRedisSessionStore(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.sessions = redisStore
		app.closers = append(app.closers, redisStore.Close)
		logger.Info().Msg("Using Redis session store")
	} else {
		app.sessions = storage.NewMemorySessionStore(cfg.Redis.TTL)
		logger.Info().Msg("Using in-memory session store")
	}

	matcher := services.NewProductMatcher()
	extractor := app.newExtractor(ctx)
	app.advisor = core.NewOrchestrator(extractor, app.sessions, app.catalog, matcher, app.metrics)

	app.tools, err = nodes.NewToolbox(ctx, app.catalog, matcher)
	if err != nil {
		app.Close()
		return nil, err
	}

	logger.Info().
		Str("backend", extractor.GetName()).
		Str("catalog", cfg.Catalog.DBPath).
		Msg("Product advisor ready")

	return app, nil
}

// newExtractor picks the generative backend when a credential exists, else the pattern backend
func (a *application) newExtractor(ctx context.Context) nodes.Extractor {
	category := a.config.Catalog.DefaultCategory

	if !a.config.LLM.HasCredential() {
		logger.Info().Msg("No valid API credential found, using pattern extraction")
		return nodes.NewPatternExtractor(category)
	}

	chatModel, err := llm.NewChatModel(ctx, a.config.LLM)
	if err != nil {
		logger.Warn().Err(err).Msg("Chat model unavailable, using pattern extraction")
		return nodes.NewPatternExtractor(category)
	}

	generator, err := nodes.NewChatGenerator(ctx, chatModel, a.config.LLM.Timeout)
	if err != nil {
		logger.Warn().Err(err).Msg("Chat chain unavailable, using pattern extraction")
		return nodes.NewPatternExtractor(category)
	}

	return nodes.NewGenerativeExtractor(generator, category, a.metrics)
}

// seedCatalog fills an empty catalog from seedFile or the built-in sample data
func (a *application) seedCatalog(ctx context.Context, seedFile string) error {
	var (
		products []pkg.ProductRecord
		err      error
	)
	if seedFile != "" {
		products, err = storage.LoadProducts(seedFile)
	} else {
		products, err = storage.SeedProducts()
	}
	if err != nil {
		return err
	}

	_, err = storage.Seed(ctx, a.catalog, products)
	return err
}

// Close releases storage connections in reverse order
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func main() {
	if err := newCLIApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
