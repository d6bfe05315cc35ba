package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"stackfast/config"
	"stackfast/internal/analysis"
	"stackfast/internal/auth"
	"stackfast/internal/blueprint"
	"stackfast/internal/catalog"
	"stackfast/internal/llm"
	"stackfast/internal/models"
	"stackfast/internal/recommend"
	"stackfast/internal/server"
	"stackfast/internal/telemetry"
)

// application holds the collaborators built for the serve command.
type application struct {
	catalog *catalog.Store
	server  *server.Server
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	if err := cfg.RequireAuthSecret(); err != nil {
		return nil, err
	}
	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return nil, err
	}

	var metrics *telemetry.PrometheusMetrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewPrometheusMetrics(prometheus.NewRegistry())
	}

	var observer llm.LatencyObserver
	if metrics != nil {
		observer = metrics
	}
	client, err := llm.New(ctx, cfg.LLM, observer)
	if err != nil {
		return nil, fmt.Errorf("error initializing llm client: %w", err)
	}

	db, err := catalog.OpenDB(cfg.Catalog.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := catalog.NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	app := &application{catalog: store}

	count, err := store.Count()
	if err != nil {
		app.Close()
		return nil, err
	}
	if count == 0 {
		logrus.Warnf("Tool catalog at %s is empty; run `stackfast seed` to load it", cfg.Catalog.DBPath)
	}

	pipeline, err := buildPipeline(cfg.Recommend, store, analysis.NewLLMAnalyzer(client), metrics)
	if err != nil {
		app.Close()
		return nil, err
	}

	deps := server.Deps{
		Recommender: pipeline,
		Auth:        verifier,
		Catalog:     store,
	}
	if cfg.Blueprints.Enabled {
		blueprints, err := blueprint.NewStore(db)
		if err != nil {
			app.Close()
			return nil, err
		}
		deps.Blueprints = blueprints
	}
	if metrics != nil {
		deps.Metrics = metrics
		deps.MetricsHandler = metrics.Handler()
	}

	app.server, err = server.New(cfg.Server, cfg.Metrics.Path, deps)
	if err != nil {
		app.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"llm_provider": cfg.LLM.Provider,
		"llm_model":    cfg.LLM.Model,
		"catalog":      count,
		"blueprints":   cfg.Blueprints.Enabled,
		"metrics":      cfg.Metrics.Enabled,
	}).Info("Application initialized")
	return app, nil
}

// buildPipeline parses the configured categories and wires the pipeline.
func buildPipeline(cfg config.RecommendConfig, catalogLoader recommend.CatalogLoader, analyzer analysis.Analyzer, metrics *telemetry.PrometheusMetrics) (*recommend.Pipeline, error) {
	essential, err := models.ParseCategories(cfg.EssentialCategories)
	if err != nil {
		return nil, fmt.Errorf("recommend.essential_categories: %w", err)
	}
	extra, err := models.ParseCategories(cfg.ExtraCategories)
	if err != nil {
		return nil, fmt.Errorf("recommend.extra_categories: %w", err)
	}

	opts := recommend.Options{
		EssentialCategories: essential,
		ExtraCategories:     extra,
		Weights:             recommend.WeightsFromConfig(cfg.Weights),
	}
	if metrics != nil {
		opts.Metrics = metrics
	}
	return recommend.NewPipeline(catalogLoader, analyzer, opts)
}

// Close releases the database.
func (a *application) Close() {
	if err := a.catalog.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close catalog store")
	}
}
