// Package app wires configuration, storage, providers and the HTTP
// server into a running service.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mvillard/patrimoine/internal/aggregator"
	"github.com/mvillard/patrimoine/internal/api"
	"github.com/mvillard/patrimoine/internal/config"
	"github.com/mvillard/patrimoine/internal/history"
	"github.com/mvillard/patrimoine/internal/llm/factory"
	"github.com/mvillard/patrimoine/internal/metrics"
	"github.com/mvillard/patrimoine/internal/predictor"
	"github.com/mvillard/patrimoine/internal/provider"
	"github.com/mvillard/patrimoine/internal/provider/alphavantage"
	"github.com/mvillard/patrimoine/internal/provider/binance"
	"github.com/mvillard/patrimoine/internal/provider/carvaluation"
	"github.com/mvillard/patrimoine/internal/provider/catalog"
	"github.com/mvillard/patrimoine/internal/provider/coingecko"
	"github.com/mvillard/patrimoine/internal/provider/watchmarket"
	"github.com/mvillard/patrimoine/internal/provider/yahoo"
	"github.com/mvillard/patrimoine/internal/ratelimit"
	"github.com/mvillard/patrimoine/internal/resolver"
	"github.com/mvillard/patrimoine/internal/scheduler"
	"github.com/mvillard/patrimoine/internal/storage/archive"
	"github.com/mvillard/patrimoine/internal/storage/asset"
	"github.com/mvillard/patrimoine/internal/storage/pricehistory"
	"github.com/mvillard/patrimoine/internal/valuation"
)

// App is the assembled service.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	server    *api.Server
	scheduler *scheduler.Scheduler
	service   *aggregator.Service
	assets    asset.Repository
	mongo     *mongo.Client
}

// New builds the full dependency graph from configuration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	assets, store, mongoClient, err := buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildExporter(cfg.Storage.Archive)
	if err != nil {
		return nil, err
	}

	recorder := history.NewRecorder(store, exporter, reg, logger)

	providers := buildProviders(cfg)
	throttle := ratelimit.New(0)
	for name, pc := range cfg.Providers {
		if pc.RateLimit > 0 {
			throttle.SetInterval(name, pc.RateLimit)
		}
	}

	chains, err := resolver.BuildRegistry(providers, resolver.DefaultChains())
	if err != nil {
		return nil, err
	}
	res := resolver.New(chains, throttle, reg, logger)

	updater := valuation.NewUpdater(assets)
	service := aggregator.New(assets, res, updater, recorder, providers, catalog.New(), reg, logger)

	var pred *predictor.Predictor
	if cfg.LLM.Provider != "" {
		model, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("building LLM provider: %w", err)
		}
		pred = predictor.New(recorder, model, reg, logger)
	} else {
		pred = predictor.New(recorder, nil, reg, logger)
	}

	sched := scheduler.New(service, recorder, cfg.Updates, logger)

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MetricsPath: cfg.Metrics.Path,
	}, service, assets, recorder, pred, reg, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		server:    server,
		scheduler: sched,
		service:   service,
		assets:    assets,
		mongo:     mongoClient,
	}, nil
}

// Service exposes the aggregation service, used by the CLI commands.
func (a *App) Service() *aggregator.Service {
	return a.service
}

// Assets exposes the asset repository.
func (a *App) Assets() asset.Repository {
	return a.assets
}

// Run starts the scheduler and the HTTP server and blocks until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		a.scheduler.Stop()
		return err
	case <-ctx.Done():
	}

	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(shutdownCtx); err != nil {
			a.logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}
	return nil
}

func buildStorage(ctx context.Context, cfg *config.Config) (asset.Repository, pricehistory.Store, *mongo.Client, error) {
	switch cfg.Storage.Backend {
	case "", "memory":
		return asset.NewMemoryRepository(), pricehistory.NewMemoryStore(), nil, nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Storage.Mongo.URI))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		db := client.Database(cfg.Storage.Mongo.Database)
		return asset.NewMongoRepository(db), pricehistory.NewMongoStore(db), client, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildExporter(cfg config.ArchiveConfig) (*archive.Exporter, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		backend, err := archive.NewLocalFS(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("creating archive backend: %w", err)
		}
		return archive.NewExporter(backend), nil
	case "s3":
		backend, err := archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 archive backend: %w", err)
		}
		return archive.NewExporter(backend), nil
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

func buildProviders(cfg *config.Config) *provider.Registry {
	reg := provider.NewRegistry()

	// Base-URL overrides are only honored for enabled providers; a
	// disabled provider is always constructed disabled so the resolver
	// skips it without network I/O.
	cg := cfg.Provider("coingecko")
	if cg.BaseURL != "" && cg.IsEnabled() {
		reg.Register(coingecko.NewWithBaseURL(cg.APIKey, cg.BaseURL))
	} else {
		reg.Register(coingecko.New(cg.APIKey, cg.IsEnabled()))
	}

	bn := cfg.Provider("binance")
	if bn.BaseURL != "" && bn.IsEnabled() {
		reg.Register(binance.NewWithBaseURL(bn.BaseURL))
	} else {
		reg.Register(binance.New(bn.IsEnabled()))
	}

	// Alpha Vantage derives enablement from its key; a config-disabled
	// provider behaves like one with no key at all.
	av := cfg.Provider("alphavantage")
	avKey := av.APIKey
	if !av.IsEnabled() {
		avKey = ""
	}
	if av.BaseURL != "" && av.IsEnabled() {
		reg.Register(alphavantage.NewWithBaseURL(avKey, av.BaseURL))
	} else {
		reg.Register(alphavantage.New(avKey))
	}

	yh := cfg.Provider("yahoo")
	if yh.BaseURL != "" && yh.IsEnabled() {
		base := strings.TrimRight(yh.BaseURL, "/")
		reg.Register(yahoo.NewWithBaseURL(base+"/v8/finance/chart", base+"/v1/finance/search"))
	} else {
		reg.Register(yahoo.New(yh.IsEnabled()))
	}

	wm := cfg.Provider("watchmarket")
	if wm.BaseURL != "" && wm.IsEnabled() {
		reg.Register(watchmarket.NewWithBaseURL(wm.APIKey, wm.BaseURL))
	} else {
		reg.Register(watchmarket.New(wm.APIKey, wm.IsEnabled()))
	}

	cv := cfg.Provider("carvaluation")
	if cv.BaseURL != "" && cv.IsEnabled() {
		reg.Register(carvaluation.NewWithBaseURL(cv.APIKey, cv.BaseURL))
	} else {
		reg.Register(carvaluation.New(cv.APIKey, cv.IsEnabled()))
	}

	return reg
}
