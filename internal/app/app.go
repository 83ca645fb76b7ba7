package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/blessing"
	"github.com/jwy87/kaoyan/internal/config"
	"github.com/jwy87/kaoyan/internal/generation"
	"github.com/jwy87/kaoyan/internal/metrics"
	"github.com/jwy87/kaoyan/internal/store"
	"github.com/jwy87/kaoyan/internal/store/cache"
	"github.com/jwy87/kaoyan/internal/store/mysql"
	"github.com/jwy87/kaoyan/internal/store/sqlite"
	transporthttp "github.com/jwy87/kaoyan/internal/transport/http"
)

const startupTimeout = 5 * time.Second

// App wires together storage, services and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.BlessingStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		gatherer = reg
	}

	var genCfg *generation.Config
	if g := cfg.GenerationEnabled(); g != nil {
		genCfg = &generation.Config{
			APIKey:      g.APIKey,
			BaseURL:     g.BaseURL,
			Model:       g.Model,
			Temperature: g.Temperature,
			Timeout:     g.Timeout,
		}
		logger.Info().Str("model", g.Model).Msg("blessing generation enabled")
	} else {
		logger.Warn().Msg("OPENAI_API_KEY/OPENAI_BASE_URL/OPENAI_MODEL not all set, serving fallback blessings")
	}

	server := transporthttp.NewServer(transporthttp.Deps{
		Blessings: blessing.NewService(st, m),
		Generator: generation.New(genCfg, logger, m),
		Metrics:   m,
		Gatherer:  gatherer,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// openStore picks the blessing store from the configured database URL. It
// returns a nil store when no URL is set.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.BlessingStore, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not set, blessings will not be persisted")
		return nil, nil
	}

	driver := store.NormalizeDriver(cfg.DatabaseDriver)
	if driver == "" {
		driver = store.InferDriver(cfg.DatabaseURL)
	}

	var st store.BlessingStore
	switch driver {
	case store.DriverSQLite:
		s, err := sqlite.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = s
	case store.DriverMySQL:
		s, err := mysql.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Schema creation is retried on first use.
		if err := s.EnsureSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("mysql not ready at startup")
		}
		st = s
	default:
		return nil, errors.New("cannot determine database driver for DATABASE_URL (set DATABASE_DRIVER)")
	}
	logger.Info().Str("driver", driver).Msg("database initialized")

	if cfg.Redis.Addr == "" {
		return st, nil
	}

	client, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, caching disabled")
		return st, nil
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("redis cache enabled")
	return cache.New(st, client, cfg.Redis.TTL, logger), nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
