// Package bootstrap builds the application's dependencies from config so
// the server and the terminal form are wired the same way.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aanand-mishra/registration-api/internal/cache"
	"github.com/aanand-mishra/registration-api/internal/config"
	"github.com/aanand-mishra/registration-api/internal/metrics"
	"github.com/aanand-mishra/registration-api/internal/registration"
	"github.com/aanand-mishra/registration-api/internal/storage"
	"github.com/aanand-mishra/registration-api/internal/storage/postgres"
	"github.com/aanand-mishra/registration-api/internal/storage/sqlite"
)

// Dependencies holds everything the surfaces need.
type Dependencies struct {
	Store       storage.Storage
	Cache       *cache.Counts
	Counts      *registration.CountsService
	Coordinator *registration.Coordinator
	Registry    *prometheus.Registry
	Logger      *slog.Logger
}

// SetupLogger returns a logger for the given environment.
//
// dev (and anything unrecognised): human-readable text at DEBUG.
// staging: JSON at DEBUG. prod: JSON at INFO.
func SetupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// OpenStorage connects the backend selected by cfg.Driver.
func OpenStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Build opens the store and the optional cache and wires the registration
// core. A Redis cache that cannot be reached is logged and skipped: the
// counts it holds are display-only.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Dependencies, error) {
	store, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise storage: %w", err)
	}

	deps := &Dependencies{Store: store, Logger: log}

	var countCache registration.CountCache
	if cfg.Cache.RedisAddr != "" {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			log.Warn("department count cache disabled", slog.String("error", err.Error()))
		} else {
			deps.Cache = c
			countCache = c
		}
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(deps.Registry)

	rules := registration.RulesFromConfig(cfg.Registration)

	deps.Counts = registration.NewCountsService(store, rules, countCache,
		registration.CountsWithRecorder(m),
		registration.CountsWithLogger(log),
		registration.CountsWithTimeout(cfg.Storage.Timeout),
	)

	deps.Coordinator = registration.NewCoordinator(store, rules,
		registration.WithTimeout(cfg.Storage.Timeout),
		registration.WithLogger(log),
		registration.WithRecorder(m),
		registration.WithCounts(deps.Counts),
	)

	if rules.StrictCapacity {
		if _, ok := store.(storage.GuardedInserter); !ok {
			log.Warn("strict capacity requested but the store cannot guard inserts")
		}
	}

	return deps, nil
}

// Close releases the store and cache.
func (d *Dependencies) Close() error {
	var errs []error
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	return errors.Join(errs...)
}
