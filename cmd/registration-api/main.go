// main is the entry point of the registration API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus .env and environment)
//  2. Initialise the logger
//  3. Open the student store and the optional Redis count cache
//  4. Register HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/registration-api --config=config/local.yaml
//
// or:
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/registration-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/registration-api/internal/bootstrap"
	"github.com/aanand-mishra/registration-api/internal/config"
	"github.com/aanand-mishra/registration-api/internal/http/router"
)

func main() {
	cfg := config.MustLoad()

	log := bootstrap.SetupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting registration-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	deps, err := bootstrap.Build(startCtx, cfg, log)
	cancelStart()
	if err != nil {
		log.Error("failed to initialise dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("driver", cfg.Storage.Driver),
		slog.Int("capacity", cfg.Registration.Capacity),
		slog.Bool("strict_capacity", cfg.Registration.StrictCapacity),
	)

	handler := router.New(router.Deps{
		Coordinator:    deps.Coordinator,
		Counts:         deps.Counts,
		Gatherer:       deps.Registry,
		RequestTimeout: cfg.HTTPServer.WriteTimeout,
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and main waits
	// for a signal below.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
	}

	if err := deps.Close(); err != nil {
		log.Error("failed to close dependencies", slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
}
