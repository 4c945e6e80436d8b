// registration-form is an interactive terminal version of the sign-up form.
// It writes to the same store the API uses.
//
//	go run ./cmd/registration-form --config=config/local.yaml
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/registration-api/internal/bootstrap"
	"github.com/aanand-mishra/registration-api/internal/config"
	"github.com/aanand-mishra/registration-api/internal/terminal"
)

func main() {
	cfg := config.MustLoad()

	// Diagnostics go to stderr so they do not interleave with the prompts.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.Close()

	session := terminal.NewSession(deps.Coordinator, deps.Counts, os.Stdin, os.Stdout)
	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("form session ended with an error", slog.String("error", err.Error()))
		deps.Close()
		os.Exit(1)
	}
}
