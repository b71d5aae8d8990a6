package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/integration"
	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/observability"
	"github.com/energywise/energywise/pkg/reports"
	"github.com/energywise/energywise/pkg/server"
	"github.com/energywise/energywise/pkg/solar"
	"github.com/energywise/energywise/pkg/storage"
	"github.com/energywise/energywise/pkg/store"
	"github.com/energywise/energywise/pkg/tariff"
	"github.com/energywise/energywise/pkg/tips"
)

func main() {
	// init packages, storage first so the store loads from a ready database
	s := storage.Configured()
	metrics := observability.NewMetrics()
	st := store.Configured(s, metrics)
	rates := tariff.Configured()
	providers := integration.Configured()

	srv := server.Configured(server.Deps{
		Store:        st,
		Storage:      s,
		Estimator:    solar.Configured(),
		Rates:        rates,
		Reports:      reports.Configured(rates),
		Tips:         tips.Configured(metrics),
		Integrations: integration.ConfiguredService(providers, st, metrics),
		Metrics:      metrics,
	})

	// parse flags
	lflag.Configure()

	level, err := log.ConfigureFromFlags()
	if err != nil {
		panic(err)
	}
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	// Run blocks until ctx is canceled or the server fails
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
