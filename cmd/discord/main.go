package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	_ "server-tags/internal/command/core"
	_ "server-tags/internal/command/greet"
	_ "server-tags/internal/command/tag"

	"server-tags/internal/config"
	"server-tags/internal/discord"
	"server-tags/internal/logger"
	"server-tags/internal/storage"
	"server-tags/internal/tags"
	"server-tags/pkg/retrylimit"
)

const (
	limiterIdle     = 10 * time.Minute
	limiterSweep    = time.Minute
	deliverAttempts = 3
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	closer, err := logger.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer closer.Close()

	log.Info().Msg("Starting tags bot...")

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StoragePath).Msg("Failed to open storage")
	}
	defer store.Close()

	svc := tags.NewService(tags.Deps{
		Store:         store,
		Engine:        tags.NewEngine(cfg.Limits()),
		Runner:        tags.NewRunner(cfg.TagTimeout),
		Limiter:       tags.NewLimiter(cfg.TagRate, cfg.TagBurst, limiterIdle),
		Deliverer:     tags.NewDeliverer(retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5), deliverAttempts),
		DefaultPrefix: cfg.DefaultPrefix,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot := discord.NewBot(cfg, store, svc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	g.Go(func() error { return svc.CleanLimiter(ctx, limiterSweep) })

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Discord bot error")
		return
	}
	log.Info().Msg("Discord bot exited cleanly")
}
