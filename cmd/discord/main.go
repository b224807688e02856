// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keshon/botcmd/internal/app"
	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/discord"
	"github.com/keshon/botcmd/internal/logging"
	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/internal/version"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("Failed to load config")
	}
	log, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: true})
	defer closer.Close()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("Discord bot exited with error")
		closer.Close()
		os.Exit(1)
	}
	log.Info().Msg("Discord bot exited cleanly")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("version", version.String()).Msg("Starting bot")
	if err := cfg.RequireDiscord(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer store.Close()

	prompts := prompt.NewRegistry(cfg.PromptTimeout)
	bot, err := discord.New(cfg, store, prompts, log)
	if err != nil {
		return err
	}

	dispatcher, _, err := app.Build(app.Options{
		Config:  cfg,
		Store:   store,
		Prompts: prompts,
		Users:   cmd.UserResolverFunc(bot.ResolveUser),
		Latency: bot.Latency,
		Log:     log,
	})
	if err != nil {
		return err
	}
	bot.Attach(dispatcher)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	g.Go(func() error {
		storage.RunCooldownCleaner(ctx, store, time.Hour, log)
		return nil
	})
	return g.Wait()
}
