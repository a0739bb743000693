package main

import (
	"context"
	"os/signal"
	"syscall"

	"news-miniapp-gateway/internal/common/config"
	"news-miniapp-gateway/internal/common/logger"
	"news-miniapp-gateway/internal/features/launcher"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("news-launcher-bot", false)
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init("news-launcher-bot", cfg.Debug)

	if err := cfg.ValidateBot(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid bot configuration")
	}

	bot, err := launcher.New(launcher.Config{
		Token:       cfg.Telegram.BotToken,
		WebAppURL:   cfg.Telegram.WebAppURL,
		PollTimeout: cfg.Telegram.PollTimeout,
	}, logger.Component("launcher"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create launcher bot")
	}

	go bot.Start()

	<-ctx.Done()
	logger.Info().Msg("Stopping launcher bot...")
	bot.Stop()
	logger.Info().Msg("Launcher bot stopped")
}
