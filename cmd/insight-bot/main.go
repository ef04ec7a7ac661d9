package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatinsight/insight-bot/internal/app"
	"github.com/chatinsight/insight-bot/internal/platform/config"
)

func main() {
	mode := flag.String("mode", "bot", "run mode: bot or dashboard")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer application.Close()

	switch *mode {
	case "bot":
		err = application.RunBot(ctx)
	case "dashboard":
		err = application.RunDashboard(ctx)
	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown mode, expected bot or dashboard")
	}

	if err != nil {
		logger.Fatal().Err(err).Str("mode", *mode).Msg("stopped with error")
	}

	logger.Info().Str("mode", *mode).Msg("stopped")
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
