// Package app wires configuration, storage, cache, LLM providers and
// the two entrypoints (bot and dashboard) together.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chatinsight/insight-bot/internal/analyze"
	"github.com/chatinsight/insight-bot/internal/cache"
	"github.com/chatinsight/insight-bot/internal/core/llm"
	"github.com/chatinsight/insight-bot/internal/dashboard"
	"github.com/chatinsight/insight-bot/internal/digest"
	"github.com/chatinsight/insight-bot/internal/platform/config"
	"github.com/chatinsight/insight-bot/internal/platform/observability"
	"github.com/chatinsight/insight-bot/internal/stats"
	db "github.com/chatinsight/insight-bot/internal/storage"
	"github.com/chatinsight/insight-bot/internal/telegrambot"
)

// App holds the shared dependencies both run modes build on.
type App struct {
	cfg      *config.Config
	database *db.DB
	stats    *stats.Service
	analyzer *analyze.Service
	digester *digest.Service
	logger   *zerolog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	cacheClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, stats caching disabled")

		cacheClient = nil
	}

	registry := buildRegistry(cfg, logger)

	statsService := stats.New(database, cacheClient, cfg.StatsCacheTTL, logger)
	analyzer := analyze.New(database, registry, logger)
	digester := digest.New(database, registry, cfg.DigestMessageLimit, logger)

	return &App{
		cfg:      cfg,
		database: database,
		stats:    statsService,
		analyzer: analyzer,
		digester: digester,
		logger:   logger,
	}, nil
}

func buildRegistry(cfg *config.Config, logger *zerolog.Logger) *llm.Registry {
	deepseek := llm.NewDeepSeek(llm.DeepSeekConfig{
		APIKey:       cfg.DeepSeekAPIKey,
		BaseURL:      cfg.DeepSeekBaseURL,
		Model:        cfg.DeepSeekModel,
		RateLimitRPS: cfg.LLMRateLimitRPS,
	}, logger)

	qwen := llm.NewQwen(llm.QwenConfig{
		APIKey:       cfg.QwenAPIKey,
		BaseURL:      cfg.QwenBaseURL,
		Model:        cfg.QwenModel,
		RateLimitRPS: cfg.LLMRateLimitRPS,
		Timeout:      cfg.LLMTimeout,
	}, logger)

	gemini := llm.NewGemini(llm.GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.GeminiBaseURL,
		Models:       cfg.GeminiModels,
		RateLimitRPS: cfg.LLMRateLimitRPS,
		Timeout:      cfg.LLMTimeout,
	}, logger)

	return llm.NewRegistry(logger, deepseek, qwen, gemini)
}

func (a *App) Close() {
	a.database.Close()
}

// RunBot starts the health server and the Telegram update loop,
// blocking until ctx is cancelled.
func (a *App) RunBot(ctx context.Context) error {
	a.startHealthServer(ctx)

	bot, err := telegrambot.New(a.cfg, a.database, a.stats, a.analyzer, a.digester, a.logger)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	return bot.Run(ctx)
}

// RunDashboard serves the dashboard API, blocking until ctx is
// cancelled.
func (a *App) RunDashboard(ctx context.Context) error {
	a.startHealthServer(ctx)

	server := dashboard.NewServer(a.analyzer, a.database, a.cfg.AnalyzeMessageLimit, a.cfg.DashboardPort, a.logger)

	return server.Run(ctx)
}

func (a *App) startHealthServer(ctx context.Context) {
	health := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	go func() {
		if err := health.Start(ctx); err != nil {
			a.logger.Error().Err(err).Msg("health server failed")
		}
	}()
}
