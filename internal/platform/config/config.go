package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	BotToken    string `env:"BOT_TOKEN,required,notEmpty"`

	// Cache. Empty REDIS_ADDR disables caching: every stats read
	// recomputes from Postgres.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"1200s"`

	// LLM providers. Presence of a key gates IsAvailable.
	DeepSeekAPIKey  string `env:"DEEPSEEK_API_KEY"`
	DeepSeekBaseURL string `env:"DEEPSEEK_BASE_URL" envDefault:"https://api.deepseek.com/v1"`
	DeepSeekModel   string `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`
	QwenAPIKey      string `env:"QWEN_API_KEY"`
	QwenBaseURL     string `env:"QWEN_BASE_URL" envDefault:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
	QwenModel       string `env:"QWEN_MODEL" envDefault:"qwen-plus"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	GeminiBaseURL   string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	GeminiModels    []string `env:"GEMINI_MODELS" envSeparator:","`

	AnalyzeMessageLimit int `env:"ANALYZE_MESSAGE_LIMIT" envDefault:"30"`
	DigestMessageLimit  int `env:"DIGEST_MESSAGE_LIMIT" envDefault:"200"`

	LLMRateLimitRPS int           `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`

	HealthPort    int `env:"HEALTH_PORT" envDefault:"8080"`
	DashboardPort int `env:"DASHBOARD_PORT" envDefault:"8090"`

	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if len(cfg.GeminiModels) == 0 {
		cfg.GeminiModels = DefaultGeminiModels()
	}

	return cfg, nil
}

// DefaultGeminiModels returns the model fallback order tried when no
// GEMINI_MODELS override is set. The first entry that the API accepts
// wins; a 404 on a model name advances to the next one.
func DefaultGeminiModels() []string {
	return []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-flash-8b"}
}
