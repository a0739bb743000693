package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Debug bool   `env:"DEBUG" envDefault:"false"`
	Env   string `env:"APP_ENV" envDefault:"development"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Backend struct {
		BaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8000"`
		Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Session struct {
		TTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
		NewsCacheTTL time.Duration `env:"NEWS_CACHE_TTL" envDefault:"30s"`
	}

	Telegram struct {
		// Пустой токен отключает проверку подписи init data в шлюзе
		BotToken    string        `env:"BOT_TOKEN"`
		InitDataTTL time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
		WebAppURL   string        `env:"WEBAPP_URL" envDefault:"https://localhost:3000"`
		PollTimeout time.Duration `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"10s"`
	}

	// Тестовая личность для разработки, когда Telegram не передал пользователя
	DevFallback struct {
		Enabled   bool   `env:"DEV_FALLBACK_ENABLED" envDefault:"false"`
		TgID      int64  `env:"DEV_FALLBACK_TG_ID"`
		FirstName string `env:"DEV_FALLBACK_FIRST_NAME" envDefault:"Developer"`
	}
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	// В production переменные задаются напрямую, .env может отсутствовать
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("invalid APP_ENV %q", c.Env)
	}
	if c.DevFallback.Enabled {
		if c.IsProduction() {
			return errors.New("DEV_FALLBACK_ENABLED is not allowed in production")
		}
		if c.DevFallback.TgID <= 0 {
			return errors.New("DEV_FALLBACK_TG_ID must be set when DEV_FALLBACK_ENABLED is true")
		}
	}
	if c.IsProduction() && c.Telegram.BotToken == "" {
		return errors.New("BOT_TOKEN is required in production to verify init data")
	}
	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	return nil
}

// ValidateBot проверяет настройки, без которых бот-лаунчер не запустится.
func (c *Config) ValidateBot() error {
	if c.Telegram.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if !strings.HasPrefix(c.Telegram.WebAppURL, "https://") {
		return fmt.Errorf("WEBAPP_URL must be an https url, got %q", c.Telegram.WebAppURL)
	}
	if c.Telegram.PollTimeout <= 0 {
		return errors.New("TELEGRAM_POLL_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// RedisAddr возвращает адрес в формате host:port.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
