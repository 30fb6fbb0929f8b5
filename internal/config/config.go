package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TickerScope/internal/cache"
	"TickerScope/internal/model"
)

// Data providers.
const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
	ProviderMock   = "mock"
)

// Storage backends for the fetch cache and sessions.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file" // sessions only
)

// Config holds all application configuration.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DataSource struct {
		Provider        string `yaml:"provider"`
		AlpacaAPIKey    string `yaml:"alpaca_api_key"`
		AlpacaSecretKey string `yaml:"alpaca_secret_key"`
		LookbackDays    int    `yaml:"lookback_days"`
	} `yaml:"data_source"`
	Dashboard struct {
		Tickers        []string `yaml:"tickers"`
		DefaultModel   string   `yaml:"default_model"`
		DefaultHorizon int      `yaml:"default_horizon"`
	} `yaml:"dashboard"`
	Cache struct {
		Backend    string `yaml:"backend"`
		Policy     string `yaml:"policy"`
		Size       int    `yaml:"size"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"cache"`
	Session struct {
		Backend    string `yaml:"backend"`
		TTLMinutes int    `yaml:"ttl_minutes"`
		File       string `yaml:"file"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		WarmCron   string `yaml:"warm_cron"`
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("HTTP_ADDR", &c.HTTP.Addr)
	setString("DATA_PROVIDER", &c.DataSource.Provider)
	setString("ALPACA_API_KEY", &c.DataSource.AlpacaAPIKey)
	setString("ALPACA_SECRET_KEY", &c.DataSource.AlpacaSecretKey)
	setString("CACHE_POLICY", &c.Cache.Policy)
	setString("CACHE_BACKEND", &c.Cache.Backend)
	setString("SESSION_BACKEND", &c.Session.Backend)
	setString("SESSION_FILE", &c.Session.File)
	setString("REDIS_ADDR", &c.Redis.Addr)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("CRON_WARM", &c.Schedule.WarmCron)
	setString("CRON_DIGEST", &c.Schedule.DigestCron)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	if v := os.Getenv("TICKERS"); v != "" {
		var tickers []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
		c.Dashboard.Tickers = tickers
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLSeconds = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.LookbackDays == 0 {
		c.DataSource.LookbackDays = 5 * 365
	}
	if len(c.Dashboard.Tickers) == 0 {
		c.Dashboard.Tickers = []string{"AAPL", "MSFT", "GOOG", "AMZN"}
	}
	for i, t := range c.Dashboard.Tickers {
		c.Dashboard.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if c.Dashboard.DefaultModel == "" {
		c.Dashboard.DefaultModel = string(model.ModelARIMA)
	}
	if c.Dashboard.DefaultHorizon == 0 {
		c.Dashboard.DefaultHorizon = model.DefaultHorizon
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendMemory
	}
	if c.Cache.Policy == "" {
		c.Cache.Policy = string(cache.PolicyTTL)
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 256
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 900
	}
	if c.Session.Backend == "" {
		c.Session.Backend = BackendMemory
	}
	if c.Session.TTLMinutes == 0 {
		c.Session.TTLMinutes = 24 * 60
	}
	if c.Session.File == "" {
		c.Session.File = "data/sessions.json"
	}
	if c.Schedule.WarmCron == "" {
		c.Schedule.WarmCron = "0 */15 * * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 30 22 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderAlpaca:
		if c.DataSource.AlpacaAPIKey == "" || c.DataSource.AlpacaSecretKey == "" {
			return fmt.Errorf("data_source.alpaca_api_key and alpaca_secret_key are required for the alpaca provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, alpaca, mock", c.DataSource.Provider)
	}
	if c.DataSource.LookbackDays < 0 {
		return fmt.Errorf("data_source.lookback_days must be positive")
	}

	if len(c.Dashboard.Tickers) == 0 {
		return fmt.Errorf("dashboard.tickers must not be empty")
	}
	seen := make(map[string]bool, len(c.Dashboard.Tickers))
	for _, t := range c.Dashboard.Tickers {
		if t == "" {
			return fmt.Errorf("dashboard.tickers contains an empty ticker")
		}
		if seen[t] {
			return fmt.Errorf("dashboard.tickers lists %s twice", t)
		}
		seen[t] = true
	}
	if _, err := model.ParseForecastModel(c.Dashboard.DefaultModel); err != nil {
		return fmt.Errorf("dashboard.default_model: %w", err)
	}
	if h := c.Dashboard.DefaultHorizon; h < model.MinHorizon || h > model.MaxHorizon {
		return fmt.Errorf("dashboard.default_horizon must be between %d and %d", model.MinHorizon, model.MaxHorizon)
	}

	policy, err := cache.ParsePolicy(c.Cache.Policy)
	if err != nil {
		return fmt.Errorf("cache.policy: %w", err)
	}
	if policy == cache.PolicyLRU && c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive for the lru policy")
	}
	if policy == cache.PolicyTTL && c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive for the ttl policy")
	}

	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, redis", c.Cache.Backend)
	}
	switch c.Session.Backend {
	case BackendMemory, BackendRedis, BackendFile:
	default:
		return fmt.Errorf("session.backend %q is not one of memory, redis, file", c.Session.Backend)
	}
	if (c.Cache.Backend == BackendRedis || c.Session.Backend == BackendRedis) && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when a redis backend is selected")
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// CacheOptions converts the cache section for cache.NewMemoryStore.
func (c *Config) CacheOptions() cache.Options {
	policy, _ := cache.ParsePolicy(c.Cache.Policy)
	return cache.Options{
		Policy: policy,
		Size:   c.Cache.Size,
		TTL:    c.CacheTTL(),
	}
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

func (c *Config) Lookback() time.Duration {
	return time.Duration(c.DataSource.LookbackDays) * 24 * time.Hour
}

// TelegramEnabled reports whether the bot should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// DefaultModel returns the validated default forecast model.
func (c *Config) DefaultModel() model.ForecastModel {
	m, err := model.ParseForecastModel(c.Dashboard.DefaultModel)
	if err != nil {
		return model.ModelARIMA
	}
	return m
}
