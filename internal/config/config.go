package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"StockSentiment/internal/period"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Price sources.
const (
	PriceBackend = "backend"
	PriceYahoo   = "yahoo"
	PriceMock    = "mock"
)

// Config holds all application configuration.
type Config struct {
	Backend struct {
		BaseURL             string        `yaml:"base_url"`
		Timeout             time.Duration `yaml:"timeout"`
		NotConfiguredPhrase string        `yaml:"not_configured_phrase"`
		// Mock serves canned data instead of calling the backend.
		Mock bool `yaml:"mock"`
	} `yaml:"backend"`
	PriceSource string `yaml:"price_source"`
	Store       struct {
		Kind  string `yaml:"kind"`
		Path  string `yaml:"path"`
		Key   string `yaml:"key"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"store"`
	UI struct {
		DefaultPeriod string `yaml:"default_period"`
		Width         int    `yaml:"width"`
		ChartHeight   int    `yaml:"chart_height"`
		LogFile       string `yaml:"log_file"`
	} `yaml:"ui"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		WatchCron  string `yaml:"watch_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file, then config from a YAML file, then
// applies environment variable overrides and defaults. A missing YAML file
// is not an error.
func Load(path string) (*Config, error) {
	envFile := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envFile = v
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
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

	// Environment variable overrides
	if v := os.Getenv("SENTIMENT_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("SENTIMENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SENTIMENT_TIMEOUT: %w", err)
		}
		cfg.Backend.Timeout = d
	}
	if v := os.Getenv("SENTIMENT_MOCK"); v != "" {
		cfg.Backend.Mock, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("PRICE_SOURCE"); v != "" {
		cfg.PriceSource = v
	}
	if v := os.Getenv("SENTIMENT_STORE"); v != "" {
		cfg.Store.Kind = v
	}
	if v := os.Getenv("SENTIMENT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Store.Redis.Password = v
	}
	if v := os.Getenv("DEFAULT_PERIOD"); v != "" {
		cfg.UI.DefaultPeriod = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Schedule.WatchCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = v == "true"
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8000"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 15 * time.Second
	}
	if cfg.PriceSource == "" {
		cfg.PriceSource = PriceBackend
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = StoreFile
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Kind {
		case StoreSQLite:
			cfg.Store.Path = "data/stock_sentiment_kv.db"
		default:
			cfg.Store.Path = "data/recent_searches.json"
		}
	}
	if cfg.Store.Redis.Addr == "" {
		cfg.Store.Redis.Addr = "localhost:6379"
	}
	if cfg.UI.DefaultPeriod == "" {
		cfg.UI.DefaultPeriod = string(period.Default)
	}
	if cfg.UI.Width == 0 {
		cfg.UI.Width = 80
	}
	if cfg.UI.ChartHeight == 0 {
		cfg.UI.ChartHeight = 10
	}
	if cfg.UI.LogFile == "" {
		cfg.UI.LogFile = "data/tui.log"
	}
	if cfg.Schedule.WatchCron == "" {
		cfg.Schedule.WatchCron = "0 30 16 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_sentiment.db"
	}

	return cfg, nil
}

// DefaultPeriod returns the configured default period.
func (c *Config) DefaultPeriod() period.Period {
	p, err := period.Parse(c.UI.DefaultPeriod)
	if err != nil {
		return period.Default
	}
	return p
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" && !c.Backend.Mock {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if _, err := period.Parse(c.UI.DefaultPeriod); err != nil {
		return fmt.Errorf("ui.default_period: %w", err)
	}
	switch c.PriceSource {
	case PriceBackend, PriceYahoo, PriceMock:
	default:
		return fmt.Errorf("price_source must be one of backend, yahoo, mock (got %q)", c.PriceSource)
	}
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("store.kind must be one of memory, file, sqlite, redis (got %q)", c.Store.Kind)
	}
	if (c.Store.Kind == StoreFile || c.Store.Kind == StoreSQLite) && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for store.kind %s", c.Store.Kind)
	}
	return nil
}

// ValidateWatch checks the additional settings watch mode needs.
func (c *Config) ValidateWatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Schedule.WatchCron == "" {
		return fmt.Errorf("schedule.watch_cron is required")
	}
	return nil
}
