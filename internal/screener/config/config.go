package config

import (
	"stocxer-screener/pkg/config"
	"time"
)

// Screener holds screener-specific configuration.
type Screener struct {
	MaxConcurrentSymbols int      `mapstructure:"max_concurrent_symbols"`
	DefaultUniverse      []string `mapstructure:"default_universe"`
	DefaultMinConfidence float64  `mapstructure:"default_min_confidence"`
	SystemUserID         string   `mapstructure:"system_user_id"`

	RedisStreamScanTimeout         time.Duration `mapstructure:"redis_stream_scan_timeout"`
	RedisStreamScanRetryInterval   time.Duration `mapstructure:"redis_stream_scan_retry_interval"`
	RedisStreamScanMaxIdleDuration time.Duration `mapstructure:"redis_stream_scan_max_idle_duration"`
	RedisStreamScanMaxRetry        int           `mapstructure:"redis_stream_scan_max_retry"`

	Schedules []ScheduledScan `mapstructure:"schedules"`
}

// ScheduledScan describes a recurring scan over the default universe.
type ScheduledScan struct {
	Cron       string `mapstructure:"cron"`
	SignalType string `mapstructure:"signal_type"`
}

// MarketData holds the configuration for the market data API.
type MarketData struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	CacheTTL            string `mapstructure:"cache_ttl"`
}

// Config holds the full configuration for the screener service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Telegram   config.Telegram `mapstructure:"telegram"`
	Screener   Screener        `mapstructure:"screener"`
	MarketData MarketData      `mapstructure:"market_data"`
}

// Load loads the screener configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
