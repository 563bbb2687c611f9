package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rewired-gh/mandipulse/internal/catalog"
)

// Config represents the complete application configuration
type Config struct {
	Market   MarketConfig   `mapstructure:"market"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// MarketConfig controls how datasets are produced and refreshed
type MarketConfig struct {
	Mode            string        `mapstructure:"mode"` // synthetic | external
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	NewsInterval    time.Duration `mapstructure:"news_interval"`
	RegionCount     int           `mapstructure:"region_count"`
	Seed            uint64        `mapstructure:"seed"` // 0 = seeded from the clock
}

// SourcesConfig holds the best-effort external endpoints
type SourcesConfig struct {
	AgmarknetURL string        `mapstructure:"agmarknet_url"`
	EnamURLs     []string      `mapstructure:"enam_urls"`
	NewsURL      string        `mapstructure:"news_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	Enabled     bool     `mapstructure:"enabled"`
	CORSOrigins []string `mapstructure:"cors_origins"` // empty = any origin
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	DBPath           string `mapstructure:"db_path"`
	MaxHistoryPoints int    `mapstructure:"max_history_points"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	ModeSynthetic = "synthetic"
	ModeExternal  = "external"
)

// Load reads configuration from file and environment variables.
// An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	// A missing .env is not an error
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MANDIPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("market.mode", ModeSynthetic)
	v.SetDefault("market.refresh_interval", "30s")
	v.SetDefault("market.news_interval", "10m")
	v.SetDefault("market.region_count", 12)
	v.SetDefault("market.seed", 0)

	v.SetDefault("sources.agmarknet_url", "https://agmarknet.gov.in/SearchCmmMkt.aspx")
	v.SetDefault("sources.enam_urls", []string{
		"https://enam.gov.in/web/dhanyamandi/live-prices",
		"https://enam.gov.in/web/dhanyamandi/api/market-data",
		"https://enam.gov.in/api/market/live-prices",
	})
	v.SetDefault("sources.news_url", "")
	v.SetDefault("sources.timeout", "10s")
	v.SetDefault("sources.max_retries", 2)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", ":memory:")
	v.SetDefault("storage.max_history_points", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Market.Mode != ModeSynthetic && c.Market.Mode != ModeExternal {
		return fmt.Errorf("market.mode must be one of: %s, %s", ModeSynthetic, ModeExternal)
	}
	if c.Market.RefreshInterval < time.Second {
		return fmt.Errorf("market.refresh_interval must be at least 1 second")
	}
	if c.Market.NewsInterval < c.Market.RefreshInterval {
		return fmt.Errorf("market.news_interval must not be shorter than market.refresh_interval")
	}
	if n := catalog.RegionCount(); c.Market.RegionCount < 1 || c.Market.RegionCount > n {
		return fmt.Errorf("market.region_count must be between 1 and %d", n)
	}

	if c.Market.Mode == ModeExternal && c.Sources.AgmarknetURL == "" && len(c.Sources.EnamURLs) == 0 {
		return fmt.Errorf("sources.agmarknet_url or sources.enam_urls is required in external mode")
	}
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("sources.timeout must be positive")
	}
	if c.Sources.MaxRetries < 0 {
		return fmt.Errorf("sources.max_retries must not be negative")
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when the server is enabled")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.MaxHistoryPoints < 2 {
		return fmt.Errorf("storage.max_history_points must be at least 2")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
