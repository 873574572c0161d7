package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Trading  Trading  `mapstructure:"trading"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Notify   Notify   `mapstructure:"notify"`
}

// Trading holds the configuration for the trade lifecycle.
type Trading struct {
	InitialBalance   float64       `mapstructure:"initial_balance"`
	CountdownTicks   int           `mapstructure:"countdown_ticks"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	WinThreshold     float64       `mapstructure:"win_threshold"` // WIN iff draw > threshold
	ProfitRatio      float64       `mapstructure:"profit_ratio"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	HistoryNamespace string        `mapstructure:"history_namespace"`
	RandomSeed       int64         `mapstructure:"random_seed"` // 0 seeds from the clock
	AutoRecharge     AutoRecharge  `mapstructure:"auto_recharge"`
}

// AutoRecharge tops the balance up after a resolution leaves it below Threshold.
type AutoRecharge struct {
	Enabled   bool    `mapstructure:"enabled"`
	Threshold float64 `mapstructure:"threshold"`
	Amount    float64 `mapstructure:"amount"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server holds the configuration for the web servers.
type Server struct {
	Port   int `mapstructure:"port"`
	UIPort int `mapstructure:"ui_port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"` // empty keeps history in memory only
}

// Notify holds the configuration for outbound notifications.
type Notify struct {
	WebhookURL     string        `mapstructure:"webhook_url"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file next to the config file is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	// Missing .env is fine; real environment variables still apply.
	_ = godotenv.Load(filepath.Join(path, ".env"))

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	err = config.Validate()
	return
}

// Default returns the built-in configuration without reading any file.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// Defaults always decode; the error path is unreachable.
	_ = v.Unmarshal(&config)
	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trading.initial_balance", 1_000_000_000)
	v.SetDefault("trading.countdown_ticks", 5)
	v.SetDefault("trading.tick_interval", "1s")
	v.SetDefault("trading.win_threshold", 0.4)
	v.SetDefault("trading.profit_ratio", 0.8)
	v.SetDefault("trading.history_limit", 100)
	v.SetDefault("trading.history_namespace", "tradeHistory")
	v.SetDefault("trading.random_seed", 0)
	v.SetDefault("trading.auto_recharge.enabled", false)
	v.SetDefault("trading.auto_recharge.threshold", 100)
	v.SetDefault("trading.auto_recharge.amount", 1_000_000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.ui_port", 8081)

	v.SetDefault("database.dsn", "trades.db")

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.rate_limit", 5)       // requests per second
	v.SetDefault("notify.rate_limit_burst", 2) // burst size
	v.SetDefault("notify.timeout", "5s")
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	t := c.Trading
	switch {
	case t.InitialBalance < 0:
		return fmt.Errorf("trading.initial_balance must not be negative, got %v", t.InitialBalance)
	case t.CountdownTicks <= 0:
		return fmt.Errorf("trading.countdown_ticks must be positive, got %d", t.CountdownTicks)
	case t.TickInterval <= 0:
		return fmt.Errorf("trading.tick_interval must be positive, got %s", t.TickInterval)
	case t.WinThreshold < 0 || t.WinThreshold >= 1:
		return fmt.Errorf("trading.win_threshold must be in [0,1), got %v", t.WinThreshold)
	case t.ProfitRatio <= 0:
		return fmt.Errorf("trading.profit_ratio must be positive, got %v", t.ProfitRatio)
	case t.HistoryLimit <= 0:
		return fmt.Errorf("trading.history_limit must be positive, got %d", t.HistoryLimit)
	case t.HistoryNamespace == "":
		return fmt.Errorf("trading.history_namespace must not be empty")
	case t.AutoRecharge.Enabled && t.AutoRecharge.Amount <= 0:
		return fmt.Errorf("trading.auto_recharge.amount must be positive when enabled")
	}
	return nil
}
