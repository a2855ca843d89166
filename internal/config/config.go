// Package config provides configuration management for the condor sentinel.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "condor-sentinel/internal/errors"
)

// Config holds all application configuration. It is constructed once at
// startup, validated, and threaded explicitly through every component.
type Config struct {
	Thresholds    Thresholds         `mapstructure:"thresholds"`
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Provider      ProviderConfig     `mapstructure:"provider"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LogConfig          `mapstructure:"logging"`
}

// Thresholds holds the entry-rule and structure parameters. Immutable
// after Load; Validate runs exactly once at construction.
type Thresholds struct {
	VolatilityWarn     float64 `mapstructure:"volatility_warn"`
	IntradayChangeMax  float64 `mapstructure:"intraday_change_max"`
	OTMPercent         float64 `mapstructure:"otm_percent"`
	WingWidth          float64 `mapstructure:"wing_width"`
	MADeviationMax     float64 `mapstructure:"ma_deviation_max"`
	PrevDayRangeMax    float64 `mapstructure:"prev_day_range_max"`
	StrikeRoundingUnit float64 `mapstructure:"strike_rounding_unit"`
	PointMultiplier    float64 `mapstructure:"point_multiplier"`
	WatchCurrency      string  `mapstructure:"watch_currency"`
	CreditReceived     float64 `mapstructure:"credit_received"`
}

// MonitorConfig holds monitor daemon configuration.
type MonitorConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`
	PriceMovePct  float64       `mapstructure:"price_move_pct"`
	ExtendedRules bool          `mapstructure:"extended_rules"`
	SettleAtClose bool          `mapstructure:"settle_at_close"`
}

// ProviderConfig holds market data provider configuration.
type ProviderConfig struct {
	QuoteURL       string  `mapstructure:"quote_url"`
	CalendarURL    string  `mapstructure:"calendar_url"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	Burst          int     `mapstructure:"burst"`
}

// StorageConfig holds ledger persistence configuration.
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig holds alert channel configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Terminal bool           `mapstructure:"terminal"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/condor-sentinel"
	}
	return filepath.Join(home, ".config", "condor-sentinel")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. Missing files fall back to
// defaults; environment variables with the CONDOR_ prefix override file
// values.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("CONDOR")
	v.AutomaticEnv()

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.Wrap(err, "reading config.toml")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.Wrap(err, "unmarshaling config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("thresholds.volatility_warn", 22.0)
	v.SetDefault("thresholds.intraday_change_max", 1.0)
	v.SetDefault("thresholds.otm_percent", 1.0)
	v.SetDefault("thresholds.wing_width", 50.0)
	v.SetDefault("thresholds.ma_deviation_max", 2.0)
	v.SetDefault("thresholds.prev_day_range_max", 2.0)
	v.SetDefault("thresholds.strike_rounding_unit", 1.0)
	v.SetDefault("thresholds.point_multiplier", 10.0)
	v.SetDefault("thresholds.watch_currency", "USD")
	v.SetDefault("thresholds.credit_received", 2.5)

	v.SetDefault("monitor.interval", "1m")
	v.SetDefault("monitor.fetch_timeout", "10s")
	v.SetDefault("monitor.alert_cooldown", "5m")
	v.SetDefault("monitor.price_move_pct", 0.5)
	v.SetDefault("monitor.extended_rules", true)
	v.SetDefault("monitor.settle_at_close", true)

	v.SetDefault("provider.requests_per_sec", 2.0)
	v.SetDefault("provider.burst", 5)

	v.SetDefault("storage.database_path", filepath.Join(configDir, "ledger.db"))

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.terminal", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "sentinel.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Monitor.Interval <= 0 {
		return apperrors.NewValidationError("monitor.interval", c.Monitor.Interval, "must be positive")
	}
	if c.Monitor.FetchTimeout <= 0 {
		return apperrors.NewValidationError("monitor.fetch_timeout", c.Monitor.FetchTimeout, "must be positive")
	}
	if c.Monitor.PriceMovePct <= 0 {
		return apperrors.NewValidationError("monitor.price_move_pct", c.Monitor.PriceMovePct, "must be positive")
	}
	return nil
}

// Validate validates the threshold set. Strikes would invert or collapse
// on a non-positive wing width or negative OTM percentage.
func (t Thresholds) Validate() error {
	if t.WingWidth <= 0 {
		return apperrors.NewValidationError("thresholds.wing_width", t.WingWidth, "must be positive")
	}
	if t.OTMPercent < 0 {
		return apperrors.NewValidationError("thresholds.otm_percent", t.OTMPercent, "must be non-negative")
	}
	if t.IntradayChangeMax <= 0 {
		return apperrors.NewValidationError("thresholds.intraday_change_max", t.IntradayChangeMax, "must be positive")
	}
	if t.StrikeRoundingUnit <= 0 {
		return apperrors.NewValidationError("thresholds.strike_rounding_unit", t.StrikeRoundingUnit, "must be positive")
	}
	if t.PointMultiplier <= 0 {
		return apperrors.NewValidationError("thresholds.point_multiplier", t.PointMultiplier, "must be positive")
	}
	if t.CreditReceived < 0 {
		return apperrors.NewValidationError("thresholds.credit_received", t.CreditReceived, "must be non-negative")
	}
	if t.CreditReceived > t.WingWidth {
		return apperrors.NewValidationError("thresholds.credit_received", t.CreditReceived, "cannot exceed wing width")
	}
	return nil
}
