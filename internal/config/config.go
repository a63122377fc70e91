// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Telegram TelegramConfig
	Gemini   GeminiConfig
	Risk     RiskConfig
	Alerting AlertingConfig
	Liveness LivenessConfig
	Sweep    SweepConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DeviceToken     string        `mapstructure:"device_token"`
	FrontendOrigin  string        `mapstructure:"frontend_origin"`
}

type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // "sheets" or "postgres"
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type SheetsConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	SpreadsheetID string        `mapstructure:"spreadsheet_id"`
	SheetName     string        `mapstructure:"sheet_name"`
	AccessToken   string        `mapstructure:"access_token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// AllowEphemeral lets Store report a non-durable local success
	// when the backend is unreachable instead of failing the ingest.
	AllowEphemeral bool `mapstructure:"allow_ephemeral"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type TelegramConfig struct {
	BotToken  string        `mapstructure:"bot_token"`
	ChannelID string        `mapstructure:"channel_id"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

// RiskConfig carries every constant of the risk formula. The defaults
// are the field calibration; none of them is hardcoded law.
type RiskConfig struct {
	WaterLevelWarning  float64 `mapstructure:"water_level_warning"`  // cm
	WaterLevelDanger   float64 `mapstructure:"water_level_danger"`   // cm
	WaterLevelElevated float64 `mapstructure:"water_level_elevated"` // cm

	BaseRiskDanger   float64 `mapstructure:"base_risk_danger"`
	BaseRiskWarning  float64 `mapstructure:"base_risk_warning"`
	BaseRiskElevated float64 `mapstructure:"base_risk_elevated"`
	BaseRiskNormal   float64 `mapstructure:"base_risk_normal"`

	TrendRapidRiseCm  float64 `mapstructure:"trend_rapid_rise_cm"`
	TrendRiseCm       float64 `mapstructure:"trend_rise_cm"`
	TrendRecedeCm     float64 `mapstructure:"trend_recede_cm"`
	TrendRapidFactor  float64 `mapstructure:"trend_rapid_factor"`
	TrendRiseFactor   float64 `mapstructure:"trend_rise_factor"`
	TrendRecedeFactor float64 `mapstructure:"trend_recede_factor"`

	BandCritical float64 `mapstructure:"band_critical"`
	BandHigh     float64 `mapstructure:"band_high"`
	BandModerate float64 `mapstructure:"band_moderate"`
}

type AlertingConfig struct {
	RiskThreshold      float64       `mapstructure:"risk_threshold"` // %
	Cooldown           time.Duration `mapstructure:"cooldown"`
	HistoricalCooldown time.Duration `mapstructure:"historical_cooldown"`
	CooldownBackend    string        `mapstructure:"cooldown_backend"` // "memory" or "redis"
}

type LivenessConfig struct {
	OnlineWithin time.Duration `mapstructure:"online_within"`
	IdleWithin   time.Duration `mapstructure:"idle_within"`
}

type SweepConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	DaysBack      int           `mapstructure:"days_back"`
	HistoryLimit  int           `mapstructure:"history_limit"`
	MinDataPoints int           `mapstructure:"min_data_points"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("FLOOD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.frontend_origin", "http://localhost:3000")
	viper.SetDefault("server.device_token", "")

	// Storage defaults
	viper.SetDefault("storage.backend", "sheets")
	viper.SetDefault("storage.sheets.base_url", "https://sheets.googleapis.com")
	viper.SetDefault("storage.sheets.sheet_name", "Sheet1")
	viper.SetDefault("storage.sheets.timeout", "30s")
	viper.SetDefault("storage.sheets.allow_ephemeral", false)
	// Env-only keys need a registered default for Unmarshal to see
	// their environment values.
	viper.SetDefault("storage.sheets.spreadsheet_id", "")
	viper.SetDefault("storage.sheets.access_token", "")
	viper.SetDefault("storage.postgres.host", "")
	viper.SetDefault("storage.postgres.port", 5432)
	viper.SetDefault("storage.postgres.user", "flood")
	viper.SetDefault("storage.postgres.password", "")
	viper.SetDefault("storage.postgres.dbname", "floodwatch")
	viper.SetDefault("storage.postgres.sslmode", "disable")

	// Notification defaults
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.timeout", "10s")
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.channel_id", "")

	// Summarizer defaults
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.model", "gemini-1.5-flash")
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("gemini.timeout", "30s")
	viper.SetDefault("gemini.temperature", 0.5)
	viper.SetDefault("gemini.max_tokens", 1024)

	// Risk formula defaults
	viper.SetDefault("risk.water_level_warning", 50.0)
	viper.SetDefault("risk.water_level_danger", 80.0)
	viper.SetDefault("risk.water_level_elevated", 30.0)
	viper.SetDefault("risk.base_risk_danger", 85.0)
	viper.SetDefault("risk.base_risk_warning", 60.0)
	viper.SetDefault("risk.base_risk_elevated", 40.0)
	viper.SetDefault("risk.base_risk_normal", 20.0)
	viper.SetDefault("risk.trend_rapid_rise_cm", 15.0)
	viper.SetDefault("risk.trend_rise_cm", 8.0)
	viper.SetDefault("risk.trend_recede_cm", -5.0)
	viper.SetDefault("risk.trend_rapid_factor", 1.4)
	viper.SetDefault("risk.trend_rise_factor", 1.2)
	viper.SetDefault("risk.trend_recede_factor", 0.8)
	viper.SetDefault("risk.band_critical", 80.0)
	viper.SetDefault("risk.band_high", 60.0)
	viper.SetDefault("risk.band_moderate", 40.0)

	// Alerting defaults
	viper.SetDefault("alerting.risk_threshold", 50.0)
	viper.SetDefault("alerting.cooldown", "15m")
	viper.SetDefault("alerting.historical_cooldown", "30m")
	viper.SetDefault("alerting.cooldown_backend", "memory")

	// Liveness defaults
	viper.SetDefault("liveness.online_within", "2m")
	viper.SetDefault("liveness.idle_within", "10m")

	// Sweep defaults
	viper.SetDefault("sweep.interval", "30m")
	viper.SetDefault("sweep.days_back", 3)
	viper.SetDefault("sweep.history_limit", 50)
	viper.SetDefault("sweep.min_data_points", 5)

	// Redis defaults
	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
}

func validateConfig(config *Config) error {
	switch config.Storage.Backend {
	case "sheets":
		if config.Storage.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("storage.sheets.spreadsheet_id is required")
		}
	case "postgres":
		if config.Storage.Postgres.Host == "" {
			return fmt.Errorf("storage.postgres.host is required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}
	if config.Alerting.CooldownBackend == "redis" && config.Redis.Host == "" {
		return fmt.Errorf("redis host is required for the redis cooldown backend")
	}
	if config.Risk.WaterLevelWarning >= config.Risk.WaterLevelDanger {
		return fmt.Errorf("risk.water_level_warning must be below risk.water_level_danger")
	}
	return nil
}
