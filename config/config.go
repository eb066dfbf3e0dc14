package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion          string `mapstructure:"GENERAL_VERSION"`
	Environment             string `mapstructure:"ENVIRONMENT"`
	LogLevel                string `mapstructure:"LOG_LEVEL"`
	ServerPort              int    `mapstructure:"SERVER_PORT"`
	DatabaseDbPath          string `mapstructure:"DB_PATH"`
	DatabaseCacheAddress    string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort       int    `mapstructure:"DB_CACHE_PORT"`
	SecuritySessionTTLHours int    `mapstructure:"SECURITY_SESSION_TTL_HOURS"`
	SecurityCookieSecure    bool   `mapstructure:"SECURITY_COOKIE_SECURE"`
	AdminLogin              string `mapstructure:"ADMIN_LOGIN"`
	AdminPassword           string `mapstructure:"ADMIN_PASSWORD"`
	TaskRetentionDays       int    `mapstructure:"TASK_RETENTION_DAYS"`
	TaskPurgeSchedule       string `mapstructure:"TASK_PURGE_SCHEDULE"`
	ImportMaxUploadMB       int    `mapstructure:"IMPORT_MAX_UPLOAD_MB"`
}

var defaults = map[string]any{
	"GENERAL_VERSION":            "dev",
	"ENVIRONMENT":                "development",
	"LOG_LEVEL":                  "info",
	"SERVER_PORT":                8280,
	"DB_PATH":                    "data/policybook.db",
	"DB_CACHE_ADDRESS":           "localhost",
	"DB_CACHE_PORT":              6379,
	"SECURITY_SESSION_TTL_HOURS": 12,
	"SECURITY_COOKIE_SECURE":     false,
	"ADMIN_LOGIN":                "admin",
	"ADMIN_PASSWORD":             "",
	"TASK_RETENTION_DAYS":        7,
	"TASK_PURGE_SCHEDULE":        "@hourly",
	"IMPORT_MAX_UPLOAD_MB":       10,
}

// InitConfig layers defaults, an optional config.yaml and the environment
// (with .env loaded first).
func InitConfig() (Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.DatabaseDbPath == "" {
		return errors.New("DB_PATH is required")
	}
	if c.ServerPort <= 0 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort)
	}
	if c.TaskRetentionDays < 0 {
		return fmt.Errorf("invalid TASK_RETENTION_DAYS %d", c.TaskRetentionDays)
	}
	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SecuritySessionTTLHours) * time.Hour
}

func (c Config) TaskRetention() time.Duration {
	return time.Duration(c.TaskRetentionDays) * 24 * time.Hour
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
