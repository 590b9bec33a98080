// Package config provides configuration management for the risk API.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Environment string `mapstructure:"environment"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`

	// ModelPath points at the classifier artifact. The artifact is loaded
	// once at startup; a missing or unreadable file aborts the process.
	ModelPath string `mapstructure:"model_path"`

	// HistoryPath is the durable CSV event log. An empty string runs the
	// store memory-only (demo mode, nothing survives a restart).
	HistoryPath string `mapstructure:"history_path"`

	// HighRiskCountries overrides the built-in high-risk origin list when
	// non-empty.
	HighRiskCountries []string `mapstructure:"high_risk_countries"`

	// AlertURL, when set, receives a JSON POST for every evaluation whose
	// final risk reaches AlertThreshold.
	AlertURL       string `mapstructure:"alert_url"`
	AlertThreshold int    `mapstructure:"alert_threshold"`
}

// Load reads configuration from an optional config.yaml and GART_-prefixed
// environment variables, on top of defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("model_path", "data/model.json")
	v.SetDefault("history_path", "data/history.csv")
	v.SetDefault("alert_threshold", 60)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("GART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.ModelPath == "" {
		return fmt.Errorf("model_path is required")
	}
	if cfg.AlertThreshold < 0 || cfg.AlertThreshold > 100 {
		return fmt.Errorf("alert_threshold %d out of range", cfg.AlertThreshold)
	}
	return nil
}
