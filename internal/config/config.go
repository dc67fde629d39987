// Package config loads application configuration from defaults, an
// optional YAML file, and WICKIT_-prefixed environment variables.
// Environment variables take precedence over file values.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Review  ReviewConfig  `mapstructure:"review" validate:"required"`
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite"`
	Path    string `mapstructure:"path" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// ReviewConfig contains analytics policy knobs.
type ReviewConfig struct {
	WeakSpotWindow      int     `mapstructure:"weak_spot_window" validate:"required,gt=0"`
	WeakSpotThreshold   float64 `mapstructure:"weak_spot_threshold" validate:"required,gt=0,lte=1"`
	RetentionWindowDays int     `mapstructure:"retention_window_days" validate:"required,gt=0"`
}

// Load reads configuration. An empty path skips the config file and
// uses defaults plus environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "./wickit.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("review.weak_spot_window", 5)
	v.SetDefault("review.weak_spot_threshold", 0.6)
	v.SetDefault("review.retention_window_days", 30)

	v.SetEnvPrefix("WICKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
