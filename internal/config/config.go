// Package config handles configuration management for orderhub.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Pairing  PairingConfig  `mapstructure:"pairing"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	HTTPPort      int    `mapstructure:"http_port"`
	ExternalWSURL string `mapstructure:"external_ws_url"` // Optional: public URL for the live feed (e.g., wss://orders.example.com)
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path     string `mapstructure:"path"`
	SeedFile string `mapstructure:"seed_file"` // Optional: YAML fixture loaded at startup
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	Secret          string `mapstructure:"secret"` // Empty means an ephemeral secret per process
	TokenExpirySecs int    `mapstructure:"token_expiry_secs"`
}

// OrdersConfig holds order admission tuning.
type OrdersConfig struct {
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PairingConfig holds partner device pairing configuration.
type PairingConfig struct {
	ShowQRInTerminal bool `mapstructure:"show_qr_in_terminal"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default search paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.orderhub")
		v.AddConfigPath("/etc/orderhub")
	}

	// Environment variable prefix
	v.SetEnvPrefix("ORDERHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - not an error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.http_port", 8090)

	v.SetDefault("database.path", "orderhub.db")
	v.SetDefault("database.seed_file", "")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_expiry_secs", 86400)

	v.SetDefault("orders.rate_limit_per_minute", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("pairing.show_qr_in_terminal", true)
}

// postProcess applies post-processing to configuration.
func postProcess(cfg *Config) error {
	if cfg.Database.Path != "" && cfg.Database.Path != ":memory:" {
		absPath, err := filepath.Abs(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
		cfg.Database.Path = absPath
	}

	if cfg.Database.SeedFile != "" {
		absPath, err := filepath.Abs(cfg.Database.SeedFile)
		if err != nil {
			return fmt.Errorf("failed to resolve seed file path: %w", err)
		}
		cfg.Database.SeedFile = absPath
	}

	return nil
}
