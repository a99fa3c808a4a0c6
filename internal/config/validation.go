package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"console": true, "json": true,
}

// Validate validates the configuration.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateDatabase(&cfg.Database); err != nil {
		return err
	}
	if err := validateAuth(&cfg.Auth); err != nil {
		return err
	}
	if err := validateOrders(&cfg.Orders); err != nil {
		return err
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be between 1 and 65535, got %d", cfg.HTTPPort)
	}
	if cfg.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if cfg.ExternalWSURL != "" {
		u, err := url.Parse(cfg.ExternalWSURL)
		if err != nil {
			return fmt.Errorf("server.external_ws_url is not a valid URL: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("server.external_ws_url must use ws or wss scheme, got %q", u.Scheme)
		}
	}
	return nil
}

func validateDatabase(cfg *DatabaseConfig) error {
	if cfg.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if cfg.SeedFile != "" {
		lower := strings.ToLower(cfg.SeedFile)
		if !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") {
			return fmt.Errorf("database.seed_file must be a YAML file, got %q", cfg.SeedFile)
		}
	}
	return nil
}

func validateAuth(cfg *AuthConfig) error {
	if cfg.TokenExpirySecs <= 0 {
		return fmt.Errorf("auth.token_expiry_secs must be positive, got %d", cfg.TokenExpirySecs)
	}
	return nil
}

func validateOrders(cfg *OrdersConfig) error {
	if cfg.RateLimitPerMinute <= 0 {
		return fmt.Errorf("orders.rate_limit_per_minute must be positive, got %d", cfg.RateLimitPerMinute)
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	if !validLogLevels[cfg.Level] {
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error; got %q", cfg.Level)
	}
	if !validLogFormats[cfg.Format] {
		return fmt.Errorf("logging.format must be console or json, got %q", cfg.Format)
	}
	return nil
}
