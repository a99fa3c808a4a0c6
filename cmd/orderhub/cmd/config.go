package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/happyhours/orderhub/internal/config"
)

var (
	configInitLocal bool
	configInitForce bool
)

// defaultConfigTemplate is written by `orderhub config init`.
const defaultConfigTemplate = `# orderhub configuration

server:
  host: 127.0.0.1
  http_port: 8090
  # Public feed URL when running behind a tunnel or reverse proxy:
  # external_ws_url: wss://orders.example.com/ws/orders

database:
  path: orderhub.db
  # YAML fixture loaded at startup (users, establishments, beverages):
  # seed_file: fixtures/demo.yaml

auth:
  # Token signing secret. Leave empty to use an ephemeral per-process
  # secret (tokens will not survive restarts).
  secret: ""
  token_expiry_secs: 86400

orders:
  rate_limit_per_minute: 30

logging:
  level: info    # trace, debug, info, warn, error
  format: console  # console or json

pairing:
  show_qr_in_terminal: true
`

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage orderhub configuration.

Without subcommands, shows the current effective configuration.

Examples:
  orderhub config          # Show current config
  orderhub config init     # Create config file with defaults
  orderhub config path     # Show config file location`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		printConfig(cfg)
	},
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings and documentation.

By default, creates ~/.orderhub/config.yaml.
Use --local to create ./config.yaml in the current directory.`,
	RunE: runConfigInit,
}

// configPathCmd shows the config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			fmt.Println(cfgFile)
			return
		}
		fmt.Println(defaultConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create ./config.yaml instead of ~/.orderhub/config.yaml")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := defaultConfigPath()
	if configInitLocal {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".orderhub", "config.yaml")
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Host:              %s\n", cfg.Server.Host)
	fmt.Printf("Port:              %d\n", cfg.Server.HTTPPort)
	if cfg.Server.ExternalWSURL != "" {
		fmt.Printf("External WS URL:   %s\n", cfg.Server.ExternalWSURL)
	}
	fmt.Printf("Database:          %s\n", cfg.Database.Path)
	if cfg.Database.SeedFile != "" {
		fmt.Printf("Seed File:         %s\n", cfg.Database.SeedFile)
	}
	fmt.Printf("Token Expiry:      %ds\n", cfg.Auth.TokenExpirySecs)
	fmt.Printf("Rate Limit:        %d/min\n", cfg.Orders.RateLimitPerMinute)
	fmt.Printf("Log Level:         %s\n", cfg.Logging.Level)
	fmt.Printf("Log Format:        %s\n", cfg.Logging.Format)
}
