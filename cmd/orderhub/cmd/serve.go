package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/happyhours/orderhub/internal/app"
	"github.com/happyhours/orderhub/internal/config"
)

var (
	serveHost     string
	servePort     int
	serveDBPath   string
	serveSeedFile string
	serveNoQR     bool
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orderhub server",
	Long: `Start the orderhub server: the REST API for order placement and
history, plus the live order feed for partner devices at /ws/orders.

Example:
  orderhub serve
  orderhub serve --port 9090
  orderhub serve --db /var/lib/orderhub/orders.db
  orderhub serve --seed fixtures/demo.yaml    # load demo data at startup`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind address (default: 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP and WebSocket port (default: 8090)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite database path (default: ./orderhub.db)")
	serveCmd.Flags().StringVar(&serveSeedFile, "seed", "", "YAML fixture to load at startup")
	serveCmd.Flags().BoolVar(&serveNoQR, "no-qr", false, "do not print the partner connect QR code")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.HTTPPort = servePort
	}
	if serveDBPath != "" {
		cfg.Database.Path = serveDBPath
	}
	if serveSeedFile != "" {
		cfg.Database.SeedFile = serveSeedFile
	}
	if serveNoQR {
		cfg.Pairing.ShowQRInTerminal = false
	}

	// Re-validate after overrides
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg)

	log.Info().
		Str("version", version).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.HTTPPort).
		Msg("starting orderhub")

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	return nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" || verbose {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
