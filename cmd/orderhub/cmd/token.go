package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhours/orderhub/internal/adapters/store"
	"github.com/happyhours/orderhub/internal/config"
	"github.com/happyhours/orderhub/internal/pairing"
	"github.com/happyhours/orderhub/internal/security"
)

var (
	tokenUserID     string
	tokenExpirySecs int
	tokenShowQR     bool
)

// tokenCmd issues an access token for an existing account.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user",
	Long: `Issue a signed access token for an existing account. The account's
role is read from the database, so the token carries the correct
permissions for the REST API and, for partners, the live order feed.

Requires auth.secret to be configured; tokens signed with an ephemeral
per-process secret would not verify against a running server.

Example:
  orderhub token --user partner-1
  orderhub token --user partner-1 --qr         # print a connect QR code
  orderhub token --user client-1 --expiry 600`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user ID to issue the token for (required)")
	tokenCmd.Flags().IntVar(&tokenExpirySecs, "expiry", 0, "token lifetime in seconds (default: auth.token_expiry_secs)")
	tokenCmd.Flags().BoolVar(&tokenShowQR, "qr", false, "print a QR code with the connection details")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is not configured; set it in the config file or ORDERHUB_AUTH_SECRET")
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := db.GetUser(ctx, tokenUserID)
	if err != nil {
		return fmt.Errorf("failed to look up user %s: %w", tokenUserID, err)
	}

	tm, err := security.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenExpirySecs)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	expiry := cfg.Auth.TokenExpirySecs
	if tokenExpirySecs > 0 {
		expiry = tokenExpirySecs
	}

	token, expiresAt, err := tm.IssueTokenWithExpiry(user.ID, user.Role, expiry)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Printf("User:    %s (%s)\n", user.ID, user.Role)
	fmt.Printf("Expires: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Printf("Token:   %s\n", token)

	if tokenShowQR {
		gen := pairing.NewQRGenerator(cfg.Server.Host, cfg.Server.HTTPPort)
		if cfg.Server.ExternalWSURL != "" {
			gen.SetExternalWSURL(cfg.Server.ExternalWSURL)
		}
		gen.SetToken(token)
		gen.PrintToTerminal()
	}

	return nil
}
