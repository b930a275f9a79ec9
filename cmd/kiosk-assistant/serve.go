/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/api"
	"kiosk-assistant/internal/auth"
	"kiosk-assistant/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the kiosk HTTP API and MCP endpoint",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (default :8080)")
	serveCmd.Flags().Bool("no-auth", false, "Disable bearer token authentication")
	serveCmd.Flags().String("token-file", "", "Path to the API token file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var tokens *auth.TokenStore
	if cfg.HTTP.Auth.Enabled {
		tokens, err = auth.LoadTokenStore(cfg.HTTP.Auth.TokenFile)
		if err != nil {
			return fmt.Errorf("failed to load token file: %w", err)
		}
		if err := tokens.StartWatching(); err != nil {
			logging.Warn("token file will not be reloaded", "path", tokens.Path(), "error", err)
		}
		defer tokens.StopWatching()
	}

	// Load eagerly so the first visitor does not pay for it
	a.store.Load(ctx)

	server := api.NewServer(api.Config{
		Answerer:           a.orchestrator,
		Store:              a.store,
		MCP:                a.mcpServer(),
		AuthEnabled:        cfg.HTTP.Auth.Enabled,
		Tokens:             tokens,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	})

	fmt.Fprintf(cmd.ErrOrStderr(), "Kiosk assistant listening on %s (%d knowledge chunks)\n", cfg.HTTP.Address, a.store.Len())
	return server.ListenAndServe(ctx, cfg.HTTP.Address)
}
