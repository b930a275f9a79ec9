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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"kiosk-assistant/internal/auth"
)

var (
	tokenID         string
	tokenAnnotation string
	tokenExpires    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens for kiosk clients",
}

var tokenAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new API token",
	RunE:  runTokenAdd,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API tokens",
	RunE:  runTokenList,
}

var tokenRemoveCmd = &cobra.Command{
	Use:   "remove <client-id|hash-prefix>",
	Short: "Remove an API token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenRemove,
}

func init() {
	tokenCmd.PersistentFlags().String("token-file", "", "Path to the API token file")

	tokenAddCmd.Flags().StringVar(&tokenID, "id", "", "Client ID (default: kiosk-<timestamp>)")
	tokenAddCmd.Flags().StringVarP(&tokenAnnotation, "note", "n", "", "Annotation, e.g. the kiosk location")
	tokenAddCmd.Flags().StringVarP(&tokenExpires, "expires", "e", "never", "Expiry such as 30d, 2w, 1y, or never")

	tokenCmd.AddCommand(tokenAddCmd, tokenListCmd, tokenRemoveCmd)
}

func tokenFile(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.HTTP.Auth.TokenFile == "" {
		return "", fmt.Errorf("no token file configured (use --token-file)")
	}
	return cfg.HTTP.Auth.TokenFile, nil
}

func runTokenAdd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := tokenFile(cmd)
	if err != nil {
		return err
	}

	var expiresAt *time.Time
	if tokenExpires != "" && tokenExpires != "never" {
		d, err := parseDuration(tokenExpires)
		if err != nil {
			return fmt.Errorf("invalid expiry: %w", err)
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	store, err := auth.LoadOrCreateTokenStore(path)
	if err != nil {
		return fmt.Errorf("failed to load token file: %w", err)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	hash := auth.HashToken(token)

	id := tokenID
	if id == "" {
		id = "kiosk-" + strconv.FormatInt(time.Now().Unix(), 10)
	}

	if err := store.AddToken(id, hash, tokenAnnotation, expiresAt); err != nil {
		return fmt.Errorf("failed to add token: %w", err)
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save token file: %w", err)
	}

	out := cmd.OutOrStdout()
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Token created successfully!")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "\nToken: %s\n", token)
	fmt.Fprintf(out, "Hash:  %s...\n", hash[:16])
	fmt.Fprintf(out, "ID:    %s\n", id)
	if tokenAnnotation != "" {
		fmt.Fprintf(out, "Note:  %s\n", tokenAnnotation)
	}
	if expiresAt != nil {
		fmt.Fprintf(out, "Expires: %s\n", expiresAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(out, "Expires: Never")
	}
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "\nIMPORTANT: Save this token securely - it will not be shown again!")
	fmt.Fprintln(out, "Use it in API requests with: Authorization: Bearer <token>")
	return nil
}

func runTokenList(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := tokenFile(cmd)
	if err != nil {
		return err
	}

	store, err := auth.LoadTokenStore(path)
	if err != nil {
		return fmt.Errorf("failed to load token file: %w", err)
	}

	tokens := store.ListTokens()
	if len(tokens) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tokens found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Hash", "Note", "Created", "Expires"})
	for _, tok := range tokens {
		expires := "Never"
		if tok.ExpiresAt != nil {
			expires = tok.ExpiresAt.Format("2006-01-02 15:04")
			if tok.Expired {
				expires += " (EXPIRED)"
			}
		}
		t.AppendRow(table.Row{tok.ID, tok.HashPrefix + "...", tok.Annotation, tok.CreatedAt.Format("2006-01-02"), expires})
	}
	t.Render()
	return nil
}

func runTokenRemove(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := tokenFile(cmd)
	if err != nil {
		return err
	}

	store, err := auth.LoadTokenStore(path)
	if err != nil {
		return fmt.Errorf("failed to load token file: %w", err)
	}

	if !store.RemoveToken(args[0]) {
		return fmt.Errorf("token not found: %s", args[0])
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save token file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Token removed: %s\n", args[0])
	return nil
}

// parseDuration parses durations like "30d", "1y", "2w", "12h"
func parseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration format")
	}

	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid number in duration: %w", err)
	}
	if num <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}

	day := 24 * time.Hour
	switch s[len(s)-1] {
	case 'h':
		return time.Duration(num) * time.Hour, nil
	case 'd':
		return time.Duration(num) * day, nil
	case 'w':
		return time.Duration(num) * 7 * day, nil
	case 'm':
		return time.Duration(num) * 30 * day, nil
	case 'y':
		return time.Duration(num) * 365 * day, nil
	default:
		return 0, fmt.Errorf("invalid duration unit: %c (use h, d, w, m, or y)", s[len(s)-1])
	}
}
