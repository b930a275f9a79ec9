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
	"encoding/json"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/chat"
)

var (
	noColor    bool
	noMarkdown bool
	askJSON    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively in the terminal",
	RunE:  runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	for _, c := range []*cobra.Command{chatCmd, askCmd} {
		c.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
		c.Flags().BoolVar(&noMarkdown, "no-markdown", false, "Print answers as plain text")
	}
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the answer as JSON")
}

func newUI(cmd *cobra.Command, noColorCfg, renderMarkdown bool) *chat.UI {
	return chat.NewUI(cmd.OutOrStdout(), noColor || noColorCfg, renderMarkdown && !noMarkdown)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	ui := newUI(cmd, cfg.Chat.NoColor, cfg.Chat.RenderMarkdown)
	return chat.NewClient(a.orchestrator, a.store, ui, cfg.Chat.HistoryFile).Run(ctx)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.Join(args, " ")
	if askJSON {
		answer := a.orchestrator.ProcessQuery(cmd.Context(), question)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	ui := newUI(cmd, cfg.Chat.NoColor, cfg.Chat.RenderMarkdown)
	client := chat.NewClient(a.orchestrator, a.store, ui, "")
	client.ShowThinking = false
	client.Ask(cmd.Context(), question)
	return nil
}
