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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/config"
	"kiosk-assistant/internal/logging"
)

var (
	configFile string
	logLevel   string

	knowledgeSource string
	knowledgePath   string
	knowledgeDSN    string
	embeddingOn     bool
	llmOn           bool
	routingTables   string
	queryLogOn      bool
	queryLogPath    string
)

var rootCmd = &cobra.Command{
	Use:   "kiosk-assistant",
	Short: "DGADR kiosk assistant - answers visitor questions from the agency's documents",
	Long: `kiosk-assistant answers questions typed at the DGADR reception kiosk.

Answers are grounded in a pre-built knowledge artifact of document chunks
with embeddings. Questions are ranked semantically when an embedding
provider is configured, and by keyword overlap otherwise; phone directory
hits are turned into structured contacts, and every answer is routed to
the right DGADR division or external entity.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		level, ok := logging.ParseLevel(logLevel)
		if !ok {
			return fmt.Errorf("invalid log level %q (use debug, info, warn or error)", logLevel)
		}
		logging.SetLevel(level)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides KIOSK_LOG_LEVEL)")
	pf.StringVar(&knowledgeSource, "source", "", "Knowledge source: json, sqlite or postgres")
	pf.StringVarP(&knowledgePath, "knowledge", "k", "", "Knowledge artifact path (JSON or SQLite)")
	pf.StringVar(&knowledgeDSN, "dsn", "", "PostgreSQL connection string for the postgres source")
	pf.BoolVar(&embeddingOn, "embedding", false, "Enable semantic ranking through the embedding provider")
	pf.BoolVar(&llmOn, "llm", false, "Enable answer generation through the LLM provider")
	pf.StringVar(&routingTables, "routing-tables", "", "YAML file replacing the built-in routing tables")
	pf.BoolVar(&queryLogOn, "query-log", false, "Record every question in the query log")
	pf.StringVar(&queryLogPath, "query-log-path", "", "Query log SQLite file")

	rootCmd.AddCommand(serveCmd, mcpCmd, chatCmd, askCmd, kbCmd, historyCmd, tokenCmd)
}

func main() {
	// Usage is shown for flag parse errors; commands set SilenceUsage for runtime errors
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the configuration file and applies explicitly set flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cli := config.CLIFlags{
		ConfigFileSet:        flags.Changed("config"),
		ConfigFile:           configFile,
		KnowledgeSource:      knowledgeSource,
		KnowledgeSourceSet:   flags.Changed("source"),
		KnowledgePath:        knowledgePath,
		KnowledgePathSet:     flags.Changed("knowledge"),
		KnowledgeDSN:         knowledgeDSN,
		KnowledgeDSNSet:      flags.Changed("dsn"),
		EmbeddingEnabled:     embeddingOn,
		EmbeddingEnabledSet:  flags.Changed("embedding"),
		LLMEnabled:           llmOn,
		LLMEnabledSet:        flags.Changed("llm"),
		RoutingTablesFile:    routingTables,
		RoutingTablesFileSet: flags.Changed("routing-tables"),
		QueryLogEnabled:      queryLogOn,
		QueryLogEnabledSet:   flags.Changed("query-log"),
		QueryLogPath:         queryLogPath,
		QueryLogPathSet:      flags.Changed("query-log-path"),
	}

	// Serve-only flags are looked up by name since not every command has them
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cli.HTTPAddr, cli.HTTPAddrSet = f.Value.String(), true
	}
	if f := flags.Lookup("no-auth"); f != nil && f.Changed {
		cli.AuthEnabled, cli.AuthEnabledSet = f.Value.String() != "true", true
	}
	if f := flags.Lookup("token-file"); f != nil && f.Changed {
		cli.AuthTokenFile, cli.AuthTokenSet = f.Value.String(), true
	}

	path := configFile
	if path == "" {
		exePath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		path = config.GetDefaultConfigPath(exePath)
	}

	cfg, err := config.LoadConfig(path, cli)
	if err != nil {
		return nil, err
	}
	logging.Debug("configuration loaded", "path", filepath.Clean(path), "source", cfg.Knowledge.Source)
	return cfg, nil
}
