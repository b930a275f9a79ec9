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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"kiosk-assistant/internal/chat"
	"kiosk-assistant/internal/kbdatabase"
	"kiosk-assistant/internal/kbstore"
)

var (
	importFrom string
	importTo   string
	exportTo   string
	statsJSON  bool
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge artifact",
}

var kbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a JSON knowledge artifact into a SQLite file",
	RunE:  runKBImport,
}

var kbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured knowledge source out as a JSON artifact",
	RunE:  runKBExport,
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Load the configured knowledge source and show per-document counts",
	RunE:  runKBStats,
}

func init() {
	kbImportCmd.Flags().StringVar(&importFrom, "from", "", "JSON knowledge artifact to read (required)")
	kbImportCmd.Flags().StringVar(&importTo, "to", "", "SQLite file to write (required)")
	_ = kbImportCmd.MarkFlagRequired("from")
	_ = kbImportCmd.MarkFlagRequired("to")

	kbExportCmd.Flags().StringVar(&exportTo, "to", "", "JSON file to write (required)")
	_ = kbExportCmd.MarkFlagRequired("to")

	kbStatsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print statistics as JSON")

	kbCmd.AddCommand(kbImportCmd, kbExportCmd, kbStatsCmd)
}

func runKBImport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()

	raw, err := kbstore.NewFileSource(importFrom).Load(cmd.Context())
	if err != nil {
		return err
	}

	// Validation here only reports; the store validates again on load
	entries, dims, dropped := kbstore.Validate(raw)
	if len(entries) == 0 {
		return fmt.Errorf("%s: %w", importFrom, kbstore.ErrNoValidEntries)
	}
	fmt.Fprintf(out, "Read %d chunks from %s (%d usable, %d dropped, %d dimensions)\n",
		len(raw), importFrom, len(entries), dropped, dims)

	db, err := kbdatabase.Open(importTo)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InsertChunks(raw); err != nil {
		return fmt.Errorf("failed to import chunks: %w", err)
	}

	stats, err := db.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read database statistics: %w", err)
	}
	fmt.Fprintf(out, "Imported into %s: %v chunks in total\n", importTo, stats["total_chunks"])
	return nil
}

func runKBExport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src := newKnowledgeSource(cfg.Knowledge)
	raw, err := src.Load(cmd.Context())
	if err != nil {
		return err
	}

	if err := kbstore.WriteFile(exportTo, raw); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d chunks from %s to %s\n", len(raw), src.Describe(), exportTo)
	return nil
}

func runKBStats(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store := kbstore.New(newKnowledgeSource(cfg.Knowledge))
	store.Load(cmd.Context())
	stats := store.Stats()

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintln(cmd.OutOrStdout(), chat.StatsTable(stats, false))
	if stats.Entries == 0 {
		return fmt.Errorf("no usable chunks in %s (see the log for details)", newKnowledgeSource(cfg.Knowledge).Describe())
	}
	return nil
}
