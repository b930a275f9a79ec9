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
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"kiosk-assistant/internal/querylog"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent questions from the query log",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", querylog.DefaultLimit, "Number of questions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := querylog.NewStore(cfg.QueryLog.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No questions recorded in %s\n", store.Path())
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Question", "Strategy", "Confidence", "Contacts", "Elapsed"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 60},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, e := range entries {
		strategy := e.Strategy
		if e.OutOfScope {
			strategy += " (out of scope)"
		}
		names := make([]string, 0, len(e.Contacts))
		for _, c := range e.Contacts {
			names = append(names, c.Name)
		}
		t.AppendRow(table.Row{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Query,
			strategy,
			fmt.Sprintf("%.2f", e.Confidence),
			strings.Join(names, ", "),
			e.Elapsed.Round(time.Millisecond),
		})
	}
	t.Render()
	return nil
}
