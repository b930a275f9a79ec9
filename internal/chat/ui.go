/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Terminal Chat
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
)

// maxRenderWidth caps markdown wrapping on wide terminals
const maxRenderWidth = 120

// UI handles the terminal output
type UI struct {
	out            io.Writer
	noColor        bool
	RenderMarkdown bool

	prompt  *color.Color
	label   *color.Color
	system  *color.Color
	failure *color.Color
	muted   *color.Color
}

// NewUI creates a UI writing to out
func NewUI(out io.Writer, noColor bool, renderMarkdown bool) *UI {
	ui := &UI{
		out:            out,
		noColor:        noColor,
		RenderMarkdown: renderMarkdown,
		prompt:         color.New(color.FgGreen, color.Bold),
		label:          color.New(color.FgBlue, color.Bold),
		system:         color.New(color.FgYellow),
		failure:        color.New(color.FgRed, color.Bold),
		muted:          color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{ui.prompt, ui.label, ui.system, ui.failure, ui.muted} {
			c.DisableColor()
		}
	}
	return ui
}

// PrintWelcome prints the welcome banner
func (ui *UI) PrintWelcome(entries int) {
	fmt.Fprintln(ui.out, ui.label.Sprint("DGADR Kiosk Assistant"))
	fmt.Fprintln(ui.out, ui.muted.Sprintf("%d knowledge chunks loaded. Type /help for commands, /quit to leave.", entries))
	fmt.Fprintln(ui.out)
}

// GetPrompt returns the prompt string for readline
func (ui *UI) GetPrompt() string {
	return ui.prompt.Sprint("Pergunta: ")
}

// PrintAnswer prints an answer followed by its contacts and sources
func (ui *UI) PrintAnswer(answer kbtypes.Answer) {
	fmt.Fprintln(ui.out)
	fmt.Fprint(ui.out, ui.label.Sprint("Assistente: "))
	ui.printText(answer.Answer)

	if len(answer.Contacts) > 0 {
		fmt.Fprintln(ui.out)
		fmt.Fprintln(ui.out, ContactsTable(answer.Contacts, !ui.noColor))
	}

	details := []string{"strategy " + answer.Strategy}
	if answer.Confidence > 0 {
		details = append(details, fmt.Sprintf("confidence %.2f", answer.Confidence))
	}
	if answer.OutOfScope {
		details = append(details, "out of scope")
	}
	for _, s := range answer.Sources {
		details = append(details, fmt.Sprintf("%s p.%d", s.Source, s.Page))
	}
	fmt.Fprintln(ui.out, ui.muted.Sprint(strings.Join(details, " · ")))
}

// printText renders markdown when enabled and falls back to plain text
func (ui *UI) printText(s string) {
	if ui.RenderMarkdown {
		style := "dark"
		if ui.noColor {
			style = "notty"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath(style),
			glamour.WithWordWrap(min(terminalWidth(), maxRenderWidth)),
		)
		if err == nil {
			if rendered, err := r.Render(s); err == nil {
				fmt.Fprint(ui.out, rendered)
				return
			}
		}
	}
	fmt.Fprintln(ui.out, s)
}

// PrintSystemMessage prints a system message
func (ui *UI) PrintSystemMessage(s string) {
	fmt.Fprintln(ui.out, ui.system.Sprint("System: ")+s)
}

// PrintError prints an error message
func (ui *UI) PrintError(s string) {
	fmt.Fprintln(ui.out, ui.failure.Sprint("Error: ")+s)
}

// PrintSeparator prints a separator line
func (ui *UI) PrintSeparator() {
	fmt.Fprintln(ui.out, ui.muted.Sprint(strings.Repeat("─", min(terminalWidth(), 80))))
}

// PrintHelp prints the help message
func (ui *UI) PrintHelp() {
	fmt.Fprintln(ui.out, `
Ask any question about DGADR services in plain Portuguese.

Commands:
  /help              Show this help message
  /stats             Show the loaded knowledge base
  /sources           Show the sources of the last answer
  /markdown on|off   Toggle markdown rendering
  /clear             Clear the screen
  /quit, /exit       Leave the chat

History:
  Up/Down            Navigate through previous questions
  Ctrl+R             Reverse search history`)
}

// PrintStats prints knowledge store statistics
func (ui *UI) PrintStats(stats kbstore.Stats) {
	fmt.Fprintln(ui.out, StatsTable(stats, !ui.noColor))
}

// ClearScreen clears the terminal screen
func (ui *UI) ClearScreen() {
	fmt.Fprint(ui.out, "\033[H\033[2J")
}

var thinkingActions = []string{
	"A consultar os documentos",
	"A procurar o contacto certo",
	"A ler a lista telefónica",
	"A preparar a resposta",
}

// ShowThinking animates a spinner until done is closed or ctx ends
func (ui *UI) ShowThinking(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	width := 0
	for _, a := range thinkingActions {
		width = max(width, len(a)+6)
	}
	blank := "\r" + strings.Repeat(" ", width) + "\r"

	for tick := 0; ; tick++ {
		action := thinkingActions[(tick/12)%len(thinkingActions)]
		fmt.Fprint(ui.out, "\r"+ui.label.Sprint(frames[tick%len(frames)])+" "+ui.muted.Sprint(action+"..."))

		select {
		case <-done:
			fmt.Fprint(ui.out, blank)
			return
		case <-ctx.Done():
			fmt.Fprint(ui.out, blank)
			return
		case <-ticker.C:
		}
	}
}

// ContactsTable renders contacts as a table
func ContactsTable(contacts []kbtypes.Contact, colored bool) string {
	t := newTable(colored)
	t.AppendHeader(table.Row{"Contact", "Phone", "Email", "Department"})
	for _, c := range contacts {
		t.AppendRow(table.Row{c.Name, c.Phone, c.Email, c.Department})
	}
	return t.Render()
}

// StatsTable renders per-source chunk counts
func StatsTable(stats kbstore.Stats, colored bool) string {
	t := newTable(colored)
	t.SetTitle(fmt.Sprintf("Knowledge base: %d chunks, %d dimensions", stats.Entries, stats.Dimensions))
	t.AppendHeader(table.Row{"Source", "Chunks"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	for _, s := range stats.Sources {
		t.AppendRow(table.Row{s.Source, s.Chunks})
	}
	t.AppendFooter(table.Row{"Total", stats.Entries})
	return t.Render()
}

func newTable(colored bool) table.Writer {
	t := table.NewWriter()
	if colored {
		t.SetStyle(table.StyleColoredBright)
	} else {
		t.SetStyle(table.StyleLight)
	}
	return t
}

// terminalWidth returns the stdout width, or 80 when it is not a terminal
func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 2 {
		return width - 2
	}
	return 80
}
