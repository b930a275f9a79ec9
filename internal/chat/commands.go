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
	"strings"
)

// SlashCommand represents a parsed slash command
type SlashCommand struct {
	Command string
	Args    []string
}

// ParseSlashCommand parses a slash command from user input
func ParseSlashCommand(input string) *SlashCommand {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := parseQuotedArgs(strings.TrimPrefix(input, "/"))
	if len(parts) == 0 {
		return nil
	}

	return &SlashCommand{
		Command: strings.ToLower(parts[0]),
		Args:    parts[1:],
	}
}

// parseQuotedArgs splits a string into arguments, respecting quoted strings
func parseQuotedArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case (r == '"' || r == '\'') && !inQuote:
			inQuote = true
			quoteChar = r
		case r == quoteChar && inQuote:
			inQuote = false
			quoteChar = 0
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && inQuote && i+1 < len(runes):
			next := runes[i+1]
			if next == quoteChar || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}

// commandResult tells the chat loop what to do after a slash command
type commandResult int

const (
	commandUnknown commandResult = iota
	commandHandled
	commandQuit
)

// HandleSlashCommand processes a slash command
func (c *Client) HandleSlashCommand(ctx context.Context, cmd *SlashCommand) commandResult {
	if cmd == nil {
		return commandUnknown
	}

	switch cmd.Command {
	case "help":
		c.ui.PrintHelp()

	case "quit", "exit":
		return commandQuit

	case "clear":
		c.ui.ClearScreen()

	case "stats":
		if c.store == nil {
			c.ui.PrintError("no knowledge store attached")
			break
		}
		c.store.Load(ctx)
		c.ui.PrintStats(c.store.Stats())

	case "sources":
		c.printLastSources()

	case "markdown":
		c.handleMarkdown(cmd.Args)

	default:
		return commandUnknown
	}

	return commandHandled
}

func (c *Client) printLastSources() {
	if c.last == nil {
		c.ui.PrintSystemMessage("No question asked yet")
		return
	}
	if len(c.last.Sources) == 0 {
		c.ui.PrintSystemMessage("The last answer did not come from the documents")
		return
	}
	for i, s := range c.last.Sources {
		c.ui.PrintSystemMessage(fmt.Sprintf("%d. %s, page %d", i+1, s.Source, s.Page))
	}
}

func (c *Client) handleMarkdown(args []string) {
	if len(args) != 1 {
		c.ui.PrintError("Usage: /markdown on|off")
		return
	}

	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		c.ui.RenderMarkdown = true
	case "off", "false", "0":
		c.ui.RenderMarkdown = false
	default:
		c.ui.PrintError(fmt.Sprintf("Invalid value %q (use on or off)", args[0]))
		return
	}
	if c.ui.RenderMarkdown {
		c.ui.PrintSystemMessage("Markdown rendering enabled")
	} else {
		c.ui.PrintSystemMessage("Markdown rendering disabled")
	}
}
