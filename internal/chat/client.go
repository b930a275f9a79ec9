/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Terminal Chat
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package chat is an interactive terminal front end to the assistant,
// used by staff to try questions before they reach the kiosk screen
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
)

// Answerer answers a kiosk question
type Answerer interface {
	ProcessQuery(ctx context.Context, query string) kbtypes.Answer
}

// Client runs the chat loop
type Client struct {
	answerer    Answerer
	store       *kbstore.Store
	ui          *UI
	historyFile string

	// ShowThinking animates while a question is answered
	ShowThinking bool

	last *kbtypes.Answer
}

// NewClient creates a chat client. store may be nil.
func NewClient(answerer Answerer, store *kbstore.Store, ui *UI, historyFile string) *Client {
	return &Client{
		answerer:     answerer,
		store:        store,
		ui:           ui,
		historyFile:  historyFile,
		ShowThinking: true,
	}
}

// Run loads the knowledge base and runs the interactive loop until the
// user quits or ctx is cancelled
func (c *Client) Run(ctx context.Context) error {
	entries := 0
	if c.store != nil {
		c.store.Load(ctx)
		entries = c.store.Len()
	}
	c.ui.PrintWelcome(entries)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            c.ui.GetPrompt(),
		HistoryFile:       c.historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				c.ui.PrintSystemMessage("Goodbye!")
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		if c.HandleInput(ctx, line) {
			c.ui.PrintSystemMessage("Goodbye!")
			return nil
		}
	}
}

// HandleInput processes one line of input and reports whether the user
// asked to quit
func (c *Client) HandleInput(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	if cmd := ParseSlashCommand(input); cmd != nil {
		switch c.HandleSlashCommand(ctx, cmd) {
		case commandQuit:
			return true
		case commandUnknown:
			c.ui.PrintError(fmt.Sprintf("Unknown command: /%s (type /help for available commands)", cmd.Command))
		}
		return false
	}

	c.Ask(ctx, input)
	c.ui.PrintSeparator()
	return false
}

// Ask answers one question and prints the answer
func (c *Client) Ask(ctx context.Context, question string) kbtypes.Answer {
	var answer kbtypes.Answer
	if c.ShowThinking {
		done := make(chan struct{})
		finished := make(chan struct{})
		go func() {
			c.ui.ShowThinking(ctx, done)
			close(finished)
		}()
		answer = c.answerer.ProcessQuery(ctx, question)
		close(done)
		<-finished
	} else {
		answer = c.answerer.ProcessQuery(ctx, question)
	}

	c.last = &answer
	c.ui.PrintAnswer(answer)
	return answer
}
