package main

import (
	"context"
	"fmt"
)

// ChatCmd runs the interactive chat session.
type ChatCmd struct{}

// Run starts the REPL against the active conversation.
func (c *ChatCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger := createChatLogger(cfg.LogLevel)

	repl := newREPL(logger)
	a, err := openApp(context.Background(), cli, repl, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close()

	return repl.run(context.Background(), a)
}
