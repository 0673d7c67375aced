package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/prdforai/prdchat/src/export"
	"github.com/prdforai/prdchat/src/orchestrator"
)

// ExportCmd writes a conversation transcript to a markdown file.
type ExportCmd struct {
	ID     string `arg:"" optional:"" help:"Conversation id (defaults to the active one)"`
	Output string `short:"o" help:"Output path (defaults to a name derived from the title)"`
}

func (c *ExportCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger := createCLILogger(cfg.LogLevel)

	a, err := openApp(context.Background(), cli, orchestrator.NopNotifier{}, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	id := c.ID
	if id == "" {
		id = a.Store.ActiveID()
	}
	conv, ok := a.Store.Get(id)
	if !ok {
		return fmt.Errorf("no conversation with id %s", id)
	}

	path := c.Output
	if path == "" {
		path = export.DefaultFilename(conv, time.Now())
	}
	if err := export.WriteMarkdown(afero.NewOsFs(), path, conv); err != nil {
		return err
	}
	fmt.Printf("Exported %q to %s\n", conv.Title, path)
	return nil
}
