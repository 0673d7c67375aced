package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/prdforai/prdchat/src/apiclient"
)

// ModelsCmd lists the models the backend offers.
type ModelsCmd struct {
	Format string `help:"Output format (table, json)" default:"table"`
}

func (c *ModelsCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger := createCLILogger(cfg.LogLevel)

	client := apiclient.NewClient(apiclient.Config{
		BaseURL:   cfg.BaseURL,
		AuthToken: cfg.AuthToken,
		Logger:    logger,
	})

	models, err := client.ListModels(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	switch c.Format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMAX TOKENS\tDESCRIPTION")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.ID, m.Name, m.MaxTokens, m.Description)
		}
		return w.Flush()
	default:
		return fmt.Errorf("invalid format: %s", c.Format)
	}
}
