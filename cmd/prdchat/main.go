package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the top-level command structure.
type CLI struct {
	Config    string `help:"Path to the config file" type:"path"`
	BaseURL   string `help:"Backend base URL (overrides config)"`
	AuthToken string `env:"PRDCHAT_AUTH_TOKEN" help:"Bearer token for the backend"`
	LogLevel  string `help:"Log level (debug, info, warn, error)"`

	Chat   ChatCmd   `cmd:"" default:"1" help:"Interactive chat session (default)"`
	Export ExportCmd `cmd:"" help:"Export a conversation to markdown"`
	Models ModelsCmd `cmd:"" help:"List the models the backend offers"`
	Stats  StatsCmd  `cmd:"" help:"Show persisted storage usage"`
	Clear  ClearCmd  `cmd:"" help:"Delete all persisted conversations and settings"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("prdchat"),
		kong.Description("Terminal client for the PRD For AI backend"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
