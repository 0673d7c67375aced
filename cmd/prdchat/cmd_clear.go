package main

import (
	"context"
	"fmt"

	"github.com/prdforai/prdchat/src/orchestrator"
)

// ClearCmd wipes all persisted conversations and settings.
type ClearCmd struct {
	Force bool `help:"Skip the confirmation prompt"`
}

func (c *ClearCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger := createCLILogger(cfg.LogLevel)

	if !c.Force {
		fmt.Print("Delete all conversations and settings? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	a, err := openApp(context.Background(), cli, orchestrator.NopNotifier{}, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Codec.ClearAll()
	fmt.Println("All persisted data deleted.")
	return nil
}
