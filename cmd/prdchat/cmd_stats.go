package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/prdforai/prdchat/src/orchestrator"
)

// StatsCmd reports how much persisted data each storage key holds.
type StatsCmd struct{}

func (c *StatsCmd) Run(cli *CLI) error {
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

	conversations := a.Store.Conversations()
	messages := 0
	for _, conv := range conversations {
		messages += len(conv.Messages)
	}
	fmt.Printf("Conversations: %d\nMessages: %d\n\n", len(conversations), messages)

	usage := a.Codec.Usage()
	keys := make([]string, 0, len(usage))
	for key := range usage {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tBYTES")
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%d\n", key, usage[key])
	}
	return w.Flush()
}
