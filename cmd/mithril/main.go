package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mithril-vault/mithril/internal/config"
	"github.com/mithril-vault/mithril/internal/log"
	"github.com/mithril-vault/mithril/internal/version"
)

func main() {
	cmd := &cli.Command{
		Name:  "mithril",
		Usage: "Manage encrypted gocryptfs volumes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
				Value:   config.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:  "tool",
				Usage: "Encryption tool binary",
			},
			&cli.StringFlag{
				Name:  "profiles",
				Usage: "Profile store path",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Per-operation timeout in seconds",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "version",
				Aliases: []string{"V"},
				Usage:   "Print version information",
			},
		},
		Commands: []*cli.Command{
			addCommand(),
			listCommand(),
			removeCommand(),
			initCommand(),
			mountCommand(),
			unmountCommand(),
			deleteCommand(),
			terminalCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Println(version.String())
				return nil
			}
			return cli.ShowAppHelp(cmd)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file, merges CLI flags, and applies
// defaults, in the same precedence order for every subcommand.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	log.Setup(cmd.Bool("verbose"))

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Merge(
		cmd.String("tool"),
		cmd.String("profiles"),
		int(cmd.Int("timeout")),
	)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
