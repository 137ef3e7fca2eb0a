// Command liqctl computes the global liquidity table from the command line.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"GlobalLiquidity/internal/di"
	"GlobalLiquidity/pkg/config"

	"github.com/google/subcommands"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults and environment when empty)")

	open := func() (engine, error) {
		cfg, err := config.LoadWithEnv(*configPath)
		if err != nil {
			return nil, err
		}
		// stdout carries the table
		cfg.Logging.Output = "stderr"
		return di.InitializeEngine(cfg)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands(open, os.Stdout, os.Stderr) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
