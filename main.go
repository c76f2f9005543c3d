package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	configFlag     = "config"
	logLevelFlag   = "log-level"
	logFormatFlag  = "log-format"
	formatFlag     = "format"
	noCacheFlag    = "no-cache"
	tournamentFlag = "tournament"
	playerFlag     = "id"
	kindFlag       = "kind"
	outputFlag     = "output"
	severityFlag   = "severity"
)

var build string
var semanticVersion = "v0.1.0-dev" + build

func main() {
	app := &cli.App{
		Name:    "whistledger",
		Usage:   "Standings, career statistics, and seed rankings from whist drive scorecards",
		Version: semanticVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
			},
			&cli.StringFlag{
				Name:  logLevelFlag,
				Usage: "Log level: debug, info, warn, or error",
			},
			&cli.StringFlag{
				Name:  logFormatFlag,
				Usage: "Log format: console or json",
			},
			&cli.StringFlag{
				Name:    formatFlag,
				Aliases: []string{"f"},
				Usage:   "Output format: table, yaml, or json",
			},
			&cli.BoolFlag{
				Name:  noCacheFlag,
				Usage: "Always recompute instead of reusing cached statistics",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "process",
				Usage:  "Run a full pass over the configured sheets and update the cache",
				Action: processAction,
			},
			{
				Name:  "standings",
				Usage: "Show a tournament's final standings, or list tournaments",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    tournamentFlag,
						Aliases: []string{"t"},
						Usage:   "Tournament id",
					},
				},
				Action: standingsAction,
			},
			{
				Name:   "rankings",
				Usage:  "Show the official seed rankings",
				Action: rankingsAction,
			},
			{
				Name:  "player",
				Usage: "Show a player's career, history, and partners",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     playerFlag,
						Usage:    "Player id or any known name",
						Required: true,
					},
				},
				Action: playerAction,
			},
			{
				Name:  "issues",
				Usage: "List the data issues found in the sheets",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  severityFlag,
						Usage: "Only show issues of this severity (warning or error)",
					},
				},
				Action: issuesAction,
			},
			{
				Name:  "export",
				Usage: "Write the raw or stats cache document",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  kindFlag,
						Usage: "Document kind: raw or stats",
						Value: "stats",
					},
					&cli.StringFlag{
						Name:    outputFlag,
						Aliases: []string{"o"},
						Usage:   "The location to write the document. Can be a file path or \"-\" (for stdout).",
						Value:   "-",
					},
				},
				Action: exportAction,
			},
			{
				Name:   "hash",
				Usage:  "Print the content hash of the configured sheets",
				Action: hashAction,
			},
			{
				Name:      "init-config",
				Usage:     "Write a sample configuration file",
				ArgsUsage: "[path]",
				Action:    initConfigAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
