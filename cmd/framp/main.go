package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "framp",
		Usage: "Build gift and bill-payment transactions for Solana wallets",
		Description: `A command-line tool for the framp relayer.

Commands build unsigned transactions; signing and submitting them is left to
the wallet. Without --server the upstream APIs are called directly using
credentials from the environment (AIRBILLS_SECRET_KEY, SOLSCAN_API_KEY).
With --server the commands go through a relay server instead.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			giftCommand(),
			feeCommand(),
			airtimeCommand(),
			confirmCommand(),
			statusCommand(),
			describeCommand(),
			{
				Name:  "server",
				Usage: "Relay server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
				},
			},
			versionCommand(),
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Relay server URL; when empty, upstream APIs are called directly",
				EnvVars: []string{"FRAMP_SERVER_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "error",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "Filter JSON output with a jq expression (implies --json)",
			},
		},
	}
}
