// gbones is the command line client of the staking economy node.
package main

import (
	"fmt"
	"os"

	"github.com/smolage/gbones/cmd/utils"
	"github.com/smolage/gbones/internal/flags"
	"github.com/smolage/gbones/params"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "gbones" // Client identifier to advertise over the network

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
)

var app = newApp()

func newApp() *cli.App {
	app := &cli.App{
		Name:    clientIdentifier,
		Usage:   "the smol bones staking economy node",
		Version: params.VersionWithCommit(gitCommit, gitDate),
		Flags:   flags.Merge(utils.LoggingFlags),
		Before: func(ctx *cli.Context) error {
			return utils.SetupLogging(ctx)
		},
		Commands: []*cli.Command{
			// See chaincmd.go:
			initCommand,
			// See stakecmd.go:
			execCommand,
			yardCommand,
			holdingsCommand,
			positionsCommand,
			eventsCommand,
			// See servecmd.go:
			serveCommand,
			// See consolecmd.go:
			consoleCommand,
			// See config.go:
			dumpConfigCommand,
			// See misccmd.go:
			versionCommand,
		},
	}
	app.Copyright = "Copyright 2022-2026 The gbones Authors"
	return app
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
