// Command portfolioctl runs maintenance and inspection tasks against the portfolio database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "config", "directory containing appsettings.yaml")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&migrateCmd{}, "database")
	commander.Register(&seedCmd{}, "database")
	commander.Register(&validateCmd{}, "ledger")
	commander.Register(&quoteCmd{}, "pricing")
	commander.Register(&snapshotCmd{}, "pricing")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
