// Command foxvalley runs the Fox Valley tactical engine, either once over
// CSV exports or as a service with an HTTP API, Kafka consumers and a
// scheduled daily brief
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&runCmd{}, "")
	commander.Register(&serveCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
