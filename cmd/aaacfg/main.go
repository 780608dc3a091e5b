// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// aaacfg is the command line client of the AAA configuration daemon.
package main

import (
	"fmt"
	"os"

	"github.com/juju/cmd/v3"

	"github.com/canonical/aaacfg/version"
)

var cliDoc = `
aaacfg reads and writes the AAA (authentication, authorization and
accounting) configuration served by aaacfgd.

The daemon address is taken from the --addr flag, then from the
AAACFG_ADDR environment variable, then defaults to localhost:17940.
`

// Main sets up the supercommand and runs it with the given args. It
// exists separately from main so tests can drive it with arbitrary
// arguments.
func Main(args []string) int {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	return cmd.Main(newCLICommand(), ctx, args[1:])
}

func newCLICommand() cmd.Command {
	cli := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "aaacfg",
		Doc:     cliDoc,
		Purpose: "manage AAA configuration",
		Log:     &cmd.Log{},
		Version: version.Current,
	})
	cli.Register(newShowCommand())
	cli.Register(newGetCommand())
	cli.Register(newSetCommand())
	cli.Register(newResetCommand())
	cli.Register(newWatchCommand())
	return cli
}

func main() {
	os.Exit(Main(os.Args))
}
