// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"

	"github.com/canonical/aaacfg/apiserver/params"
)

const watchDoc = `
Subscribe to the configuration change stream and print one line per
change until interrupted. Each line names the section and the fields
that changed; read the configuration back to pick up the new values.

Examples:

    aaacfg watch
`

func newWatchCommand() *watchCommand {
	return &watchCommand{}
}

// watchCommand streams change notifications.
type watchCommand struct {
	apiCommand
}

func (c *watchCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "watch",
		Purpose: "Stream AAA configuration change notifications.",
		Doc:     strings.TrimSpace(watchDoc),
	}
}

func (c *watchCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

func (c *watchCommand) Run(ctx *cmd.Context) error {
	client, err := c.client()
	if err != nil {
		return errors.Trace(err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, stop, err := client.WatchChanges(watchCtx)
	if err != nil {
		return errors.Trace(err)
	}
	defer stop()

	interrupted := make(chan os.Signal, 1)
	ctx.InterruptNotify(interrupted)
	defer ctx.StopInterruptNotify(interrupted)

	for {
		select {
		case <-interrupted:
			return nil
		case change, ok := <-changes:
			if !ok {
				return errors.New("change stream closed")
			}
			fmt.Fprintln(ctx.Stdout, formatChange(change))
		}
	}
}

// formatChange renders one notification line, for example
// "authentication: failthrough, login".
func formatChange(change params.ChangeNotification) string {
	if len(change.Fields) == 0 {
		return change.Section
	}
	return fmt.Sprintf("%s: %s", change.Section, strings.Join(change.Fields, ", "))
}
