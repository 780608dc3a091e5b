// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"

	"github.com/canonical/aaacfg/core/aaa"
)

const resetDoc = `
Reset every attribute of a section to its schema default. The stored
row is deleted, so later reads resolve entirely from defaults.

Examples:

    aaacfg reset accounting
`

func newResetCommand() *resetCommand {
	return &resetCommand{}
}

// resetCommand returns a whole section to defaults.
type resetCommand struct {
	apiCommand

	section string
}

func (c *resetCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "reset",
		Args:    "<section>",
		Purpose: "Reset a whole AAA section to its defaults.",
		Doc:     strings.TrimSpace(resetDoc),
	}
}

func (c *resetCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no section specified")
	}
	if _, err := aaa.ParseSection(args[0]); err != nil {
		return errors.Trace(err)
	}
	c.section = args[0]
	return cmd.CheckEmpty(args[1:])
}

func (c *resetCommand) Run(ctx *cmd.Context) error {
	client, err := c.client()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(client.ResetSection(ctx, c.section))
}
