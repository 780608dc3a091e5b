// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/aaacfg/apiserver/params"
	"github.com/canonical/aaacfg/core/aaa"
)

const getDoc = `
Print the resolved value of one attribute of a section, or every
attribute of the section when no key is given.

Examples:

    aaacfg get authentication login
    aaacfg get authentication
    aaacfg get accounting --format json
`

func newGetCommand() *getCommand {
	return &getCommand{}
}

// getCommand prints resolved values without provenance.
type getCommand struct {
	apiCommand

	out     cmd.Output
	section string
	key     string
}

func (c *getCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "get",
		Args:    "<section> [<key>]",
		Purpose: "Print resolved AAA configuration values.",
		Doc:     strings.TrimSpace(getDoc),
	}
}

func (c *getCommand) SetFlags(f *gnuflag.FlagSet) {
	c.apiCommand.SetFlags(f)
	c.out.AddFlags(f, "smart", cmd.DefaultFormatters.Formatters())
}

func (c *getCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no section specified")
	}
	if len(args) > 2 {
		return cmd.CheckEmpty(args[2:])
	}
	if _, err := aaa.ParseSection(args[0]); err != nil {
		return errors.Trace(err)
	}
	c.section = args[0]
	if len(args) == 2 {
		c.key = args[1]
	}
	return nil
}

func (c *getCommand) Run(ctx *cmd.Context) error {
	client, err := c.client()
	if err != nil {
		return errors.Trace(err)
	}
	section, err := client.SectionConfig(ctx, c.section)
	if err != nil {
		return errors.Trace(err)
	}
	attrs := sectionValues(section)
	if c.key == "" {
		return errors.Trace(c.out.Write(ctx, attrs))
	}
	value, ok := attrs[c.key]
	if !ok {
		return errors.Errorf("key %q not found in section %q", c.key, c.section)
	}
	return errors.Trace(c.out.Write(ctx, value))
}

// sectionValues flattens a section into attribute name to value.
func sectionValues(section params.SectionConfig) map[string]interface{} {
	attrs := map[string]interface{}{
		aaa.FieldLogin: methodsValue(section.Methods),
	}
	for _, flag := range []struct {
		name  string
		value *bool
	}{
		{aaa.FieldFailthrough, section.Failthrough},
		{aaa.FieldFallback, section.Fallback},
		{aaa.FieldDebug, section.Debug},
		{aaa.FieldTrace, section.Trace},
	} {
		if flag.value != nil {
			attrs[flag.name] = *flag.value
		}
	}
	return attrs
}
