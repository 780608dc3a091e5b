// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/juju/cmd/v3"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/aaacfg/apiserver/params"
	"github.com/canonical/aaacfg/core/aaa"
)

const showDoc = `
Show the resolved AAA configuration, annotated with whether each value
is stored explicitly or comes from a schema default.

With no argument every section is shown. With a section name only that
section is shown.

Examples:

    aaacfg show
    aaacfg show authentication
    aaacfg show accounting --format yaml
`

// Values of the FROM column.
const (
	sourceDefault  = "default"
	sourceExplicit = "explicit"
)

func newShowCommand() *showCommand {
	return &showCommand{}
}

// showCommand displays resolved configuration with provenance.
type showCommand struct {
	apiCommand

	out     cmd.Output
	section string
}

func (c *showCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "show",
		Args:    "[<section>]",
		Purpose: "Show resolved AAA configuration and where it comes from.",
		Doc:     strings.TrimSpace(showDoc),
	}
}

func (c *showCommand) SetFlags(f *gnuflag.FlagSet) {
	c.apiCommand.SetFlags(f)
	c.out.AddFlags(f, "tabular", map[string]cmd.Formatter{
		"yaml":    cmd.FormatYaml,
		"json":    cmd.FormatJson,
		"tabular": formatConfigTabular,
	})
}

func (c *showCommand) Init(args []string) error {
	section, err := cmd.ZeroOrOneArgs(args)
	if err != nil {
		return errors.Trace(err)
	}
	if section != "" {
		if _, err := aaa.ParseSection(section); err != nil {
			return errors.Trace(err)
		}
	}
	c.section = section
	return nil
}

func (c *showCommand) Run(ctx *cmd.Context) error {
	client, err := c.client()
	if err != nil {
		return errors.Trace(err)
	}

	var sections []params.SectionConfig
	if c.section == "" {
		if sections, err = client.Config(ctx); err != nil {
			return errors.Trace(err)
		}
	} else {
		section, err := client.SectionConfig(ctx, c.section)
		if err != nil {
			return errors.Trace(err)
		}
		sections = []params.SectionConfig{section}
	}
	return errors.Trace(c.out.Write(ctx, makeConfigDisplay(sections)))
}

// attributeValue pairs a resolved value with where it came from.
type attributeValue struct {
	Value  interface{} `yaml:"value" json:"value"`
	Source string      `yaml:"source" json:"source"`
}

// configDisplay maps section name to attribute name to annotated value.
type configDisplay map[string]map[string]attributeValue

func makeConfigDisplay(sections []params.SectionConfig) configDisplay {
	display := make(configDisplay, len(sections))
	for _, section := range sections {
		explicit := set.NewStrings(section.Explicit...)
		attrs := map[string]attributeValue{
			aaa.FieldLogin: {
				Value:  methodsValue(section.Methods),
				Source: provenance(explicit.Contains(aaa.FieldLogin)),
			},
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
			if flag.value == nil {
				continue
			}
			attrs[flag.name] = attributeValue{
				Value:  *flag.value,
				Source: provenance(explicit.Contains(flag.name)),
			}
		}
		display[section.Section] = attrs
	}
	return display
}

func methodsValue(methods []string) []string {
	if methods == nil {
		return []string{}
	}
	return methods
}

func provenance(explicit bool) string {
	if explicit {
		return sourceExplicit
	}
	return sourceDefault
}

// formatConfigTabular renders one ATTRIBUTE / FROM / VALUE row per
// attribute, sections in canonical order.
func formatConfigTabular(writer io.Writer, value interface{}) error {
	display, ok := value.(configDisplay)
	if !ok {
		return errors.Errorf("expected value of type %T, got %T", display, value)
	}

	tw := tabwriter.NewWriter(writer, 0, 1, 1, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tFROM\tVALUE")
	for _, section := range aaa.Sections() {
		attrs, ok := display[string(section)]
		if !ok {
			continue
		}
		for _, field := range aaa.FieldsFor(section) {
			attr, ok := attrs[field]
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "%s.%s\t%s\t%s\n", section, field, attr.Source, renderAttr(attr.Value))
		}
	}
	return tw.Flush()
}

// renderAttr renders one VALUE cell. Method lists are comma joined,
// with "-" standing in for the empty list.
func renderAttr(value interface{}) string {
	switch v := value.(type) {
	case []string:
		if len(v) == 0 {
			return "-"
		}
		return strings.Join(v, ",")
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", value)
}
