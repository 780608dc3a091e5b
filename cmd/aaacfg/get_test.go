// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/cmd/v3/cmdtesting"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/aaacfg/apiserver/params"
)

type getSuite struct {
	baseSuite
}

var _ = gc.Suite(&getSuite{})

func (s *getSuite) run(c *gc.C, args ...string) (*cmd.Context, error) {
	command := newGetCommand()
	s.inject(&command.apiCommand)
	return cmdtesting.RunCommand(c, command, args...)
}

func (s *getSuite) TestGetMethodList(c *gc.C) {
	s.client.section = params.SectionConfig{
		Section:  "authentication",
		Methods:  []string{"TACACS_ALL", "LOCAL"},
		Explicit: []string{"login"},
	}
	ctx, err := s.run(c, "authentication", "login")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), gc.Equals, "TACACS_ALL\nLOCAL\n")
}

func (s *getSuite) TestGetFlag(c *gc.C) {
	s.client.section = params.SectionConfig{
		Section:     "authentication",
		Methods:     []string{},
		Failthrough: boolPtr(true),
		Fallback:    boolPtr(false),
		Debug:       boolPtr(false),
		Trace:       boolPtr(false),
	}
	ctx, err := s.run(c, "authentication", "failthrough")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), gc.Equals, "True\n")
}

func (s *getSuite) TestGetWholeSection(c *gc.C) {
	s.client.section = params.SectionConfig{
		Section:  "authorization",
		Methods:  []string{"RADIUS_ALL"},
		Explicit: []string{"login"},
	}
	ctx, err := s.run(c, "authorization")
	c.Assert(err, jc.ErrorIsNil)
	s.client.stub.CheckCalls(c, []jujutesting.StubCall{
		{FuncName: "SectionConfig", Args: []interface{}{"authorization"}},
	})
	c.Assert(cmdtesting.Stdout(ctx), jc.YAMLEquals, map[string]interface{}{
		"login": []string{"RADIUS_ALL"},
	})
}

func (s *getSuite) TestGetKeyJSON(c *gc.C) {
	s.client.section = params.SectionConfig{
		Section: "accounting",
		Methods: []string{"TACACS_ALL"},
	}
	ctx, err := s.run(c, "accounting", "login", "--format", "json")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), jc.JSONEquals, []string{"TACACS_ALL"})
}

func (s *getSuite) TestGetKeyNotFound(c *gc.C) {
	s.client.section = params.SectionConfig{
		Section: "accounting",
		Methods: []string{},
	}
	_, err := s.run(c, "accounting", "debug")
	c.Assert(err, gc.ErrorMatches, `key "debug" not found in section "accounting"`)
}

func (s *getSuite) TestGetNoSection(c *gc.C) {
	_, err := s.run(c)
	c.Assert(err, gc.ErrorMatches, "no section specified")
}

func (s *getSuite) TestGetUnknownSection(c *gc.C) {
	_, err := s.run(c, "audit")
	c.Assert(err, gc.ErrorMatches, `section "audit" not valid`)
}

func (s *getSuite) TestGetTooManyArgs(c *gc.C) {
	_, err := s.run(c, "accounting", "login", "extra")
	c.Assert(err, gc.ErrorMatches, `unrecognized args: \["extra"\]`)
}
