// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/cmd/v3/cmdtesting"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
)

type addrSuite struct {
	baseSuite
}

var _ = gc.Suite(&addrSuite{})

func (s *addrSuite) run(c *gc.C, args ...string) (*cmd.Context, error) {
	command := newResetCommand()
	s.inject(&command.apiCommand)
	return cmdtesting.RunCommand(c, command, args...)
}

func (s *addrSuite) TestDefaultAddr(c *gc.C) {
	_, err := s.run(c, "accounting")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.addr, gc.Equals, "localhost:17940")
}

func (s *addrSuite) TestEnvironmentOverridesDefault(c *gc.C) {
	s.PatchEnvironment("AAACFG_ADDR", "example.com:9999")
	_, err := s.run(c, "accounting")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.addr, gc.Equals, "example.com:9999")
}

func (s *addrSuite) TestFlagOverridesEnvironment(c *gc.C) {
	s.PatchEnvironment("AAACFG_ADDR", "example.com:9999")
	_, err := s.run(c, "--addr", "10.0.0.7:17940", "accounting")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.addr, gc.Equals, "10.0.0.7:17940")
}

func (s *addrSuite) TestAddrWithoutPort(c *gc.C) {
	_, err := s.run(c, "--addr", "no-port", "accounting")
	c.Assert(err, gc.ErrorMatches, `address "no-port" not valid`)
	s.client.stub.CheckCallNames(c)
}
