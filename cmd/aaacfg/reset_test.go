// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/cmd/v3/cmdtesting"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	aaaerrors "github.com/canonical/aaacfg/domain/aaa/errors"
)

type resetSuite struct {
	baseSuite
}

var _ = gc.Suite(&resetSuite{})

func (s *resetSuite) run(c *gc.C, args ...string) (*cmd.Context, error) {
	command := newResetCommand()
	s.inject(&command.apiCommand)
	return cmdtesting.RunCommand(c, command, args...)
}

func (s *resetSuite) TestReset(c *gc.C) {
	_, err := s.run(c, "accounting")
	c.Assert(err, jc.ErrorIsNil)
	s.client.stub.CheckCalls(c, []jujutesting.StubCall{
		{FuncName: "ResetSection", Args: []interface{}{"accounting"}},
	})
}

func (s *resetSuite) TestResetNoSection(c *gc.C) {
	_, err := s.run(c)
	c.Assert(err, gc.ErrorMatches, "no section specified")
}

func (s *resetSuite) TestResetUnknownSection(c *gc.C) {
	_, err := s.run(c, "bogus")
	c.Assert(err, gc.ErrorMatches, `section "bogus" not valid`)
}

func (s *resetSuite) TestResetTooManyArgs(c *gc.C) {
	_, err := s.run(c, "accounting", "extra")
	c.Assert(err, gc.ErrorMatches, `unrecognized args: \["extra"\]`)
}

func (s *resetSuite) TestResetServerError(c *gc.C) {
	s.client.stub.SetErrors(aaaerrors.InvalidSection)
	_, err := s.run(c, "accounting")
	c.Assert(err, jc.ErrorIs, aaaerrors.InvalidSection)
}
