// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package testing provides an in-memory database fixture for state
// tests.
package testing

import (
	"context"
	"database/sql"

	"github.com/juju/clock"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/aaacfg/internal/database"
)

// DBSuite gives each test a fresh in-memory SQLite database with the
// flat store schema applied.
type DBSuite struct {
	testing.IsolationSuite

	db     *sql.DB
	runner *database.TxnRunner
}

func (s *DBSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)

	db, err := database.Open(database.InMemory)
	c.Assert(err, jc.ErrorIsNil)
	s.db = db
	s.AddCleanup(func(c *gc.C) {
		c.Assert(s.db.Close(), jc.ErrorIsNil)
	})

	s.runner = database.NewTxnRunner(db, clock.WallClock)
	err = database.EnsureSchema(context.Background(), s.runner)
	c.Assert(err, jc.ErrorIsNil)
}

// DB returns the raw database handle, for tests that need to poke at
// rows directly.
func (s *DBSuite) DB() *sql.DB {
	return s.db
}

// TxnRunner returns the runner state fixtures build on.
func (s *DBSuite) TxnRunner() *database.TxnRunner {
	return s.runner
}
