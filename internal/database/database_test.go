// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database_test

import (
	"context"
	"database/sql"

	"github.com/canonical/sqlair"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/mattn/go-sqlite3"
	gc "gopkg.in/check.v1"

	"github.com/canonical/aaacfg/internal/database"
)

type databaseSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&databaseSuite{})

func (s *databaseSuite) openMemory(c *gc.C) *database.TxnRunner {
	db, err := database.Open(database.InMemory)
	c.Assert(err, jc.ErrorIsNil)
	s.AddCleanup(func(c *gc.C) {
		c.Assert(db.Close(), jc.ErrorIsNil)
	})
	runner := database.NewTxnRunner(db, clock.WallClock)
	err = database.EnsureSchema(context.Background(), runner)
	c.Assert(err, jc.ErrorIsNil)
	return runner
}

func (s *databaseSuite) TestOpenEmptyPath(c *gc.C) {
	_, err := database.Open("")
	c.Assert(err, jc.ErrorIs, errors.NotValid)
}

func (s *databaseSuite) TestEnsureSchemaIdempotent(c *gc.C) {
	runner := s.openMemory(c)
	err := database.EnsureSchema(context.Background(), runner)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *databaseSuite) TestTxnCommits(c *gc.C) {
	runner := s.openMemory(c)

	insert := sqlair.MustPrepare(`
INSERT INTO aaa (section, field, value) VALUES ('authentication', 'debug', 'True')`)
	err := runner.Txn(context.Background(), func(ctx context.Context, tx *sqlair.TX) error {
		return tx.Query(ctx, insert).Run()
	})
	c.Assert(err, jc.ErrorIsNil)

	var count int
	err = runner.StdTxn(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM aaa")
		return row.Scan(&count)
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(count, gc.Equals, 1)
}

func (s *databaseSuite) TestTxnRollsBackOnError(c *gc.C) {
	runner := s.openMemory(c)

	boom := errors.New("boom")
	err := runner.StdTxn(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO aaa (section, field, value) VALUES ('accounting', 'login', 'local')",
		); err != nil {
			return errors.Trace(err)
		}
		return boom
	})
	c.Assert(err, jc.ErrorIs, boom)

	var count int
	err = runner.StdTxn(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM aaa").Scan(&count)
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(count, gc.Equals, 0)
}

func (s *databaseSuite) TestPrimaryKeyUpsertTarget(c *gc.C) {
	runner := s.openMemory(c)

	err := runner.StdTxn(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		for _, value := range []string{"True", "False"} {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO aaa (section, field, value) VALUES ('authentication', 'trace', ?)
ON CONFLICT (section, field) DO UPDATE SET value = excluded.value`, value); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)

	var value string
	err = runner.StdTxn(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			"SELECT value FROM aaa WHERE section = 'authentication' AND field = 'trace'",
		).Scan(&value)
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(value, gc.Equals, "False")
}

type retryableSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&retryableSuite{})

func (*retryableSuite) TestIsErrRetryable(c *gc.C) {
	for i, test := range []struct {
		err      error
		expected bool
	}{
		{err: nil, expected: false},
		{err: sqlite3.ErrBusy, expected: true},
		{err: sqlite3.ErrLocked, expected: true},
		{err: sqlite3.Error{Code: sqlite3.ErrBusy}, expected: true},
		{err: sqlite3.Error{Code: sqlite3.ErrLocked}, expected: true},
		{err: sqlite3.Error{Code: sqlite3.ErrPerm}, expected: false},
		{err: errors.New("database is locked"), expected: true},
		{err: errors.New("cannot start a transaction within a transaction"), expected: true},
		{err: errors.New("boom"), expected: false},
	} {
		c.Logf("test %d: %v", i, test.err)
		c.Check(database.IsErrRetryable(test.err), gc.Equals, test.expected)
	}
}
