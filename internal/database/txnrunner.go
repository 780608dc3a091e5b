// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/canonical/sqlair"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/retry"
)

var logger = loggo.GetLogger("aaacfg.database")

// TxnRunner executes functions inside transactions against a single
// SQLite database, retrying transient busy and locked failures with
// backoff. Everything downstream of the open database handle goes
// through one of its two methods.
type TxnRunner struct {
	db    *sqlair.DB
	clock clock.Clock
}

// NewTxnRunner wraps an open database handle.
func NewTxnRunner(db *sql.DB, clk clock.Clock) *TxnRunner {
	return &TxnRunner{
		db:    sqlair.NewDB(db),
		clock: clk,
	}
}

// Txn runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (r *TxnRunner) Txn(ctx context.Context, fn func(context.Context, *sqlair.TX) error) error {
	return errors.Trace(r.run(ctx, func() error {
		tx, err := r.db.Begin(ctx, nil)
		if err != nil {
			return errors.Trace(err)
		}
		if err := fn(ctx, tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Warningf("rolling back transaction: %v", rbErr)
			}
			return errors.Trace(err)
		}
		return errors.Trace(tx.Commit())
	}))
}

// StdTxn is Txn over the plain database/sql transaction type, for DDL
// and other statements that do not go through sqlair.
func (r *TxnRunner) StdTxn(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	return errors.Trace(r.run(ctx, func() error {
		tx, err := r.db.PlainDB().BeginTx(ctx, nil)
		if err != nil {
			return errors.Trace(err)
		}
		if err := fn(ctx, tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Warningf("rolling back transaction: %v", rbErr)
			}
			return errors.Trace(err)
		}
		return errors.Trace(tx.Commit())
	}))
}

func (r *TxnRunner) run(ctx context.Context, fn func() error) error {
	return retry.Call(retry.CallArgs{
		Func: fn,
		IsFatalError: func(err error) bool {
			return !IsErrRetryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Tracef("retrying transaction (attempt %d): %v", attempt, err)
		},
		Attempts:    10,
		Delay:       time.Millisecond,
		MaxDelay:    time.Second,
		BackoffFunc: retry.DoubleDelay,
		Clock:       r.clock,
		Stop:        ctx.Done(),
	})
}
