// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"context"
	"database/sql"

	"github.com/juju/errors"
)

// schemaPatches is the ordered DDL for the flat store. Patches must be
// idempotent: the daemon ensures the schema on every start.
var schemaPatches = []string{`
CREATE TABLE IF NOT EXISTS aaa (
    section TEXT NOT NULL,
    field   TEXT NOT NULL,
    value   TEXT NOT NULL,
    PRIMARY KEY (section, field)
);`, `
CREATE INDEX IF NOT EXISTS idx_aaa_section ON aaa (section);`,
}

// EnsureSchema applies the flat store DDL, all patches in one
// transaction.
func EnsureSchema(ctx context.Context, runner *TxnRunner) error {
	return errors.Trace(runner.StdTxn(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, patch := range schemaPatches {
			if _, err := tx.ExecContext(ctx, patch); err != nil {
				return errors.Annotate(err, "applying schema patch")
			}
		}
		return nil
	}))
}
