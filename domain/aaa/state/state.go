// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package state persists the AAA flat table. It applies the mutation
// batches produced by the translate layer and reads rows back as raw
// field/value maps; no typing or defaulting happens here.
package state

import (
	"context"
	"sync"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/canonical/aaacfg/domain/aaa/translate"
	"github.com/canonical/aaacfg/internal/database"
)

var logger = loggo.GetLogger("aaacfg.state")

// State describes retrieval and persistence methods for the flat
// store. All access goes through the retrying transaction runner.
type State struct {
	runner *database.TxnRunner

	mu    sync.Mutex
	cache map[string]*sqlair.Statement
}

// NewState returns a new state reference over the given runner.
func NewState(runner *database.TxnRunner) *State {
	return &State{
		runner: runner,
		cache:  make(map[string]*sqlair.Statement),
	}
}

// prepare returns a cached prepared statement, building and caching it
// on first use.
func (s *State) prepare(query string, typeSamples ...any) (*sqlair.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stmt, ok := s.cache[query]; ok {
		return stmt, nil
	}
	stmt, err := sqlair.Prepare(query, typeSamples...)
	if err != nil {
		return nil, errors.Annotatef(err, "preparing %q", query)
	}
	s.cache[query] = stmt
	return stmt, nil
}

// GetRow returns the explicitly configured fields of one row. A row
// with no fields at all yields an empty map, not an error: absence
// means defaults, and defaults resolve at decode time.
func (s *State) GetRow(ctx context.Context, rowKey string) (map[string]string, error) {
	stmt, err := s.prepare(`
SELECT (field, value) AS (&fieldValue.*)
FROM   aaa
WHERE  section = $sectionKey.section`, fieldValue{}, sectionKey{})
	if err != nil {
		return nil, errors.Trace(err)
	}

	var fields []fieldValue
	err = s.runner.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		err := tx.Query(ctx, stmt, sectionKey{Section: rowKey}).GetAll(&fields)
		if errors.Is(err, sqlair.ErrNoRows) {
			return nil
		}
		return errors.Trace(err)
	})
	if err != nil {
		return nil, errors.Annotatef(err, "reading row %q", rowKey)
	}

	row := make(map[string]string, len(fields))
	for _, f := range fields {
		row[f.Field] = f.Value
	}
	return row, nil
}

// AllRows returns every explicitly configured field, keyed by row key
// then field name. Rows with no fields do not appear.
func (s *State) AllRows(ctx context.Context) (map[string]map[string]string, error) {
	stmt, err := s.prepare(`
SELECT (section, field, value) AS (&aaaField.*)
FROM   aaa`, aaaField{})
	if err != nil {
		return nil, errors.Trace(err)
	}

	var fields []aaaField
	err = s.runner.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		err := tx.Query(ctx, stmt).GetAll(&fields)
		if errors.Is(err, sqlair.ErrNoRows) {
			return nil
		}
		return errors.Trace(err)
	})
	if err != nil {
		return nil, errors.Annotate(err, "reading all rows")
	}

	rows := make(map[string]map[string]string)
	for _, f := range fields {
		row, ok := rows[f.Section]
		if !ok {
			row = make(map[string]string)
			rows[f.Section] = row
		}
		row[f.Field] = f.Value
	}
	return rows, nil
}

// ApplyBatch applies one mutation batch in a single transaction:
// either every write and delete lands, or none do. Deleting a field
// that is not configured affects nothing and is not an error.
func (s *State) ApplyBatch(ctx context.Context, batch translate.Batch) error {
	if err := validateBatch(batch); err != nil {
		return errors.Trace(err)
	}
	if batch.IsEmpty() {
		return nil
	}

	upsert, err := s.prepare(`
INSERT INTO aaa (section, field, value)
VALUES ($aaaField.section, $aaaField.field, $aaaField.value)
ON CONFLICT (section, field) DO UPDATE SET value = excluded.value`, aaaField{})
	if err != nil {
		return errors.Trace(err)
	}
	remove, err := s.prepare(`
DELETE FROM aaa
WHERE  section = $fieldKey.section
AND    field = $fieldKey.field`, fieldKey{})
	if err != nil {
		return errors.Trace(err)
	}

	err = s.runner.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		for _, w := range batch.Writes {
			arg := aaaField{Section: w.Row, Field: w.Field, Value: w.Value}
			if err := tx.Query(ctx, upsert, arg).Run(); err != nil {
				return errors.Annotatef(err, "writing field %q of row %q", w.Field, w.Row)
			}
		}
		for _, d := range batch.Deletes {
			arg := fieldKey{Section: d.Row, Field: d.Field}
			if err := tx.Query(ctx, remove, arg).Run(); err != nil {
				return errors.Annotatef(err, "deleting field %q of row %q", d.Field, d.Row)
			}
		}
		return nil
	})
	if err != nil {
		return errors.Trace(err)
	}
	logger.Tracef("applied batch: %d writes, %d deletes", len(batch.Writes), len(batch.Deletes))
	return nil
}

// ResetRow deletes every field of one row, returning the section to
// defaults. It reports the number of fields removed, so resetting an
// already empty row is a no-op that reports zero.
func (s *State) ResetRow(ctx context.Context, rowKey string) (int, error) {
	stmt, err := s.prepare(`
DELETE FROM aaa
WHERE  section = $sectionKey.section`, sectionKey{})
	if err != nil {
		return 0, errors.Trace(err)
	}

	var outcome sqlair.Outcome
	err = s.runner.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		return errors.Trace(tx.Query(ctx, stmt, sectionKey{Section: rowKey}).Get(&outcome))
	})
	if err != nil {
		return 0, errors.Annotatef(err, "resetting row %q", rowKey)
	}
	affected, err := outcome.Result().RowsAffected()
	if err != nil {
		return 0, errors.Annotatef(err, "resetting row %q", rowKey)
	}
	logger.Tracef("reset row %q: %d fields removed", rowKey, affected)
	return int(affected), nil
}

// validateBatch guards the single-table schema: the translate layer
// can only name the AAA table, so anything else is a programming
// error.
func validateBatch(batch translate.Batch) error {
	for _, w := range batch.Writes {
		if w.Table != translate.TableAAA {
			return errors.NotValidf("write against table %q", w.Table)
		}
	}
	for _, d := range batch.Deletes {
		if d.Table != translate.TableAAA {
			return errors.NotValidf("delete against table %q", d.Table)
		}
	}
	return nil
}
