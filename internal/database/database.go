// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package database opens and prepares the SQLite database backing the
// AAA flat store, and provides the retrying transaction runner the
// state layer builds on.
package database

import (
	"database/sql"
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"
	_ "github.com/mattn/go-sqlite3"
)

// InMemory is the path value selecting a throwaway in-memory database.
const InMemory = ":memory:"

// Open opens the SQLite database at path, creating the file if needed.
// The connection enforces foreign keys, uses WAL journaling and takes
// write locks eagerly, which keeps the busy retry window small.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.NotValidf("empty database path")
	}
	dsn := fileDSN(path)
	if path == InMemory {
		// Every connection in the pool must see the same database, so
		// a plain :memory: DSN will not do.
		dsn = memoryDSN()
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Annotatef(err, "opening database %q", path)
	}
	return db, nil
}

func fileDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate",
		path,
	)
}

func memoryDSN() string {
	name := utils.MustNewUUID().String()
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
}
