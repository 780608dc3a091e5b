// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package translate converts AAA configuration between the typed
// schema tree and the flat string table the store persists.
//
// The package has four pieces. The vocabulary is an immutable
// bijection between schema method identifiers and store tokens. The
// scalar and list codecs encode typed leaf values into the store's
// string wire format and back. The row resolver maps a section onto
// its (table, row key) coordinates. The transformer orchestrates all
// three: on write it turns a sparse section update into one atomic
// batch of field writes and field deletes, and on read it turns a
// row's fields back into a fully defaulted typed section.
//
// Everything here is pure computation over in-memory values; the
// package holds no mutable state and is safe for unlimited concurrent
// use.
package translate
