// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

// aaaField is the full flat table row: one explicitly configured field
// of one section.
type aaaField struct {
	Section string `db:"section"`
	Field   string `db:"field"`
	Value   string `db:"value"`
}

// fieldValue carries one field of a known section.
type fieldValue struct {
	Field string `db:"field"`
	Value string `db:"value"`
}

// sectionKey selects one section's row.
type sectionKey struct {
	Section string `db:"section"`
}

// fieldKey selects one field of one section.
type fieldKey struct {
	Section string `db:"section"`
	Field   string `db:"field"`
}
