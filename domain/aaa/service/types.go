// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package service

import (
	"github.com/canonical/aaacfg/core/aaa"
)

// SectionView is one section resolved to its effective values,
// annotated with provenance. Explicit lists the schema fields that
// are explicitly stored rather than defaulted, in schema order. The
// flag values are meaningful for the authentication section only and
// read false elsewhere.
type SectionView struct {
	Section     aaa.Section
	Methods     []aaa.Method
	Failthrough bool
	Fallback    bool
	Debug       bool
	Trace       bool
	Explicit    []string
}

// IsExplicit reports whether the named field is explicitly stored.
func (v SectionView) IsExplicit(field string) bool {
	for _, f := range v.Explicit {
		if f == field {
			return true
		}
	}
	return false
}
