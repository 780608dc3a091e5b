// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package translate

import (
	"fmt"

	"github.com/canonical/aaacfg/core/aaa"
)

// TableAAA is the logical name of the flat table holding all three
// section rows.
const TableAAA = "AAA"

// RowResolver derives the flat table coordinates for a section. The
// AAA schema needs only a static lookup, but key derivation depends on
// subtree identity in the general case, so the transformer takes the
// resolver as a function.
type RowResolver func(section aaa.Section) (table, rowKey string)

// DefaultResolver maps the three sections onto rows of the AAA table,
// keyed by the section literal. The schema is closed: any other value
// is a programming error, not bad input, since every external section
// name passes ParseSection before it can reach the resolver.
func DefaultResolver(section aaa.Section) (string, string) {
	switch section {
	case aaa.SectionAuthentication, aaa.SectionAuthorization, aaa.SectionAccounting:
		return TableAAA, string(section)
	}
	panic(fmt.Sprintf("no row mapping for AAA section %q", section))
}
