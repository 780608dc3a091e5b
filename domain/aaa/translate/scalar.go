// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package translate

import (
	"github.com/juju/errors"

	aaaerrors "github.com/canonical/aaacfg/domain/aaa/errors"
)

// The store's boolean wire values. Capitalization is part of the
// contract: decode is case sensitive so that a corrupted field
// surfaces as an error instead of being coerced.
const (
	trueToken  = "True"
	falseToken = "False"
)

// EncodeBool renders a boolean in the store's wire format.
func EncodeBool(v bool) string {
	if v {
		return trueToken
	}
	return falseToken
}

// DecodeBool parses a stored boolean. Exactly "True" and "False" are
// accepted; anything else fails with MalformedValue.
func DecodeBool(s string) (bool, error) {
	switch s {
	case trueToken:
		return true, nil
	case falseToken:
		return false, nil
	}
	return false, errors.Annotatef(aaaerrors.MalformedValue, "boolean %q", s)
}
