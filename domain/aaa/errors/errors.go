// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package errors

import "github.com/juju/errors"

const (
	// UnknownIdentifier is raised when a schema level method identifier
	// is outside the closed vocabulary.
	UnknownIdentifier = errors.ConstError("unknown method identifier")

	// UnknownToken is raised when a store level method token is outside
	// the closed vocabulary.
	UnknownToken = errors.ConstError("unknown method token")

	// MalformedValue is raised when a stored field value does not match
	// the wire format contract, for example a boolean field holding
	// anything other than "True" or "False".
	MalformedValue = errors.ConstError("malformed stored value")

	// InvalidSection is raised when a section name reaching the service
	// boundary is not one of the three AAA sections.
	InvalidSection = errors.ConstError("invalid section")
)
