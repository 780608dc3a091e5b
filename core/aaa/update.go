// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package aaa

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// FlagOp describes what an update does to one boolean flag.
type FlagOp int

const (
	// FlagLeave keeps the current configuration untouched.
	FlagLeave FlagOp = iota
	// FlagSet writes an explicit value, even when the value equals the
	// schema default.
	FlagSet
	// FlagReset removes the explicit configuration so that the default
	// applies at read time.
	FlagReset
)

// FlagUpdate is the tri-state write intent for one boolean flag. The
// zero value leaves the flag untouched.
type FlagUpdate struct {
	Op    FlagOp
	Value bool
}

// SetFlag returns a FlagUpdate writing an explicit value.
func SetFlag(v bool) FlagUpdate {
	return FlagUpdate{Op: FlagSet, Value: v}
}

// ResetFlag returns a FlagUpdate removing the explicit configuration.
func ResetFlag() FlagUpdate {
	return FlagUpdate{Op: FlagReset}
}

// SectionUpdate is a sparse write request against a single section.
// Only populated fields are touched; everything else keeps its current
// configuration. A nil Methods pointer leaves the method list alone,
// while a pointer to an empty list resets it to default. Flag updates
// are only valid for the authentication section.
type SectionUpdate struct {
	Section Section

	Methods *[]Method

	Failthrough FlagUpdate
	Fallback    FlagUpdate
	Debug       FlagUpdate
	Trace       FlagUpdate
}

// HasFlagChanges reports whether any flag carries a change.
func (u SectionUpdate) HasFlagChanges() bool {
	return u.Failthrough.Op != FlagLeave ||
		u.Fallback.Op != FlagLeave ||
		u.Debug.Op != FlagLeave ||
		u.Trace.Op != FlagLeave
}

// IsZero reports whether the update carries no changes at all.
func (u SectionUpdate) IsZero() bool {
	return u.Methods == nil && !u.HasFlagChanges()
}

// Validate checks that the update is internally consistent: the
// section is known, at least one field is populated, methods are
// duplicate free, and flags only target the authentication section.
// Method membership is not checked here; the translation vocabulary
// is authoritative for that.
func (u SectionUpdate) Validate() error {
	if _, err := ParseSection(string(u.Section)); err != nil {
		return errors.Trace(err)
	}
	if u.IsZero() {
		return errors.BadRequestf("update of section %q changes nothing", u.Section)
	}
	if u.Methods != nil {
		seen := set.NewStrings()
		for _, m := range *u.Methods {
			if seen.Contains(string(m)) {
				return errors.NotValidf("duplicate method %q", m)
			}
			seen.Add(string(m))
		}
	}
	if u.Section != SectionAuthentication && u.HasFlagChanges() {
		return errors.NotValidf("flag update for section %q", u.Section)
	}
	return nil
}
