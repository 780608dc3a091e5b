// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package aaa defines the typed schema for AAA (authentication,
// authorization and accounting) configuration: the closed set of
// sections, the closed set of login method identifiers, the fully
// resolved configuration tree returned by reads, and the sparse
// update type accepted by writes.
package aaa

import (
	"github.com/juju/errors"
)

// Section identifies one of the three AAA configuration sections.
type Section string

const (
	SectionAuthentication Section = "authentication"
	SectionAuthorization  Section = "authorization"
	SectionAccounting     Section = "accounting"
)

// Sections returns the closed set of sections in canonical order.
func Sections() []Section {
	return []Section{
		SectionAuthentication,
		SectionAuthorization,
		SectionAccounting,
	}
}

// ParseSection converts a user supplied section name into a Section.
func ParseSection(s string) (Section, error) {
	switch sec := Section(s); sec {
	case SectionAuthentication, SectionAuthorization, SectionAccounting:
		return sec, nil
	}
	return "", errors.NotValidf("section %q", s)
}

// Method identifies a login method. Method lists are priority ordered,
// so position matters. The set is closed: adding a method means adding
// a constant here and a vocabulary entry in the translation layer.
type Method string

const (
	MethodTACACSAll Method = "TACACS_ALL"
	MethodLocal     Method = "LOCAL"
	MethodRADIUSAll Method = "RADIUS_ALL"
)

// Methods returns the closed set of method identifiers.
func Methods() []Method {
	return []Method{MethodTACACSAll, MethodLocal, MethodRADIUSAll}
}

// ParseMethod converts a user supplied method identifier.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodTACACSAll, MethodLocal, MethodRADIUSAll:
		return m, nil
	}
	return "", errors.NotValidf("method %q", s)
}

// ParseMethods converts an ordered slice of user supplied method
// identifiers, rejecting unknown identifiers and duplicates.
func ParseMethods(values []string) ([]Method, error) {
	methods := make([]Method, 0, len(values))
	seen := make(map[Method]bool, len(values))
	for _, v := range values {
		m, err := ParseMethod(v)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if seen[m] {
			return nil, errors.NotValidf("duplicate method %q", v)
		}
		seen[m] = true
		methods = append(methods, m)
	}
	return methods, nil
}

// Field names shared by the request boundary and the flat store.
const (
	FieldLogin       = "login"
	FieldFailthrough = "failthrough"
	FieldFallback    = "fallback"
	FieldDebug       = "debug"
	FieldTrace       = "trace"
)

// FlagFields returns the boolean flag fields, which exist only under
// the authentication section.
func FlagFields() []string {
	return []string{FieldFailthrough, FieldFallback, FieldDebug, FieldTrace}
}

// FieldsFor returns the fields valid for the given section.
func FieldsFor(section Section) []string {
	if section == SectionAuthentication {
		return append([]string{FieldLogin}, FlagFields()...)
	}
	return []string{FieldLogin}
}
