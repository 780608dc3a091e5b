// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package params holds the wire types of the AAA configuration API.
// Method lists always travel as schema identifiers; store tokens
// never cross this boundary.
package params

// SectionConfig is one fully resolved AAA section. Flag fields are
// populated for the authentication section only. Explicit lists the
// fields that are explicitly stored rather than defaulted, in schema
// order.
type SectionConfig struct {
	Section string   `json:"section"`
	Methods []string `json:"methods"`

	Failthrough *bool `json:"failthrough,omitempty"`
	Fallback    *bool `json:"fallback,omitempty"`
	Debug       *bool `json:"debug,omitempty"`
	Trace       *bool `json:"trace,omitempty"`

	Explicit []string `json:"explicit,omitempty"`
}

// AAAConfigResult holds every AAA section in canonical order, fully
// resolved against schema defaults.
type AAAConfigResult struct {
	Sections []SectionConfig `json:"sections"`
}

// SectionConfigResult holds one AAA section, fully resolved.
type SectionConfigResult struct {
	Config SectionConfig `json:"config"`
}

// SectionUpdateArgs is a sparse update of one section. Absent members
// leave their leaves untouched. Methods distinguishes absent from
// empty: an empty list returns the method list to its default. Reset
// names fields to return to defaults explicitly.
type SectionUpdateArgs struct {
	Methods *[]string `json:"methods,omitempty"`

	Failthrough *bool `json:"failthrough,omitempty"`
	Fallback    *bool `json:"fallback,omitempty"`
	Debug       *bool `json:"debug,omitempty"`
	Trace       *bool `json:"trace,omitempty"`

	Reset []string `json:"reset,omitempty"`
}

// IsZero reports whether the args carry no changes at all.
func (a SectionUpdateArgs) IsZero() bool {
	return a.Methods == nil &&
		a.Failthrough == nil && a.Fallback == nil &&
		a.Debug == nil && a.Trace == nil &&
		len(a.Reset) == 0
}

// ChangeNotification is one frame on the watch stream, identifying a
// section whose configuration changed and the fields it changed in.
// Notifications carry no values; watchers read the configuration back
// to pick them up.
type ChangeNotification struct {
	Section string   `json:"section"`
	Fields  []string `json:"fields"`
}
