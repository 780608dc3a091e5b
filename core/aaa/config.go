// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package aaa

// AuthenticationConfig is the fully resolved authentication section.
// Reads never leave a field unset: absent store fields resolve to the
// schema defaults (an empty method list and false flags).
type AuthenticationConfig struct {
	Methods     []Method
	Failthrough bool
	Fallback    bool
	Debug       bool
	Trace       bool
}

// MethodListConfig is the fully resolved form of the authorization and
// accounting sections, which carry only a method list.
type MethodListConfig struct {
	Methods []Method
}

// Config is the fully resolved AAA configuration tree.
type Config struct {
	Authentication AuthenticationConfig
	Authorization  MethodListConfig
	Accounting     MethodListConfig
}
