// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package version holds the version of the aaacfg tools.
package version

// Current is the version of this build of the aaacfg tools. It is
// stamped into the API client User-Agent and reported by the command
// line tools.
const Current = "1.0.0"
