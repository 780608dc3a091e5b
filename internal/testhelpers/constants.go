// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testhelpers

import (
	"time"
)

// ShortWait is how long to block waiting for something that should
// not happen. The suite really does wait this long before moving on,
// so it is kept short.
const ShortWait = 50 * time.Millisecond

// LongWait is how long to wait for something that should already have
// happened. A passing run never sleeps this long; it only bounds how
// late a slow event may arrive before the test gives up.
const LongWait = 10 * time.Second
