// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"time"
)

// entropyBytes is the number of random bytes in an ID. Three bytes encode to
// four base64 characters without padding.
const entropyBytes = 3

// Make makes a short ID for request tracing and catalog snapshots: the wall
// clock time as hhmmss followed by four characters of entropy.
func Make() string {
	return makeFrom(time.Now(), rand.Reader)
}

func makeFrom(t time.Time, entropy io.Reader) string {
	buf := [entropyBytes]byte{'a', 'a', 'a'}

	// A short read keeps the placeholder bytes; the ID is for tracing only.
	_, _ = io.ReadFull(entropy, buf[:])

	return t.Format("150405") + base64.RawURLEncoding.EncodeToString(buf[:])
}
