// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	cleanupMu     sync.Mutex
	lastCleanupAt time.Time
)

// DoCleanup drops expired limiters in the background, at most once per
// CleanupInterval.
func DoCleanup() {
	now := timeNow()

	cleanupMu.Lock()

	if lastCleanupAt.IsZero() {
		lastCleanupAt = now
		cleanupMu.Unlock()

		return
	}

	if now.Sub(lastCleanupAt) < CleanupInterval {
		cleanupMu.Unlock()

		return
	}

	lastCleanupAt = now
	cleanupMu.Unlock()

	go func() {
		cleanupExpiredLimiters()

		log.Debug().Time("start", now).Dur("dur", time.Since(now)).Msg("limiter cleanup")
	}()
}
