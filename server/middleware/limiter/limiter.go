// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"codeberg.org/tscat/tscat/config"
)

const (
	ExpensiveRate         = 0.2             // 12 tokens per minute for export, lint and reload routes.
	ExpensiveBurst        = 10              // Maximum tokens for export, lint and reload routes.
	LimiterExpiryDuration = time.Hour       // How long an idle bucket is kept.
	CleanupInterval       = 5 * time.Minute // Interval between cleanup runs.
)

// expensiveSuffix separates the keys of expensive route buckets from the
// regular bucket of the same network.
const expensiveSuffix = ":expensive"

var (
	limiters sync.Map   // bucket key -> *limiterWrapper
	timeNow  = time.Now // replaced by a mock clock in tests
)

// limiterWrapper is the token bucket of one network, or of one network's
// expensive routes.
type limiterWrapper struct {
	limiter    *rate.Limiter
	network    string // bucket key
	lastAccess time.Time
	mu         sync.Mutex
}

// checkRateLimit takes one token from lw. It returns the empty string when
// the request may proceed and the refusal reason otherwise.
func checkRateLimit(lw *limiterWrapper, network string) string {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	now := timeNow()
	lw.lastAccess = now

	if lw.limiter.AllowN(now, 1) {
		return ""
	}

	log.Warn().
		Str("network", network).
		Msg("Rate limit exceeded")

	return "Rate limit exceeded"
}

// getOrCreateLimiter returns the regular bucket of network.
func getOrCreateLimiter(network string) *limiterWrapper {
	return loadOrStore(network, config.Global.Limiter.Rate, config.Global.Limiter.Burst)
}

// getOrCreateExpensiveLimiter returns the bucket network draws from on
// export, lint and reload routes.
func getOrCreateExpensiveLimiter(network string) *limiterWrapper {
	return loadOrStore(network+expensiveSuffix, ExpensiveRate, ExpensiveBurst)
}

// loadOrStore returns the bucket stored under key, creating a full one with
// the given rate and burst when there is none.
func loadOrStore(key string, r float64, burst int) *limiterWrapper {
	if lw, ok := loadLimiterFromMemory(key); ok {
		return lw
	}

	actual, _ := limiters.LoadOrStore(key, &limiterWrapper{
		limiter:    rate.NewLimiter(rate.Limit(r), burst),
		network:    key,
		lastAccess: timeNow(),
	})

	lw, _ := actual.(*limiterWrapper)

	return lw
}

// loadLimiterFromMemory returns the bucket stored under key and marks it as
// used.
func loadLimiterFromMemory(key string) (*limiterWrapper, bool) {
	value, ok := limiters.Load(key)
	if !ok {
		return nil, false
	}

	lw, ok := value.(*limiterWrapper)
	if !ok {
		return nil, false
	}

	lw.mu.Lock()
	lw.lastAccess = timeNow()
	lw.mu.Unlock()

	return lw, true
}

// cleanupExpiredLimiters drops buckets idle for longer than
// LimiterExpiryDuration.
func cleanupExpiredLimiters() {
	now := timeNow()
	removed := 0

	limiters.Range(func(key, value any) bool {
		lw, ok := value.(*limiterWrapper)
		if ok {
			lw.mu.Lock()
			idle := now.Sub(lw.lastAccess)
			lw.mu.Unlock()

			ok = idle <= LimiterExpiryDuration
		}

		if !ok {
			limiters.Delete(key)

			removed++
		}

		return true
	})

	if removed > 0 {
		log.Info().Int("count", removed).Msg("Cleaned up expired limiters")
	}
}
