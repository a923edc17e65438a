// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/routes"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit"
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

// excludedPaths won't have traffic filtered by the limiter middleware.
var excludedPaths = []string{
	"/healthz",
}

// expensivePaths draw from the expensive limiter of the client's network.
var expensivePaths = []string{
	"/api/v1/export/",
	"/api/v1/lint/",
	"/api/v1/reload",
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}

// Evaluate is the entrypoint to the limiter middleware.
func Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	defer DoCleanup()

	// 1: Fast-path exclusions.
	if hasPrefix(r.URL.Path, excludedPaths) {
		next.ServeHTTP(w, r)

		return
	}

	client, err := newClientInfo(r)
	if err != nil {
		log.Warn().Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Request blocked, could not identify client")

		routes.Refuse(w, http.StatusBadRequest, err.Error())

		return
	}

	// 2: IP-based filtering - explicit allow/deny lists take precedence.
	if allowed, blocked := client.checkIPLists(); allowed {
		next.ServeHTTP(w, r)

		return
	} else if blocked {
		log.Warn().
			Str("ip", client.addr.String()).
			Str("network", client.network.String()).
			Msg("Request blocked, IP in block-list")

		routes.Refuse(w, http.StatusForbidden, "IP in block-list")

		return
	}

	// 3: Local clients are only limited when configured.
	if !config.Global.Limiter.FilterLocal && client.isLocal() {
		next.ServeHTTP(w, r)

		return
	}

	// 4: Pick the bucket.
	if hasPrefix(r.URL.Path, expensivePaths) {
		client.limiter = getOrCreateExpensiveLimiter(client.network.String())
	} else {
		client.limiter = getOrCreateLimiter(client.network.String())
	}

	// 5: Rate limiting.
	if blockReason := checkRateLimit(client.limiter, client.network.String()); blockReason != "" {
		log.Warn().
			Str("ip", client.addr.String()).
			Str("network", client.network.String()).
			Str("reason", blockReason).
			Msg("Request blocked, exceeded rate limit")
		addRateLimitHeaders(w, client)

		routes.Refuse(w, http.StatusTooManyRequests, blockReason)

		return
	}

	addRateLimitHeaders(w, client)
	next.ServeHTTP(w, r)
}

// addRateLimitHeaders adds rate limiting information to the response headers.
func addRateLimitHeaders(w http.ResponseWriter, client *ClientInfo) {
	if client == nil || client.limiter == nil {
		return
	}

	client.limiter.mu.Lock()
	defer client.limiter.mu.Unlock()

	limiter := client.limiter.limiter

	currentTokens := limiter.TokensAt(timeNow())
	burst := limiter.Burst()
	limit := limiter.Limit()

	remaining := max(int(math.Min(float64(burst), currentTokens)), 0)

	// Seconds until the bucket is full again.
	var resetTime int64

	if currentTokens < float64(burst) && limit > 0 {
		resetTime = int64(math.Ceil((float64(burst) - currentTokens) / float64(limit)))
	}

	resetStr := strconv.FormatInt(resetTime, 10)

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(burst))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	w.Header().Set(HeaderRateLimitReset, resetStr)

	if remaining <= 0 {
		// Seconds until a single token is available.
		retryAfter := resetTime
		if limit > 0 {
			retryAfter = int64(math.Ceil((1 - currentTokens) / float64(limit)))
		}

		w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	}
}
