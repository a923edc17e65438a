// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that enforces per-network rate limiting for HTTP requests.

Clients are grouped by their IP network (see limiter.ipv4Prefix and
limiter.ipv6Prefix) and share a token bucket. Catalog exports, lint reports
and reloads draw from a second, smaller bucket. Bucket state survives restarts
through Init and Fini.
*/
package limiter
