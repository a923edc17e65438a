// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"net/http"
	"net/netip"
	"strings"
)

// IsConnectionSecure reports whether the client reached us over HTTPS.
//
// A TLS connection is always secure. Otherwise the scheme a reverse proxy
// reports in X-Forwarded-Proto or Forwarded (RFC 7239) is only believed when
// the peer is on a private or loopback network; a proxy with a public
// address is treated as plain HTTP.
func IsConnectionSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return false
	}

	if addr := peer.Addr().Unmap(); !addr.IsPrivate() && !addr.IsLoopback() {
		return false
	}

	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}

	return forwardedProto(r.Header.Get("Forwarded")) == "https"
}

// forwardedProto returns the proto parameter of the first element of a
// Forwarded header, lower-cased.
func forwardedProto(header string) string {
	first, _, _ := strings.Cut(header, ",")

	for pair := range strings.SplitSeq(first, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && strings.EqualFold(key, "proto") {
			return strings.ToLower(strings.Trim(value, `"`))
		}
	}

	return ""
}
