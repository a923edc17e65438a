// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/netip"
	"strings"
)

// clientAddr returns the address of the client behind r.
//
// X-Real-IP and then the last X-Forwarded-For entry are used when the peer
// is on a private or loopback network, meaning a local reverse proxy.
// Headers from any other peer are ignored. ok is false when no address can
// be parsed.
func clientAddr(r *http.Request) (netip.Addr, bool) {
	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, as set by some test harnesses.
		addr, err := netip.ParseAddr(r.RemoteAddr)

		return addr.Unmap(), err == nil
	}

	addr := peer.Addr().Unmap()
	if !addr.IsPrivate() && !addr.IsLoopback() {
		return addr, true
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap(), true
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		last := xff[strings.LastIndexByte(xff, ',')+1:]
		if forwarded, err := netip.ParseAddr(strings.TrimSpace(last)); err == nil {
			return forwarded.Unmap(), true
		}
	}

	return addr, true
}

// inList reports whether addr equals an address of list or lies inside one
// of its CIDR prefixes. Entries that parse as neither are skipped.
func inList(addr netip.Addr, list []string) bool {
	for _, entry := range list {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			if prefix.Contains(addr) {
				return true
			}

			continue
		}

		if other, err := netip.ParseAddr(entry); err == nil && other.Unmap() == addr {
			return true
		}
	}

	return false
}

// networkOf masks addr with the prefix length configured for its family.
func networkOf(addr netip.Addr, ipv4Prefix, ipv6Prefix int) netip.Prefix {
	bits := ipv6Prefix
	if addr.Is4() {
		bits = ipv4Prefix
	}

	network, err := addr.Prefix(bits)
	if err != nil {
		return netip.PrefixFrom(addr, addr.BitLen())
	}

	return network
}
