// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"net/http"
	"net/netip"

	"codeberg.org/tscat/tscat/config"
)

var errMissingClientIP = errors.New("missing client IP")

// ClientInfo is the client of one request: its address, the network its
// buckets are keyed by, and the bucket Evaluate picked for the route.
type ClientInfo struct {
	addr    netip.Addr
	network netip.Prefix
	limiter *limiterWrapper
}

func newClientInfo(r *http.Request) (*ClientInfo, error) {
	addr, ok := clientAddr(r)
	if !ok {
		return nil, errMissingClientIP
	}

	return &ClientInfo{
		addr:    addr,
		network: networkOf(addr, config.Global.Limiter.IPv4Prefix, config.Global.Limiter.IPv6Prefix),
	}, nil
}

// checkIPLists reports whether the client is on the pass list or, failing
// that, on the block list. At most one result is true.
func (c *ClientInfo) checkIPLists() (allowed, blocked bool) {
	if inList(c.addr, config.Global.Limiter.PassIPs) {
		return true, false
	}

	return false, inList(c.addr, config.Global.Limiter.BlockIPs)
}

// isLocal reports whether the client is on a loopback or link-local address.
func (c *ClientInfo) isLocal() bool {
	return c.addr.IsLoopback() || c.addr.IsLinkLocalUnicast()
}
