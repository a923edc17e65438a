// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
)

var (
	errChmodSocket = errors.New("failed to change unix socket permissions")
	errChownSocket = errors.New("failed to change unix socket ownership")
)

// listenOptions selects between a TCP listener on Host:Port and a unix
// socket at Socket, which then gets SocketMode and, when set, the given
// owner and group.
type listenOptions struct {
	Host, Port  string
	Socket      string
	SocketMode  os.FileMode
	SocketUser  string
	SocketGroup string
}

func listenOptionsFromConfig() listenOptions {
	basic := config.Global.Basic

	return listenOptions{
		Host:        basic.Host,
		Port:        basic.Port,
		Socket:      basic.UnixSocket,
		SocketMode:  basic.UnixSocketPermissions,
		SocketUser:  basic.UnixSocketUser,
		SocketGroup: basic.UnixSocketGroup,
	}
}

func listen(ctx context.Context, opts listenOptions) (net.Listener, error) {
	var lc net.ListenConfig

	if opts.Socket != "" {
		ln, err := lc.Listen(ctx, "unix", opts.Socket)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on unix socket %s: %w", opts.Socket, err)
		}

		if err := opts.prepareSocket(); err != nil {
			_ = ln.Close()

			return nil, err
		}

		log.Info().
			Str("address", opts.Socket).
			Stringer("mode", opts.SocketMode).
			Msg("Listening on unix domain socket")

		return ln, nil
	}

	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(opts.Host, opts.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", net.JoinHostPort(opts.Host, opts.Port), err)
	}

	addr := ln.Addr().String()
	_, port, _ := net.SplitHostPort(addr)

	log.Info().
		Str("address", addr).
		Str("url", "http://localhost:"+port+"/api/v1/locales").
		Msg("Listening on address")

	return ln, nil
}

// prepareSocket applies the configured ownership and mode to the socket file.
func (opts listenOptions) prepareSocket() error {
	uid, err := lookupID(opts.SocketUser, func(name string) (string, error) {
		u, err := user.Lookup(name)
		if err != nil {
			return "", err
		}

		return u.Uid, nil
	})
	if err != nil {
		return fmt.Errorf("%w: user %q: %w", errChownSocket, opts.SocketUser, err)
	}

	gid, err := lookupID(opts.SocketGroup, func(name string) (string, error) {
		g, err := user.LookupGroup(name)
		if err != nil {
			return "", err
		}

		return g.Gid, nil
	})
	if err != nil {
		return fmt.Errorf("%w: group %q: %w", errChownSocket, opts.SocketGroup, err)
	}

	if uid != -1 || gid != -1 {
		if err := os.Chown(opts.Socket, uid, gid); err != nil {
			return fmt.Errorf("%w: %w", errChownSocket, err)
		}
	}

	if err := os.Chmod(opts.Socket, opts.SocketMode); err != nil {
		return fmt.Errorf("%w: %w", errChmodSocket, err)
	}

	return nil
}

// lookupID resolves a numeric user or group ID, or a name through lookup.
// An empty value yields -1, which os.Chown leaves unchanged.
func lookupID(value string, lookup func(name string) (string, error)) (int, error) {
	if value == "" {
		return -1, nil
	}

	if id, err := strconv.Atoi(value); err == nil {
		return id, nil
	}

	raw, err := lookup(value)
	if err != nil {
		return -1, err
	}

	return strconv.Atoi(raw)
}
