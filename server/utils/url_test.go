// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/tscat/tscat/server/utils"
)

func TestGetIntQueryParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		want    int
		wantOK  bool
		wantErr bool
	}{
		{"Absent", "/?x=1", 0, false, false},
		{"Empty", "/?n=", 0, false, false},
		{"Number", "/?n=5", 5, true, false},
		{"Negative", "/?n=-3", -3, true, false},
		{"Garbage", "/?n=five", 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok, err := utils.GetIntQueryParam(httptest.NewRequest(http.MethodGet, tt.query, nil), "n")
			if (err != nil) != tt.wantErr {
				t.Errorf("utils.GetIntQueryParam() error = %v, wantErr %v", err, tt.wantErr)
			}

			if got != tt.want || ok != tt.wantOK {
				t.Errorf("utils.GetIntQueryParam() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGetQueryParam(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/?context=Editor", nil)

	if got := utils.GetQueryParam(r, "context"); got != "Editor" {
		t.Errorf("utils.GetQueryParam() = %q, want %q", got, "Editor")
	}

	if got := utils.GetQueryParam(r, "format", "ts"); got != "ts" {
		t.Errorf("utils.GetQueryParam() = %q, want default %q", got, "ts")
	}
}

func TestIsConnectionSecure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		proto      string
		forwarded  string
		tls        bool
		want       bool
	}{
		{"TLS", "203.0.113.7:1234", "", "", true, true},
		{"PrivateProxy", "10.0.0.2:1234", "https", "", false, true},
		{"LoopbackProxy", "127.0.0.1:1234", "HTTPS", "", false, true},
		{"IPv6Loopback", "[::1]:1234", "https", "", false, true},
		{"MappedPrivate", "[::ffff:192.168.1.4]:1234", "https", "", false, true},
		{"PublicProxy", "203.0.113.7:1234", "https", "", false, false},
		{"PlainHTTP", "10.0.0.2:1234", "", "", false, false},
		{"Forwarded", "10.0.0.2:1234", "", `for=192.0.2.60;proto="https";by=10.0.0.2`, false, true},
		{"ForwardedFirstOnly", "10.0.0.2:1234", "", "proto=http, proto=https", false, false},
		{"ForwardedPublicProxy", "203.0.113.7:1234", "", "proto=https", false, false},
		{"BadRemoteAddr", "nonsense", "https", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr

			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			if tt.forwarded != "" {
				r.Header.Set("Forwarded", tt.forwarded)
			}

			if tt.tls {
				r.TLS = &tls.ConnectionState{}
			}

			if got := utils.IsConnectionSecure(r); got != tt.want {
				t.Errorf("utils.IsConnectionSecure() = %v, want %v", got, tt.want)
			}
		})
	}
}
