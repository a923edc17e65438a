// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package registry

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/core/untrusted"
)

type contextKeyType struct{}

var tagKey = contextKeyType{}

// LangParam is the name of the URL query parameter used by HTTP helpers to read
// a preferred language as a BCP 47 tag. The cookie counterpart is [untrusted.LangCookie].
const LangParam = "lang"

// WithTag stores t in ctx and returns a derived context that carries it.
//
// Passing the zero value of [language.Tag] clears any existing value.
// The ctx must not be nil.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, tagKey, t)
}

// TagFrom returns the language tag stored in ctx, or the base tag of r if
// none is present. It never returns the zero value of [language.Tag].
func (r *Registry) TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if t, _ := ctx.Value(tagKey).(language.Tag); t != (language.Tag{}) {
			return t
		}
	}

	return r.baseTag
}

// FromRequest returns the best supported language tag for req by inspecting
// user preferences in priority order:
// 1) query parameter [LangParam]
// 2) cookie [untrusted.LangCookie]
// 3) Accept-Language header
//
// Special case: if [LangParam] is "auto" (case-insensitive), the cookie is ignored
// and only the Accept-Language header is considered.
//
// If req is nil, or if Load has not been called, FromRequest returns the base tag.
func (r *Registry) FromRequest(req *http.Request) language.Tag {
	snap := r.current.Load()
	if req == nil || snap == nil {
		return r.baseTag
	}

	// Highest priority: explicit query parameter.
	q := req.URL.Query().Get(LangParam)
	auto := strings.EqualFold(q, "auto")

	preferred := make([]string, 0, 3)
	if q != "" && !auto {
		preferred = append(preferred, q)
	}

	// Next: cookie (skipped if "auto" was explicitly requested).
	if !auto {
		if c := untrusted.GetCookie(req, untrusted.LangCookie); c != "" {
			preferred = append(preferred, c)
		}
	}

	// Finally: Accept-Language header.
	if al := req.Header.Get("Accept-Language"); al != "" {
		preferred = append(preferred, al)
	}

	return snap.match(preferred...)
}

// WithRequest resolves the language from req using [Registry.FromRequest] and
// installs the matched tag in the returned context. It is equivalent to:
//
//	WithTag(ctx, r.FromRequest(req))
func (r *Registry) WithRequest(ctx context.Context, req *http.Request) context.Context {
	return WithTag(ctx, r.FromRequest(req))
}
