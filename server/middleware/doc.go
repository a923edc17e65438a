// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP middleware chain of the tscat daemon.

The chain is assembled by (*router.Router).RegisterMiddleware; route handlers
are wrapped individually with CatchError.
*/
package middleware
