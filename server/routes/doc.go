// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes implements the JSON API served by the tscat daemon.

Handlers return an error instead of writing failures themselves;
middleware.CatchError turns it into a JSON error body. Return an *HTTPError to
pick the status code, anything else is reported as 500 Internal Server Error.
*/
package routes
