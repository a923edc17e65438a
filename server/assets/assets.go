// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package assets embeds the static files served from the root path.
*/
package assets

import "embed"

// FS holds the files served as they are, such as robots.txt.
//
//go:embed robots.txt
var FS embed.FS
