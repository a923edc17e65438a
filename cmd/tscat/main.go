// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
tscat inspects and converts Qt Linguist translation catalogs.

Usage:

	tscat check [-no-lint] FILE...
	tscat lookup -context CTX -source TEXT [-comment DISAMBIGUATION] [-n COUNT] FILE
	tscat convert -to po|toml|yaml|ts [-o OUT] FILE
	tscat stats [-json] FILE...
	tscat merge [-o OUT] EXISTING TEMPLATE

FILE may be compressed with gzip (.ts.gz) or zstd (.ts.zst).
*/
package main

import (
	"os"

	"codeberg.org/tscat/tscat/core/audit"
)

func main() {
	audit.SetDefaultLogger()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
