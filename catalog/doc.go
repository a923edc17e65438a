// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package catalog loads and queries Qt Linguist translation catalogs (.ts files).

A catalog holds the translations of one target language, grouped by context.
Messages are looked up by context, source text and an optional
disambiguation (the <comment> element):

	c, err := catalog.Open(os.DirFS("locale"), "fi.ts")
	if err != nil {
		return err
	}

	c.Lookup("MainWindow", "Copy", "as noun")
	c.LookupPlural("Editor", "%n lines moved.", "", 5) // "5 riviä siirrettiin."
	catalog.Format(c.Lookup("Notes", "Note %1 was removed: %2", ""), name, err)

# Fallback

Lookups never fail. A key that is missing, unfinished, vanished or broken
resolves to its source text, with %n substituted for plural lookups. Use Find
to learn why a key did not resolve.

# Ambiguity

When a context holds the same source text under several disambiguations, a
lookup without a disambiguation is ambiguous. By default it falls back to the
source text and logs a warning once per key; WithAmbiguityPolicy(AmbiguityFirst)
picks the first declared message instead. A disambiguation that matches no
message falls back to the message without one.

# Plural forms

The plural rule is derived from the catalog language when the catalog is
loaded, see package catalog/plural. Numerus messages whose form count does not
match the rule are reported by Issues and treated as missing.
*/
package catalog
