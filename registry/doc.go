// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package registry serves translations from a directory of Qt Linguist
catalogs, one per locale, and picks the locale for each request.

# Quick start

	reg, err := registry.New(registry.Options{Directory: "locale", BaseLocale: "en"})
	if err != nil {
		return err
	}

	if err := reg.Load(ctx); err != nil {
		return err
	}

	ctx = reg.WithRequest(ctx, r)
	reg.Tr(ctx, "MainWindow", "Settings")
	reg.TrD(ctx, "MainWindow", "Open", "verb")
	reg.TrN(ctx, "Editor", "%n lines moved.", n)

Source strings are written in the base locale, which is always supported and
is the fallback for requests that match no catalog.

# Reloading

Reload parses the directory again and swaps the new set of catalogs in at
once. Lookups running concurrently see either the old set or the new one.
When the directory cannot be read, the old set stays in place.

# Missing translations

By default, missing translations return the source text. When
StrictMissingKeys is enabled, missing lookups are logged once per locale and
key and the returned text is visibly wrapped as "⟦...⟧".
*/
package registry
