// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
ts_extract scans Go packages for translatable strings and writes them to a
Qt Linguist catalog.

It recognizes constant arguments of the lookup methods of registry.Registry
(Tr, TrD, TrN and TrND) and of catalog.Catalog and catalog.Translator
(Lookup and LookupPlural). With -merge, an existing output catalog keeps its
translations, the way lupdate updates a .ts file.
*/
package main

import (
	"bytes"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/tools/go/packages"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/core/audit"
)

func main() {
	outPath := flag.String("o", "locale/template.ts", "output file")
	lang := flag.String("lang", "", "target language of a new catalog")
	merge := flag.Bool("merge", false, "merge into the output catalog if it exists")
	flag.Parse()

	audit.SetDefaultLogger()

	patterns := flag.Args()
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	pkgs, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax, Tests: false}, patterns...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load packages")
	}

	if packages.PrintErrors(pkgs) > 0 {
		log.Fatal().Msg("Failed to load packages due to errors")
	}

	outDir, err := filepath.Abs(filepath.Dir(*outPath))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve output directory")
	}

	refs := extractRefs(pkgs, outDir, findLookupTypes(pkgs))

	template, err := buildCatalog(refs, *lang)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build catalog")
	}

	out := template

	if *merge {
		existing, err := catalog.Open(os.DirFS(filepath.Dir(*outPath)), filepath.Base(*outPath))

		switch {
		case err == nil:
			out, err = catalog.Merge(existing, template)
			if err != nil {
				log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to merge catalog")
			}
		case errors.Is(err, fs.ErrNotExist):
			log.Info().Str("path", *outPath).Msg("No catalog to merge into, writing a new one")
		default:
			log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to load catalog")
		}
	}

	var b bytes.Buffer
	if err := catalog.Encode(&b, out); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode catalog")
	}

	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(*outPath, b.Bytes(), 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to write output file")
	}

	stats := out.Stats()
	log.Info().
		Str("path", *outPath).
		Int("messages", stats.Messages).
		Int("unfinished", stats.Unfinished).
		Int("vanished", stats.Vanished).
		Msg("Wrote catalog")
}
