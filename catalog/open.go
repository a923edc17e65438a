// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compressed catalog suffixes recognised by Open.
const (
	SuffixGzip = ".gz"
	SuffixZstd = ".zst"
)

// Open loads the catalog stored at name in fsys. Files ending in ".gz" or
// ".zst" are decompressed first. The file name is used as the catalog name
// unless opts set another one.
func Open(fsys fs.FS, name string, opts ...Option) (*Catalog, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()

	var r io.Reader = f

	switch path.Ext(name) {
	case SuffixGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, &ParseError{File: name, Err: ErrMalformedDocument, Detail: err.Error()}
		}
		defer zr.Close()

		r = zr
	case SuffixZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, &ParseError{File: name, Err: ErrMalformedDocument, Detail: err.Error()}
		}
		defer zr.Close()

		r = zr
	}

	return Load(r, append([]Option{WithName(name)}, opts...)...)
}

// TrimExt strips the compression suffix, if any, and then the ".ts" extension
// from name, so "locale/fi.ts.gz" becomes "locale/fi".
func TrimExt(name string) string {
	name = strings.TrimSuffix(name, SuffixGzip)
	name = strings.TrimSuffix(name, SuffixZstd)

	return strings.TrimSuffix(name, ".ts")
}
