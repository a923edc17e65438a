// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"errors"
	"strconv"
	"strings"
)

// Load-time errors.
var (
	ErrMalformedDocument        = errors.New("malformed document")
	ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")
)

// Lookup-time errors. These are returned by [Catalog.Find] only; the Lookup
// methods fall back to the source text instead.
var (
	ErrMissingKey              = errors.New("missing key")
	ErrAmbiguous               = errors.New("ambiguous lookup, disambiguation required")
	ErrPluralFormCountMismatch = errors.New("plural form count mismatch")
)

// ParseError describes why a catalog document could not be loaded.
//
// Err is either ErrMalformedDocument or ErrUnsupportedSchemaVersion, so
// callers can test for the category with errors.Is.
type ParseError struct {
	File   string // name given with WithName, may be empty
	Line   int    // 1-based, 0 when unknown
	Column int    // 1-based, 0 when unknown
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString("catalog: ")

	if e.File != "" {
		b.WriteString(e.File)

		if e.Line > 0 {
			b.WriteString(":" + strconv.Itoa(e.Line))

			if e.Column > 0 {
				b.WriteString(":" + strconv.Itoa(e.Column))
			}
		}

		b.WriteString(": ")
	} else if e.Line > 0 {
		b.WriteString("line " + strconv.Itoa(e.Line) + ": ")
	}

	b.WriteString(e.Err.Error())

	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}

	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
