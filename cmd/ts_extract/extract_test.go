// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tscat/tscat/catalog"
)

func TestBuildCatalog(t *testing.T) {
	t.Parallel()

	refs := map[key][]ref{
		{ctx: "Editor", source: "Copy"}: {
			{file: "../ui/menu.go", line: 40},
			{file: "../ui/editor.go", line: 12},
			{file: "../ui/editor.go", line: 12},
		},
		{ctx: "Editor", source: "Copy", disambiguation: "as noun"}: {{file: "../ui/editor.go", line: 30}},
		{ctx: "Editor", source: "%n lines moved.", numerus: true}:  {{file: "../ui/editor.go", line: 50}},
		{ctx: "About", source: "Version %1"}:                       {{file: "../ui/about.go", line: 7}},
	}

	c, err := buildCatalog(refs, "ru")
	require.NoError(t, err)

	assert.Equal(t, "ru", c.Language)
	require.Len(t, c.Contexts, 2)
	assert.Equal(t, "About", c.Contexts[0].Name)
	assert.Equal(t, "Editor", c.Contexts[1].Name)

	msgs := c.Contexts[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "%n lines moved.", msgs[0].Source)
	assert.True(t, msgs[0].Numerus)
	assert.Len(t, msgs[0].NumerusForms, 3)

	assert.Equal(t, "Copy", msgs[1].Source)
	assert.Empty(t, msgs[1].Comment)
	assert.Equal(t, []catalog.Location{
		{File: "../ui/editor.go", Line: 12},
		{File: "../ui/menu.go", Line: 40},
	}, msgs[1].Locations)

	assert.Equal(t, "as noun", msgs[2].Comment)

	for _, m := range c.All() {
		assert.Equal(t, catalog.Unfinished, m.Status)
	}

	assert.Empty(t, c.Issues())

	// Every key falls back to its source text.
	assert.Equal(t, "Copy", c.Lookup("Editor", "Copy", ""))
	assert.Equal(t, "5 lines moved.", c.LookupPlural("Editor", "%n lines moved.", "", 5))
}

func TestBuildCatalogEncodes(t *testing.T) {
	t.Parallel()

	c, err := buildCatalog(map[key][]ref{
		{ctx: "Status", source: "Ready"}: {{file: "status.go", line: 3}},
	}, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, catalog.Encode(&buf, c))

	out := buf.String()
	assert.Contains(t, out, `<location filename="status.go" line="3"/>`)
	assert.Contains(t, out, `<translation type="unfinished"></translation>`)
}

func TestBuildCatalogInvalidLanguage(t *testing.T) {
	t.Parallel()

	_, err := buildCatalog(nil, "!!")
	require.Error(t, err)
}
