// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package lint

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"codeberg.org/tscat/tscat/catalog"
)

func checkPlaceMarkers(source, translation string, _ bool) (string, string, bool) {
	want := markerSet(catalog.Markers(source))
	got := markerSet(catalog.Markers(translation))

	if maps.Equal(want, got) {
		return CodePlaceMarkers, "", true
	}

	return CodePlaceMarkers, fmt.Sprintf("place markers %v in source, %v in translation", sortedKeys(want), sortedKeys(got)), false
}

func markerSet(markers []int) map[int]struct{} {
	set := make(map[int]struct{}, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}

	return set
}

func sortedKeys(m map[int]struct{}) []int {
	return slices.Sorted(maps.Keys(m))
}

func checkNumerusMarker(source, translation string, numerus bool) (string, string, bool) {
	if !numerus || !hasCountMarker(source) || hasCountMarker(translation) {
		return CodeNumerusMarker, "", true
	}

	return CodeNumerusMarker, "translation lacks the %n place marker", false
}

func hasCountMarker(s string) bool {
	return strings.Contains(s, "%n") || strings.Contains(s, "%Ln")
}

func checkMarkup(source, translation string, _ bool) (string, string, bool) {
	want := tags(source)
	got := tags(translation)

	if maps.Equal(want, got) {
		return CodeMarkup, "", true
	}

	return CodeMarkup, fmt.Sprintf("tags %v in source, %v in translation", tagList(want), tagList(got)), false
}

// tags counts the start and end tags of s. End tags are keyed with a leading
// slash.
func tags(s string) map[string]int {
	counts := make(map[string]int)

	if !strings.Contains(s, "<") {
		return counts
	}

	z := html.NewTokenizer(strings.NewReader(s))

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				counts["!invalid"]++
			}

			return counts
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			counts[string(name)]++
		case html.EndTagToken:
			name, _ := z.TagName()
			counts["/"+string(name)]++
		}
	}
}

func tagList(counts map[string]int) []string {
	var out []string

	for _, name := range slices.Sorted(maps.Keys(counts)) {
		for range counts[name] {
			out = append(out, "<"+name+">")
		}
	}

	return out
}

// fullwidth maps CJK punctuation to its ASCII counterpart.
var fullwidth = map[rune]rune{
	'。': '.',
	'．': '.',
	'：': ':',
	'？': '?',
	'！': '!',
}

// endingPunctuation returns the ending punctuation of s, or 0.
func endingPunctuation(s string) rune {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if strings.HasSuffix(s, "...") {
		return '…'
	}

	r, _ := utf8.DecodeLastRuneInString(s)
	if mapped, ok := fullwidth[r]; ok {
		r = mapped
	}

	switch r {
	case '.', ':', '?', '!', '…':
		return r
	}

	return 0
}

func checkPunctuation(source, translation string, _ bool) (string, string, bool) {
	want := endingPunctuation(source)
	got := endingPunctuation(translation)

	if want == got {
		return CodePunctuation, "", true
	}

	return CodePunctuation, fmt.Sprintf("source ends with %s, translation with %s", describe(want), describe(got)), false
}

func describe(r rune) string {
	if r == 0 {
		return "no punctuation"
	}

	return fmt.Sprintf("%q", r)
}

func checkWhitespace(source, translation string, _ bool) (string, string, bool) {
	leading := func(s string) bool {
		r, _ := utf8.DecodeRuneInString(s)

		return unicode.IsSpace(r)
	}

	trailing := func(s string) bool {
		r, _ := utf8.DecodeLastRuneInString(s)

		return unicode.IsSpace(r)
	}

	switch {
	case leading(source) != leading(translation):
		return CodeWhitespace, "leading whitespace differs", false
	case trailing(source) != trailing(translation):
		return CodeWhitespace, "trailing whitespace differs", false
	}

	return CodeWhitespace, "", true
}

// hasAccelerator reports whether s marks a keyboard accelerator with '&'.
// "&&" is a literal ampersand and entities such as "&amp;" are not
// accelerators.
func hasAccelerator(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			continue
		}

		if i+1 >= len(s) {
			return false
		}

		next := s[i+1]

		switch {
		case next == '&':
			i++
		case isEntity(s[i+1:]):
		case next != ' ' && next != '\t' && next != '\n':
			return true
		}
	}

	return false
}

// isEntity reports whether s, the text after an '&', starts an entity
// reference such as "amp;" or "#x41;".
func isEntity(s string) bool {
	end := strings.IndexByte(s, ';')
	if end <= 0 {
		return false
	}

	name := s[:end]
	if name[0] == '#' {
		name = strings.TrimPrefix(name[1:], "x")

		return name != "" && strings.Trim(name, "0123456789abcdefABCDEF") == ""
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

func checkAccelerator(source, translation string, _ bool) (string, string, bool) {
	want := hasAccelerator(source)
	if want == hasAccelerator(translation) {
		return CodeAccelerator, "", true
	}

	if want {
		return CodeAccelerator, "source has an accelerator, translation has none", false
	}

	return CodeAccelerator, "translation has an accelerator the source lacks", false
}
