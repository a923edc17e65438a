// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"fmt"
	"strings"
)

// maxMarker is the highest place marker number, as in Qt.
const maxMarker = 99

// marker is a place marker found in a template.
type marker struct {
	start, end int  // byte offsets of the marker in the template
	number     int  // 1-99, 0 for an escaped percent sign
	localized  bool // %L1 style
}

// scanMarker parses the place marker starting at s[i], which must be '%'.
// It returns false when s[i:] does not start a marker.
func scanMarker(s string, i int) (marker, bool) {
	j := i + 1
	if j >= len(s) {
		return marker{}, false
	}

	if s[j] == '%' {
		return marker{start: i, end: j + 1}, true
	}

	localized := false
	if s[j] == 'L' {
		localized = true
		j++
	}

	num, digits := 0, 0
	for j < len(s) && digits < 2 && s[j] >= '0' && s[j] <= '9' {
		num = num*10 + int(s[j]-'0')
		j++
		digits++
	}

	if digits == 0 || num == 0 || num > maxMarker {
		return marker{}, false
	}

	return marker{start: i, end: j, number: num, localized: localized}, true
}

// Markers returns the place marker numbers used in s, in order of appearance
// and with repetitions. %n, %Ln and escaped percent signs are not included.
func Markers(s string) []int {
	var out []int

	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}

		m, ok := scanMarker(s, i)
		if !ok {
			continue
		}

		if m.number > 0 {
			out = append(out, m.number)
		}

		i = m.end - 1
	}

	return out
}

// Format substitutes the place markers %1 to %99 in template with args, so %1
// is replaced by args[0]. %L1 style markers are treated like %1. "%%" yields a
// literal percent sign. Markers without a matching argument are left intact.
//
// Format does not translate; it runs after Lookup or LookupPlural resolved the
// template.
func Format(template string, args ...any) string {
	return format(template, args, fmt.Sprint)
}

// Format is like the package level Format, but renders %L1 style markers with
// the number formatting of the catalog language.
func (c *Catalog) Format(template string, args ...any) string {
	return format(template, args, c.printer.Sprint)
}

func format(template string, args []any, localize func(...any) string) string {
	if !strings.Contains(template, "%") {
		return template
	}

	var b strings.Builder

	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			b.WriteByte(template[i])

			continue
		}

		m, ok := scanMarker(template, i)
		if !ok {
			b.WriteByte('%')

			continue
		}

		switch {
		case m.number == 0:
			b.WriteByte('%')
		case m.number <= len(args) && m.localized:
			b.WriteString(localize(args[m.number-1]))
		case m.number <= len(args):
			b.WriteString(fmt.Sprint(args[m.number-1]))
		default:
			b.WriteString(template[m.start:m.end])
		}

		i = m.end - 1
	}

	return b.String()
}

// Arg replaces every occurrence of the lowest numbered place marker in s with
// a, like QString::arg. Escaped percent signs are kept as they are so Arg calls
// can be chained. If s has no place marker it is returned unchanged.
func Arg(s string, a any) string {
	lowest := 0

	for _, n := range Markers(s) {
		if lowest == 0 || n < lowest {
			lowest = n
		}
	}

	if lowest == 0 {
		return s
	}

	value := fmt.Sprint(a)

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])

			continue
		}

		m, ok := scanMarker(s, i)
		if !ok {
			b.WriteByte('%')

			continue
		}

		if m.number == lowest {
			b.WriteString(value)
		} else {
			b.WriteString(s[m.start:m.end])
		}

		i = m.end - 1
	}

	return b.String()
}
