// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package plural selects numerus forms for a count.

A [Rule] maps a cardinal count to the index of a numerus form. Rules are
resolved once per catalog with [For] and then bound into it, so lookups never
consult the locale again.

Most rules are backed by the CLDR cardinal categories shipped with
golang.org/x/text. The categories are ordered the way Qt Linguist orders
numerus forms for the language, which is the order translators fill in the
<numerusform> elements of a TS file.
*/
package plural

import (
	"slices"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// Rule selects a numerus form for a count.
type Rule interface {
	// Forms returns the number of numerus forms the rule expects.
	Forms() int

	// Index returns the numerus form index for n, in [0, Forms()).
	Index(n int) int
}

// Expression returns the gettext Plural-Forms expression for r, for example
// "(n != 1)". It returns the empty string when r has no known expression.
func Expression(r Rule) string {
	if e, ok := r.(interface{ Expression() string }); ok && e.Expression() != "" {
		return e.Expression()
	}

	switch r.Forms() {
	case 1:
		return "0"
	case 2: //nolint:mnd
		return "(n != 1)"
	}

	return ""
}

// Categories returns the CLDR cardinal category of each numerus form of r, in
// form order. Rules built with Func report one and other for two forms and
// other for a single form; nil is returned when no categories are known.
func Categories(r Rule) []plural.Form {
	switch r := r.(type) {
	case *cldrRule:
		return slices.Clone(r.forms)
	case *funcRule:
		if r.cats != nil {
			return slices.Clone(r.cats)
		}
	}

	switch r.Forms() {
	case 1:
		return []plural.Form{plural.Other}
	case 2: //nolint:mnd
		return []plural.Form{plural.One, plural.Other}
	}

	return nil
}

// cldrRule selects forms from CLDR cardinal categories.
type cldrRule struct {
	tag   language.Tag
	forms []plural.Form
	expr  string
}

func (r *cldrRule) Forms() int { return len(r.forms) }

func (r *cldrRule) Expression() string { return r.expr }

func (r *cldrRule) Index(n int) int {
	if len(r.forms) == 1 {
		return 0
	}

	if n < 0 {
		n = -n
	}

	form := plural.Cardinal.MatchPlural(r.tag, n, 0, 0, 0, 0)

	for i, f := range r.forms {
		if f == form {
			return i
		}
	}

	// Categories a language never uses for integers fall into the last form.
	return len(r.forms) - 1
}

// funcRule wraps a plain selection function.
type funcRule struct {
	forms int
	fn    func(n int) int
	expr  string
	cats  []plural.Form
}

func (r *funcRule) Forms() int { return r.forms }

func (r *funcRule) Expression() string { return r.expr }

func (r *funcRule) Index(n int) int {
	if n < 0 {
		n = -n
	}

	i := r.fn(n)
	if i < 0 || i >= r.forms {
		return r.forms - 1
	}

	return i
}

// Func returns a Rule with the given number of forms that selects an index with fn.
// The count passed to fn is never negative. Out of range indexes select the last form.
func Func(forms int, fn func(n int) int) Rule {
	if forms < 1 {
		forms = 1
	}

	return &funcRule{forms: forms, fn: fn}
}

// style describes a family of languages sharing one numerus layout.
type style struct {
	forms []plural.Form
	expr  string
	fn    func(n int) int // set when CLDR categories do not match Qt's rule
}

var (
	// japaneseStyle has a single form.
	japaneseStyle = style{
		forms: []plural.Form{plural.Other},
		expr:  "0",
	}

	// englishStyle distinguishes exactly one from everything else.
	englishStyle = style{
		forms: []plural.Form{plural.One, plural.Other},
		expr:  "(n != 1)",
	}

	// frenchStyle treats zero as singular.
	frenchStyle = style{
		forms: []plural.Form{plural.One, plural.Other},
		expr:  "(n > 1)",
	}

	russianStyle = style{
		forms: []plural.Form{plural.One, plural.Few, plural.Many},
		expr:  "(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2)",
	}

	polishStyle = style{
		forms: []plural.Form{plural.One, plural.Few, plural.Many},
		expr:  "(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2)",
	}

	czechStyle = style{
		forms: []plural.Form{plural.One, plural.Few, plural.Other},
		expr:  "(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2)",
	}

	lithuanianStyle = style{
		forms: []plural.Form{plural.One, plural.Few, plural.Other},
		expr:  "(n%10==1 && n%100!=11 ? 0 : n%10>=2 && (n%100<10 || n%100>=20) ? 1 : 2)",
	}

	slovenianStyle = style{
		forms: []plural.Form{plural.One, plural.Two, plural.Few, plural.Other},
		expr:  "(n%100==1 ? 0 : n%100==2 ? 1 : n%100==3 || n%100==4 ? 2 : 3)",
	}

	arabicStyle = style{
		forms: []plural.Form{plural.Zero, plural.One, plural.Two, plural.Few, plural.Many, plural.Other},
		expr:  "(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5)",
	}

	latvianStyle = style{
		forms: []plural.Form{plural.One, plural.Other, plural.Zero},
		expr:  "(n%10==1 && n%100!=11 ? 0 : n != 0 ? 1 : 2)",
		fn: func(n int) int {
			switch {
			case n%10 == 1 && n%100 != 11:
				return 0
			case n != 0:
				return 1
			}

			return 2
		},
	}

	romanianStyle = style{
		forms: []plural.Form{plural.One, plural.Few, plural.Other},
		expr:  "(n==1 ? 0 : (n==0 || (n%100 > 0 && n%100 < 20)) ? 1 : 2)",
		fn: func(n int) int {
			switch {
			case n == 1:
				return 0
			case n == 0 || (n%100 > 0 && n%100 < 20):
				return 1
			}

			return 2
		},
	}
)

// styles maps base language codes to their numerus layout.
var styles = map[string]style{
	"en": englishStyle, "de": englishStyle, "fi": englishStyle, "sv": englishStyle,
	"nl": englishStyle, "it": englishStyle, "es": englishStyle, "da": englishStyle,
	"nb": englishStyle, "nn": englishStyle, "et": englishStyle, "el": englishStyle,
	"eo": englishStyle, "bg": englishStyle, "ca": englishStyle, "eu": englishStyle,
	"gl": englishStyle, "he": englishStyle, "af": englishStyle, "sq": englishStyle,
	"ur": englishStyle,

	"ja": japaneseStyle, "zh": japaneseStyle, "ko": japaneseStyle, "vi": japaneseStyle,
	"th": japaneseStyle, "id": japaneseStyle, "ms": japaneseStyle, "tr": japaneseStyle,
	"hu": japaneseStyle, "fa": japaneseStyle, "my": japaneseStyle, "jv": japaneseStyle,

	"fr": frenchStyle, "hy": frenchStyle, "br": frenchStyle, "oc": frenchStyle,
	"ln": frenchStyle, "mg": frenchStyle, "ti": frenchStyle, "tl": frenchStyle,

	"ru": russianStyle, "uk": russianStyle, "be": russianStyle, "bs": russianStyle,
	"hr": russianStyle, "sr": russianStyle,

	"pl": polishStyle,
	"cs": czechStyle, "sk": czechStyle,
	"lt": lithuanianStyle,
	"lv": latvianStyle,
	"sl": slovenianStyle,
	"ro": romanianStyle,
	"ar": arabicStyle,
}

func singularIsOne(n int) int {
	if n == 1 {
		return 0
	}

	return 1
}

// For returns the Rule for the language of tag.
//
// Only the base language is considered, so "pt-BR" and "pt" share a rule.
// Unknown languages, and the undefined tag, get the two-form "n != 1" rule
// without consulting CLDR.
func For(tag language.Tag) Rule {
	base, _ := tag.Base()

	s, ok := styles[strings.ToLower(base.String())]
	if !ok {
		return &funcRule{forms: 2, fn: singularIsOne, expr: englishStyle.expr}
	}

	if s.fn != nil {
		return &funcRule{forms: len(s.forms), fn: s.fn, expr: s.expr, cats: s.forms}
	}

	return &cldrRule{
		tag:   language.Make(base.String()),
		forms: s.forms,
		expr:  s.expr,
	}
}
