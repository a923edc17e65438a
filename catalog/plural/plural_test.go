// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package plural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

func TestFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lang  string
		forms int
		want  map[int]int // count -> form index
	}{
		{"fi", 2, map[int]int{0: 1, 1: 0, 2: 1, 5: 1, 21: 1, -1: 0}},
		{"en-GB", 2, map[int]int{0: 1, 1: 0, 11: 1}},
		{"fr", 2, map[int]int{0: 0, 1: 0, 2: 1, 10: 1}},
		{"ja", 1, map[int]int{0: 0, 1: 0, 7: 0}},
		{"ru", 3, map[int]int{1: 0, 2: 1, 4: 1, 5: 2, 11: 2, 21: 0, 22: 1, 111: 2}},
		{"pl", 3, map[int]int{1: 0, 2: 1, 5: 2, 12: 2, 22: 1}},
		{"cs", 3, map[int]int{1: 0, 3: 1, 5: 2}},
		{"lv", 3, map[int]int{0: 2, 1: 0, 2: 1, 11: 1, 21: 0}},
		{"ro", 3, map[int]int{0: 1, 1: 0, 19: 1, 20: 2, 101: 1}},
		{"ar", 6, map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 11: 4, 100: 5}},
		{"sl", 4, map[int]int{1: 0, 2: 1, 3: 2, 5: 3, 101: 0}},
		{"kl", 2, map[int]int{1: 0, 2: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			t.Parallel()

			rule := For(language.MustParse(tt.lang))

			assert.Equal(t, tt.forms, rule.Forms())

			for n, want := range tt.want {
				assert.Equal(t, want, rule.Index(n), "count %d", n)
			}
		})
	}
}

func TestForUndefined(t *testing.T) {
	t.Parallel()

	rule := For(language.Und)

	assert.Equal(t, 2, rule.Forms())
	assert.Equal(t, 0, rule.Index(1))
	assert.Equal(t, 1, rule.Index(0))
}

func TestFunc(t *testing.T) {
	t.Parallel()

	rule := Func(3, func(n int) int { return n })

	assert.Equal(t, 3, rule.Forms())
	assert.Equal(t, 1, rule.Index(-1), "negative counts are folded")
	assert.Equal(t, 2, rule.Index(7), "out of range selects the last form")
	assert.Equal(t, "", Expression(rule))

	assert.Equal(t, 1, Func(0, func(int) int { return 0 }).Forms())
}

func TestExpression(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(n != 1)", Expression(For(language.Finnish)))
	assert.Equal(t, "(n > 1)", Expression(For(language.French)))
	assert.Equal(t, "0", Expression(For(language.Japanese)))
	assert.Equal(t, "(n != 1)", Expression(Func(2, func(int) int { return 0 })))
}

func TestCategories(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []plural.Form{plural.One, plural.Other}, Categories(For(language.Finnish)))
	assert.Equal(t, []plural.Form{plural.One, plural.Other, plural.Zero}, Categories(For(language.Latvian)))
	assert.Equal(t, []plural.Form{plural.Other}, Categories(For(language.Japanese)))
	assert.Equal(t, []plural.Form{plural.One, plural.Other}, Categories(For(language.Und)))
	assert.Nil(t, Categories(Func(4, func(int) int { return 0 })))

	forms := Categories(For(language.Finnish))
	forms[0] = plural.Many
	assert.Equal(t, plural.One, Categories(For(language.Finnish))[0])
}
