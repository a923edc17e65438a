// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package lrucache

import (
	"bytes"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := New(3, false)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c, err = New(0, true)
	require.ErrorIs(t, err, ErrInvalidSize)
	assert.Nil(t, c)
}

func TestAddAndGet(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		t.Run("compress="+strconv.FormatBool(compress), func(t *testing.T) {
			t.Parallel()

			c, err := New(2, compress)
			require.NoError(t, err)

			large := bytes.Repeat([]byte("msgid \"Copy\"\nmsgstr \"Kopioi\"\n"), 200)

			assert.False(t, c.Add("fi/po", large))
			assert.False(t, c.Add("de/po", []byte("x")))

			got, ok := c.Get("fi/po")
			require.True(t, ok)
			assert.Equal(t, large, got)

			// "de/po" is now the least recently used entry.
			assert.True(t, c.Add("sv/po", []byte("y")))

			_, ok = c.Get("de/po")
			assert.False(t, ok)
			assert.Equal(t, []string{"fi/po", "sv/po"}, c.Keys())
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	t.Parallel()

	c, _ := New(1, false)

	value := []byte("abc")
	c.Add("k", value)
	value[0] = 'X'

	got, _ := c.Get("k")
	assert.Equal(t, "abc", string(got))

	got[1] = 'Y'

	again, _ := c.Get("k")
	assert.Equal(t, "abc", string(again))
}

func TestAddExistingKey(t *testing.T) {
	t.Parallel()

	c, _ := New(2, false)

	c.Add("k1", []byte("v1"))
	c.Add("k2", []byte("v2"))

	assert.False(t, c.Add("k1", []byte("v1-updated")))

	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "v1-updated", string(got))
	assert.Equal(t, 2, c.Len())
}

func TestRemovePrefixAndPurge(t *testing.T) {
	t.Parallel()

	c, _ := New(10, true)

	c.Add("gen1/fi/po", []byte("a"))
	c.Add("gen1/de/po", []byte("b"))
	c.Add("gen2/fi/po", []byte("c"))

	assert.Equal(t, 2, c.RemovePrefix("gen1/"))
	assert.Equal(t, []string{"gen2/fi/po"}, c.Keys())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, _ := New(16, true)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Go(func() {
			for j := range 100 {
				key := strconv.Itoa((i * j) % 32)
				c.Add(key, []byte(key))

				if got, ok := c.Get(key); ok {
					assert.Equal(t, key, string(got))
				}
			}
		})
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
