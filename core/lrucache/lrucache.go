// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
of byte slices, such as rendered catalog exports.

Keys are strings. The cache evicts the least recently used entry when it reaches capacity.
When created with compression enabled via [New], values are stored zstd-compressed whenever
that saves space and are transparently decompressed by [Cache.Get].
*/
package lrucache

import (
	"container/list"
	"errors"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity, least-recently-used cache that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache struct {
	size      int                      // Maximum number of entries
	evictList *list.List               // Front is the most recently used entry
	items     map[string]*list.Element // Keys to their list elements
	lock      sync.Mutex
	zstdEnc   *zstd.Encoder // nil when compression is disabled
	zstdDec   *zstd.Decoder
}

type cacheEntry struct {
	key        string
	value      []byte
	compressed bool
}

// New creates a cache holding at most size entries.
//
// It returns an error if size is not a positive integer.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}

	if compress {
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.zstdEnc = enc
		c.zstdDec = dec
	}

	return c, nil
}

// Add stores a copy of value under key, making it the most recently used entry.
// Add reports whether an eviction occurred.
func (c *Cache) Add(key string, value []byte) bool {
	stored, compressed := c.prepare(value)

	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)

		e := ent.Value.(*cacheEntry)
		e.value, e.compressed = stored, compressed

		return false
	}

	c.items[key] = c.evictList.PushFront(&cacheEntry{key: key, value: stored, compressed: compressed})

	evicted := c.evictList.Len() > c.size
	if evicted {
		c.removeElement(c.evictList.Back())
	}

	return evicted
}

// Get returns a copy of the value stored under key and marks it as most
// recently used. The second result reports whether the key was found.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.Lock()

	ent, ok := c.items[key]
	if !ok {
		c.lock.Unlock()

		return nil, false
	}

	c.evictList.MoveToFront(ent)

	e := ent.Value.(*cacheEntry)
	stored, compressed := e.value, e.compressed

	c.lock.Unlock()

	if !compressed {
		return append([]byte(nil), stored...), true
	}

	decoded, err := c.zstdDec.DecodeAll(stored, nil)
	if err != nil {
		return nil, false
	}

	return decoded, true
}

// RemovePrefix deletes every entry whose key starts with prefix and returns
// the number of entries removed.
func (c *Cache) RemovePrefix(prefix string) int {
	c.lock.Lock()
	defer c.lock.Unlock()

	n := 0

	for key, ent := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(ent)
			n++
		}
	}

	return n
}

// Purge removes all entries.
func (c *Cache) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.evictList.Init()
	clear(c.items)
}

// Keys returns all keys in the cache, from the oldest to the newest.
func (c *Cache) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))

	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		keys = append(keys, ent.Value.(*cacheEntry).key)
	}

	return keys
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

func (c *Cache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	delete(c.items, e.Value.(*cacheEntry).key)
}

// prepare compresses value when that reduces its size, and copies it otherwise
// so callers cannot mutate the cached bytes. It runs without the lock held; the
// zstd encoder supports concurrent EncodeAll calls.
func (c *Cache) prepare(value []byte) ([]byte, bool) {
	if len(value) == 0 {
		return nil, false
	}

	if c.zstdEnc != nil {
		if compressed := c.zstdEnc.EncodeAll(value, nil); len(compressed) < len(value) {
			return compressed, true
		}
	}

	return append([]byte(nil), value...), false
}
