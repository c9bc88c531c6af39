// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// LRUCache is a least-recently-used cache bounding how many entries it
// holds. A zero LRUCache is usable and has a cache size of 128 items;
// use NewLRUCache (or NewLRUCacheWithEvict) to set a different size.
//
// An eviction callback can be registered: worldcache.Registry uses
// one to Close an evicted region.Reader's file handle the moment it
// falls out of the open-region pool, rather than leaking it until
// process exit.
type LRUCache[K comparable, V any] struct {
	initOnce sync.Once
	size     int
	onEvict  func(K, V)
	inner    *lru.Cache
}

// NewLRUCache returns a cache holding at most size entries.
func NewLRUCache[K comparable, V any](size int) *LRUCache[K, V] {
	return &LRUCache[K, V]{size: size}
}

// NewLRUCacheWithEvict returns a cache holding at most size entries,
// calling onEvict synchronously whenever an entry is pushed out by
// Add (by capacity) or removed by Remove/Purge.
func NewLRUCacheWithEvict[K comparable, V any](size int, onEvict func(K, V)) *LRUCache[K, V] {
	return &LRUCache[K, V]{size: size, onEvict: onEvict}
}

func (c *LRUCache[K, V]) init() {
	c.initOnce.Do(func() {
		size := c.size
		if size <= 0 {
			size = 128
		}
		if c.onEvict != nil {
			c.inner, _ = lru.NewWithEvict(size, func(key, value interface{}) {
				c.onEvict(key.(K), value.(V))
			})
		} else {
			c.inner, _ = lru.New(size)
		}
	})
}

func (c *LRUCache[K, V]) Add(key K, value V) {
	c.init()
	c.inner.Add(key, value)
}
func (c *LRUCache[K, V]) Contains(key K) bool {
	c.init()
	return c.inner.Contains(key)
}
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.init()
	_value, ok := c.inner.Get(key)
	if ok {
		value = _value.(V)
	}
	return value, ok
}
func (c *LRUCache[K, V]) Keys() []K {
	c.init()
	untyped := c.inner.Keys()
	typed := make([]K, len(untyped))
	for i := range untyped {
		typed[i] = untyped[i].(K)
	}
	return typed
}
func (c *LRUCache[K, V]) Len() int {
	c.init()
	return c.inner.Len()
}
func (c *LRUCache[K, V]) Peek(key K) (value V, ok bool) {
	c.init()
	_value, ok := c.inner.Peek(key)
	if ok {
		value = _value.(V)
	}
	return value, ok
}
func (c *LRUCache[K, V]) Purge() {
	c.init()
	c.inner.Purge()
}
func (c *LRUCache[K, V]) Remove(key K) {
	c.init()
	c.inner.Remove(key)
}

func (c *LRUCache[K, V]) GetOrElse(key K, fn func() V) V {
	var value V
	var ok bool
	for value, ok = c.Get(key); !ok; value, ok = c.Get(key) {
		c.Add(key, fn())
	}
	return value
}
