// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// opKey identifies a memoized recursive call: the operator tag plus up to
// three operand edges (ITE uses all three; AND/XOR leave h at nilEdge).
// Unlike the teacher's cache.go, which hand-rolls an open-addressed table
// with its own _PAIR/_TRIPLE hash combinators, the cache is a plain Go
// value usable as a map key, so we hand it to an off-the-shelf LRU instead
// (§4.2: "the cache is a hint, not a source of truth — any entry may be
// evicted at any time without affecting correctness").
type opKey struct {
	tag  uint8
	f, g, h Edge
}

// opTag enumerates the memoized recursive operations.
type opTag uint8

const (
	tagAnd opTag = iota
	tagXor
	tagIte
)

// opCache is the operation cache described in §4.2. It is deliberately not
// a source of truth: every result it returns must still be one a fresh
// recursive computation would have produced, so it is safe to evict or to
// drop wholesale (after a GC pass that freed nodes, on reorder) without ever
// calling invalidate logic beyond Purge.
type opCache struct {
	lru *lru.Cache[opKey, Edge]
}

func newOpCache(size int) *opCache {
	if size < 1 {
		size = 1 << 16
	}
	c, _ := lru.New[opKey, Edge](size)
	return &opCache{lru: c}
}

func (c *opCache) lookup(tag opTag, f, g, h Edge) (Edge, bool) {
	return c.lru.Get(opKey{tag: uint8(tag), f: f, g: g, h: h})
}

func (c *opCache) insert(tag opTag, f, g, h, result Edge) {
	c.lru.Add(opKey{tag: uint8(tag), f: f, g: g, h: h}, result)
}

// Purge drops every cached entry; called after a swap, an expansion-type
// change, or a sifting sweep, since all three can make a cached result
// refer to a node address or a complement that no longer means what it
// used to at its old position in the hash-consed pool. It is also called
// after a GC pass that reclaimed nodes, since a freed slot can be reused
// for a different node while a cached key or result still names it.
// Growing the node pool does not purge the cache.
func (c *opCache) Purge() { c.lru.Purge() }
