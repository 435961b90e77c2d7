// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// cacheShards must be a power of 2.
	cacheShards = 8
	shardMask   = cacheShards - 1

	// DefaultCacheCapacity is the default number of programs kept per shard.
	DefaultCacheCapacity = 32
)

// ProgramCache memoizes WGSL to SPIR-V compilation by module source, with
// LRU eviction per shard. Style programs are reassembled whenever a blend
// starts or collapses, and usually come back to a source seen before.
//
// ProgramCache is safe for concurrent use. Returned words are shared and
// must not be modified.
type ProgramCache struct {
	shards   [cacheShards]*programShard
	capacity int
	compile  func(string) ([]uint32, error)

	hits   atomic.Uint64
	misses atomic.Uint64
}

type programShard struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
}

type programEntry struct {
	source string
	words  []uint32
}

// NewProgramCache returns a cache compiling with Compile. If capacity <= 0,
// DefaultCacheCapacity is used.
func NewProgramCache(capacity int) *ProgramCache {
	return newProgramCache(capacity, Compile)
}

func newProgramCache(capacity int, compile func(string) ([]uint32, error)) *ProgramCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &ProgramCache{capacity: capacity, compile: compile}
	for i := range c.shards {
		c.shards[i] = &programShard{entries: make(map[string]*list.Element), lru: list.New()}
	}
	return c
}

func (c *ProgramCache) shard(source string) *programShard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	return c.shards[h.Sum64()&shardMask]
}

// Compile returns the SPIR-V of source, compiling it on a miss. Failed
// compilations are not cached.
func (c *ProgramCache) Compile(source string) ([]uint32, error) {
	s := c.shard(source)
	s.mu.Lock()
	if el, ok := s.entries[source]; ok {
		s.lru.MoveToFront(el)
		words := el.Value.(*programEntry).words
		s.mu.Unlock()
		c.hits.Add(1)
		return words, nil
	}
	s.mu.Unlock()
	c.misses.Add(1)

	// Compile outside the lock; a concurrent miss on the same source
	// compiles twice and keeps the last result.
	words, err := c.compile(source)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[source]; ok {
		el.Value.(*programEntry).words = words
		s.lru.MoveToFront(el)
		return words, nil
	}
	for s.lru.Len() >= c.capacity {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		delete(s.entries, oldest.Value.(*programEntry).source)
	}
	s.entries[source] = s.lru.PushFront(&programEntry{source: source, words: words})
	return words, nil
}

// Len returns the number of cached programs.
func (c *ProgramCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.lru.Len()
		s.mu.Unlock()
	}
	return n
}

// Stats returns the hit and miss counts.
func (c *ProgramCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
