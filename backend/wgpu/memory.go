// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"container/list"
	"fmt"
	"sync"
)

// MemoryStats contains texture memory usage statistics.
type MemoryStats struct {
	// TotalBytes is the memory budget in bytes.
	TotalBytes uint64

	// UsedBytes is the currently charged memory in bytes.
	UsedBytes uint64

	// TextureCount is the number of live textures.
	TextureCount int

	// EvictionCount is the total number of textures evicted.
	EvictionCount uint64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%d/%d MB, %d textures, %d evictions]",
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.TextureCount,
		s.EvictionCount)
}

// memoryBudget tracks texture memory and evicts the least recently
// touched textures when a registration would exceed the budget.
// Eviction only discards pixel contents (live = false); the logical
// handle survives so the allocator can restore it through blits.
type memoryBudget struct {
	mu sync.Mutex

	totalBytes uint64
	usedBytes  uint64
	evictions  uint64

	// lru holds *Texture entries, most recently used at the front.
	lru     *list.List
	entries map[*Texture]*list.Element
}

func newMemoryBudget(totalBytes uint64) *memoryBudget {
	return &memoryBudget{
		totalBytes: totalBytes,
		lru:        list.New(),
		entries:    make(map[*Texture]*list.Element),
	}
}

// register charges a texture against the budget, evicting older
// textures as needed. A texture larger than the whole budget is still
// admitted; everything else gets evicted instead.
func (b *memoryBudget) register(t *Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.entries[t]; ok {
		return
	}

	for b.usedBytes+t.sizeBytes > b.totalBytes && b.lru.Len() > 0 {
		oldest := b.lru.Back()
		victim := oldest.Value.(*Texture)
		b.lru.Remove(oldest)
		delete(b.entries, victim)
		b.usedBytes -= victim.sizeBytes
		victim.live = false
		b.evictions++
	}

	b.entries[t] = b.lru.PushFront(t)
	b.usedBytes += t.sizeBytes
}

// touch marks a texture as recently used.
func (b *memoryBudget) touch(t *Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.entries[t]; ok {
		b.lru.MoveToFront(el)
	}
}

// unregister releases a texture's charge without counting an eviction.
func (b *memoryBudget) unregister(t *Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	el, ok := b.entries[t]
	if !ok {
		return
	}
	b.lru.Remove(el)
	delete(b.entries, t)
	b.usedBytes -= t.sizeBytes
}

// stats returns a snapshot of the budget counters.
func (b *memoryBudget) stats() MemoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return MemoryStats{
		TotalBytes:    b.totalBytes,
		UsedBytes:     b.usedBytes,
		TextureCount:  b.lru.Len(),
		EvictionCount: b.evictions,
	}
}
