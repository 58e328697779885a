/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap implements spec.md §7's memory manager: a single mmap'd
// region carved into headered chunks and a free list walked next-fit. On
// an allocation failure the jvm package's allocator escalates: collect,
// grow, collect-and-compact, then raise OutOfMemoryError.
package heap

import (
	"fmt"
	"jacobin/types"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// chunkHeader precedes every object and free block in the heap. Size
// includes the header; the low bit of Size doubles as the free/allocated
// flag (spec.md §7 "header-bit-encoded free list") so no separate
// bitmap is needed just to walk the heap linearly.
type chunkHeader struct {
	size uint64 // size in bytes, low bit: 1 = free, 0 = allocated
}

const headerSize = 8

func (h chunkHeader) isFree() bool    { return h.size&1 == 1 }
func (h chunkHeader) byteSize() uint64 { return h.size &^ 1 }

// Heap owns one mmap'd anonymous region and the allocator bookkeeping
// over it. A single mutex guards every mutation; spec.md scopes a
// lock-free bump allocator out (Non-goals), so coarse locking is the
// deliberate, simple choice here, same as most of the teacher's own
// shared-state packages.
type Heap struct {
	mu         sync.Mutex
	region     mmap.MMap
	size       int64
	used       int64
	cursor     int64 // next-fit scan cursor, byte offset into region
	maxSize    int64
	growChunk  int64
}

// OOMStage identifies which of spec.md §7's three out-of-memory
// escalation steps an allocation failure is currently at.
type OOMStage int

const (
	OOMStageNone OOMStage = iota
	OOMStageGrow
	OOMStageCollect
	OOMStageFail
)

// New creates a heap backed by an anonymous mmap region of initialSize
// bytes, willing to grow (by remapping a larger anonymous region and
// copying, since POSIX mremap isn't portably exposed to Go) up to
// maxSize.
func New(initialSize, maxSize int64) (*Heap, error) {
	if maxSize <= 0 {
		maxSize = types.DefaultMaxHeapSize
	}
	if initialSize <= 0 || initialSize > maxSize {
		initialSize = maxSize / 4
	}
	region, err := mmap.MapRegion(nil, int(initialSize), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("heap.New: mmap failed: %w", err)
	}

	h := &Heap{
		region:    region,
		size:      initialSize,
		maxSize:   maxSize,
		growChunk: initialSize,
	}
	h.initFreeList()
	return h, nil
}

// initFreeList lays down a single free chunk spanning the whole region.
func (h *Heap) initFreeList() {
	hdr := chunkHeader{size: uint64(h.size) | 1}
	putHeader(h.region, 0, hdr)
}

func putHeader(region []byte, offset int64, hdr chunkHeader) {
	v := hdr.size
	for i := 0; i < 8; i++ {
		region[offset+int64(i)] = byte(v >> (8 * i))
	}
}

func getHeader(region []byte, offset int64) chunkHeader {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(region[offset+int64(i)]) << (8 * i)
	}
	return chunkHeader{size: v}
}

// align rounds n up to types.Grain, the VM's allocation granularity.
func align(n int64) int64 {
	g := int64(types.Grain)
	return (n + g - 1) / g * g
}

// Alloc reserves at least n bytes (plus header) and returns the byte
// offset of the usable region (just past the header), or ok=false if no
// chunk was found -- the caller (the jvm package's allocate) then runs a
// collection and retries, grows, collects with compaction, and finally
// raises OutOfMemoryError.
func (h *Heap) Alloc(n int64) (offset int64, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	need := align(n) + headerSize
	start := h.cursor
	scanned := int64(0)
	pos := start

	for scanned < h.size {
		hdr := getHeader(h.region, pos)
		sz := int64(hdr.byteSize())
		if sz == 0 {
			break // corrupt heap; bail rather than loop forever
		}
		if hdr.isFree() && sz >= need {
			h.splitAndAllocate(pos, sz, need)
			h.cursor = pos + need
			if h.cursor >= h.size {
				h.cursor = 0
			}
			h.used += need
			return pos + headerSize, true
		}
		pos += sz
		scanned += sz
		if pos >= h.size {
			pos = 0
		}
	}
	return 0, false
}

func (h *Heap) splitAndAllocate(pos, chunkSize, need int64) {
	remainder := chunkSize - need
	if remainder >= headerSize+int64(types.Grain) {
		putHeader(h.region, pos, chunkHeader{size: uint64(need)})
		putHeader(h.region, pos+need, chunkHeader{size: uint64(remainder) | 1})
	} else {
		// too small to split usefully; the whole chunk is allocated,
		// internal fragmentation of remainder<grain bytes accepted.
		putHeader(h.region, pos, chunkHeader{size: uint64(chunkSize)})
	}
}

// Free marks the chunk at offset (as returned by Alloc) free again.
// Adjacent free chunks are not merged, neither here nor by the gc
// package's sweep, so a later Alloc larger than each of them fails even
// when their combined size would fit.
func (h *Heap) Free(offset int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pos := offset - headerSize
	hdr := getHeader(h.region, pos)
	if hdr.isFree() {
		return // double free; ignore rather than corrupt bookkeeping
	}
	h.used -= int64(hdr.byteSize())
	putHeader(h.region, pos, chunkHeader{size: hdr.size | 1})
}

// Bytes exposes the raw backing region for a given offset and length, for
// the object representation layer to read/write instance data directly.
func (h *Heap) Bytes(offset, length int64) []byte {
	return h.region[offset : offset+length]
}

// Size, Used, and MaxSize report the heap's current bookkeeping,
// consumed by the gc package's OOM escalation and by diagnostics.
func (h *Heap) Size() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *Heap) Used() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.used
}

func (h *Heap) MaxSize() int64 { return h.maxSize }

// Grow attempts to enlarge the heap by growChunk bytes (or up to
// maxSize), remapping a new anonymous region, copying live bytes over,
// and writing the added space as one new free chunk at the old end; a
// free chunk that already ended there is not merged with it.
// Returns false if already at maxSize.
func (h *Heap) Grow() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size >= h.maxSize {
		return false
	}
	newSize := h.size + h.growChunk
	if newSize > h.maxSize {
		newSize = h.maxSize
	}

	newRegion, err := mmap.MapRegion(nil, int(newSize), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return false
	}
	copy(newRegion, h.region)
	_ = h.region.Unmap()

	// the appended space becomes one new free chunk at the old end
	putHeader(newRegion, h.size, chunkHeader{size: uint64(newSize-h.size) | 1})

	h.region = newRegion
	h.size = newSize
	return true
}

// Close unmaps the heap's backing region. Called once at VM shutdown.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.region == nil {
		return nil
	}
	err := h.region.Unmap()
	h.region = nil
	return err
}
