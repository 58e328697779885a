/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"testing"

	"jacobin/heap"
	"jacobin/object"
)

func newTestCollector(t *testing.T) (*Collector, *heap.Heap) {
	t.Helper()
	h, err := heap.New(64*1024, 1024*1024)
	if err != nil {
		t.Fatalf("heap.New failed: %v", err)
	}
	return NewCollector(h), h
}

// alloc grabs a real chunk from h so Register/live entries refer to
// offsets the allocator (and therefore sweep's h.Free) actually owns,
// rather than fabricated numbers that happen not to crash.
func alloc(t *testing.T, h *heap.Heap, n int64) int64 {
	t.Helper()
	off, ok := h.Alloc(n)
	if !ok {
		t.Fatalf("h.Alloc(%d) failed", n)
	}
	return off
}

func TestCollectSweepsUnreachableObjects(t *testing.T) {
	c, h := newTestCollector(t)

	root := object.MakeEmptyObject()
	garbage := object.MakeEmptyObject()
	rootOff := alloc(t, h, 32)
	garbageOff := alloc(t, h, 32)
	c.Register(rootOff, root)
	c.Register(garbageOff, garbage)
	c.live[rootOff] = root
	c.live[garbageOff] = garbage

	c.Collect([]*object.Object{root}, false)

	if _, ok := c.live[rootOff]; !ok {
		t.Error("expected root to survive collection")
	}
	if _, ok := c.live[garbageOff]; ok {
		t.Error("expected unreachable object to be swept")
	}
}

func TestCollectUpdatesStats(t *testing.T) {
	c, h := newTestCollector(t)
	root := object.MakeEmptyObject()
	rootOff := alloc(t, h, 32)
	c.live[rootOff] = root

	before := c.Snapshot()
	if before.Cycles != 0 {
		t.Fatalf("expected zero cycles before any collection, got %d", before.Cycles)
	}

	c.Collect([]*object.Object{root}, false)
	after := c.Snapshot()
	if after.Cycles != 1 {
		t.Errorf("expected 1 cycle after one Collect call, got %d", after.Cycles)
	}
	if after.CompactCycles != 0 {
		t.Errorf("expected 0 compact cycles for a non-compacting collection, got %d", after.CompactCycles)
	}
	if after.LastCollectedAt.IsZero() {
		t.Error("expected LastCollectedAt to be stamped")
	}

	c.Collect([]*object.Object{root}, true)
	after2 := c.Snapshot()
	if after2.Cycles != 2 {
		t.Errorf("expected 2 cycles after a second Collect call, got %d", after2.Cycles)
	}
	if after2.CompactCycles != 1 {
		t.Errorf("expected 1 compact cycle after a compacting collection, got %d", after2.CompactCycles)
	}
}

func TestRegisterWeakClearedWhenUnreachable(t *testing.T) {
	c, h := newTestCollector(t)
	root := object.MakeEmptyObject()
	weak := object.MakeEmptyObject()
	rootOff := alloc(t, h, 32)
	weakOff := alloc(t, h, 32)
	c.live[rootOff] = root
	c.live[weakOff] = weak
	c.RegisterWeak(weakOff, weak)

	c.Collect([]*object.Object{root}, false)

	if len(c.weakRefs) != 1 {
		t.Fatalf("expected weak ref entry to remain tracked, got %d entries", len(c.weakRefs))
	}
	if !c.weakRefs[0].cleared {
		t.Error("expected weak ref to an unreachable object to be cleared")
	}
}
