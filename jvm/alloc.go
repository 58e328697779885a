/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"

	"jacobin/excNames"
	"jacobin/frames"
	"jacobin/gc"
	"jacobin/object"
)

// objectBaseSize and objectFieldSize are the nominal per-object and
// per-slot byte costs charged against VMHeap's -Xmx budget. This VM's
// instance data actually lives on the Go heap (object.Object/FieldTable),
// not inside VMHeap's mmap'd region -- see gc.go's own
// heap_objectStride precedent -- so these are accounting weights, not a
// literal memory layout, chosen to make -Xmx a meaningful knob rather
// than a number nothing ever charges against.
const (
	objectBaseSize  = 32
	objectFieldSize = 16
	arraySlotSize   = 8
)

// allocate reserves size bytes of VMHeap for obj and registers it with
// VMCollector, running spec.md §7's three-stage out-of-memory escalation
// -- collect, grow, collect-and-compact -- before finally raising
// OutOfMemoryError. fs is the running thread's frame stack, scanned for
// GC roots if a collection is needed.
func allocate(fs *list.List, obj *object.Object, size int64) error {
	if offset, ok := VMHeap.Alloc(size); ok {
		track(obj, offset)
		return nil
	}
	if offset, ok := collectAndRetry(fs, size, false); ok {
		track(obj, offset)
		return nil
	}
	if VMHeap.Grow() {
		if offset, ok := VMHeap.Alloc(size); ok {
			track(obj, offset)
			return nil
		}
	}
	if offset, ok := collectAndRetry(fs, size, true); ok {
		track(obj, offset)
		return nil
	}
	return throwException(excNames.OutOfMemoryError, "heap space exhausted")
}

func track(obj *object.Object, offset int64) {
	obj.HeapOffset = offset
	obj.Tracked = true
	VMCollector.Register(offset, obj)
}

// collectAndRetry pauses every thread but the one allocating (MainThread
// always, today -- see gc.StopTheWorld's doc comment on why the caller
// can't wait on its own safepoint), runs one collection against fs's
// roots, resumes, and retries the allocation once.
func collectAndRetry(fs *list.List, size int64, compact bool) (int64, bool) {
	paused := gc.StopTheWorld(MainThread)
	VMCollector.Collect(gatherRoots(fs), compact)
	gc.ResumeTheWorld(paused)
	return VMHeap.Alloc(size)
}

// gatherRoots approximates spec.md §7/§9's root set: every *object.Object
// currently sitting on an operand stack or in a local-variable slot of any
// frame in fs, plus whatever MainThread has registered as a conservative
// root (a reference a native call is holding outside any frame's operand
// stack -- see thread.ExecThread's doc comment). package gc's own mark
// phase walks each root's reference fields transitively, so only the
// direct, frame-visible references need listing here.
func gatherRoots(fs *list.List) []*object.Object {
	var roots []*object.Object
	for e := fs.Front(); e != nil; e = e.Next() {
		f, ok := e.Value.(*frames.Frame)
		if !ok {
			continue
		}
		for i := 0; i <= f.TOS && i < len(f.OpStack); i++ {
			if o, ok := f.OpStack[i].(*object.Object); ok {
				roots = append(roots, o)
			}
		}
		for _, v := range f.Locals {
			if o, ok := v.(*object.Object); ok {
				roots = append(roots, o)
			}
		}
	}
	if MainThread != nil {
		for _, v := range MainThread.ConservativeRoots() {
			if o, ok := v.(*object.Object); ok {
				roots = append(roots, o)
			}
		}
	}
	return roots
}
