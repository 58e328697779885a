/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"
	"testing"

	"jacobin/classloader"
	"jacobin/frames"
	"jacobin/gc"
	"jacobin/heap"
	"jacobin/object"
	"jacobin/thread"
)

// setupAllocTest gives allocate() a live VMHeap/VMCollector/MainThread to
// work against, the same bootstrap StartMainThread performs, scaled down
// for a single test's allocations.
func setupAllocTest(t *testing.T) {
	t.Helper()
	h, err := heap.New(1<<16, 1<<20)
	if err != nil {
		t.Fatalf("heap.New: %v", err)
	}
	VMHeap = h
	VMCollector = gc.NewCollector(h)
	MainThread = thread.CreateThread()
	t.Cleanup(func() { thread.RemoveThread(MainThread.ID) })
}

// TestMultianewarrayBuildsNestedDimensions exercises a 2-dimensional
// int array: multianewarray must leave an outer *object.Object whose
// "value" field is a []*object.Object of per-row arrays, each row
// itself wrapping a []int64 of the requested length.
func TestMultianewarrayBuildsNestedDimensions(t *testing.T) {
	setupAllocTest(t)
	f := frames.CreateFrame(8)
	f.CP = &classloader.CPool{
		CpIndex:   make([]classloader.CpEntry, 3),
		ClassRefs: []uint16{2},
		Utf8Refs:  []string{"[[I"},
	}
	f.CP.CpIndex[1] = classloader.CpEntry{Type: classloader.ClassRef, Slot: 0}
	f.CP.CpIndex[2] = classloader.CpEntry{Type: classloader.UTF8, Slot: 0}

	f.Meth = []byte{MULTIANEWARRAY, 0x00, 0x01, 0x02}
	f.PushOperand(int64(3)) // outer dimension
	f.PushOperand(int64(4)) // inner dimension

	nextPC, _, done, err := execOne(list.New(), f, MULTIANEWARRAY, 0)
	if err != nil {
		t.Fatalf("multianewarray: %v", err)
	}
	if done {
		t.Fatal("multianewarray must not end the frame")
	}
	if nextPC != 4 {
		t.Fatalf("expected pc+4, got %d", nextPC)
	}

	outer, ok := f.PopOperand().(*object.Object)
	if !ok || outer == nil {
		t.Fatal("expected an *object.Object result")
	}
	rows, ok := outer.FieldTable["value"].Fvalue.([]*object.Object)
	if !ok || len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %#v", outer.FieldTable["value"].Fvalue)
	}
	for i, row := range rows {
		inner, ok := row.FieldTable["value"].Fvalue.([]int64)
		if !ok || len(inner) != 4 {
			t.Fatalf("row %d: expected a []int64 of length 4, got %#v", i, row.FieldTable["value"].Fvalue)
		}
	}
}

// TestWideIloadUsesTwoByteIndex confirms the wide prefix reads its
// local-variable index from two bytes rather than one, reaching a slot
// an ordinary ILOAD's single byte operand could never address.
func TestWideIloadUsesTwoByteIndex(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Locals = make([]interface{}, 300)
	f.Locals[257] = int64(42)
	f.Meth = []byte{WIDE, ILOAD, 0x01, 0x01} // index 0x0101 = 257

	nextPC, _, done, err := execOne(list.New(), f, WIDE, 0)
	if err != nil {
		t.Fatalf("wide iload: %v", err)
	}
	if done {
		t.Fatal("wide iload must not end the frame")
	}
	if nextPC != 4 {
		t.Fatalf("expected pc+4, got %d", nextPC)
	}
	got := f.PopOperand()
	if got != int64(42) {
		t.Fatalf("expected 42, got %v", got)
	}
}

// TestWideIincUsesTwoByteIndexAndConst confirms wide iinc reads both a
// two-byte local index and a two-byte signed delta, a six-byte
// instruction total instead of ordinary iinc's three.
func TestWideIincUsesTwoByteIndexAndConst(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Locals = make([]interface{}, 300)
	f.Locals[257] = int64(10)
	// index 0x0101 = 257, delta 0x0005 = 5
	f.Meth = []byte{WIDE, IINC, 0x01, 0x01, 0x00, 0x05}

	nextPC, _, done, err := execOne(list.New(), f, WIDE, 0)
	if err != nil {
		t.Fatalf("wide iinc: %v", err)
	}
	if done {
		t.Fatal("wide iinc must not end the frame")
	}
	if nextPC != 6 {
		t.Fatalf("expected pc+6, got %d", nextPC)
	}
	if f.Locals[257] != int64(15) {
		t.Fatalf("expected 15, got %v", f.Locals[257])
	}
}
