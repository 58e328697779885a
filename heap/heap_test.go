/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

import "testing"

func TestNewDefaultsAndAllocFree(t *testing.T) {
	h, err := New(4096, 65536)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer h.Close()

	if h.MaxSize() != 65536 {
		t.Errorf("expected max size 65536, got %d", h.MaxSize())
	}
	if h.Used() != 0 {
		t.Errorf("expected a fresh heap to report 0 used, got %d", h.Used())
	}

	off, ok := h.Alloc(128)
	if !ok {
		t.Fatal("expected Alloc(128) to succeed on a fresh heap")
	}
	if h.Used() == 0 {
		t.Error("expected Used() to reflect the allocation")
	}

	h.Free(off)
	if h.Used() != 0 {
		t.Errorf("expected Used() to return to 0 after freeing the only allocation, got %d", h.Used())
	}
}

func TestNewZeroSizesFallBackToDefaults(t *testing.T) {
	h, err := New(0, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer h.Close()

	if h.MaxSize() <= 0 {
		t.Error("expected a non-zero default max size")
	}
	if h.Size() <= 0 {
		t.Error("expected a non-zero default initial size")
	}
}

func TestDoubleFreeIsIgnored(t *testing.T) {
	h, err := New(4096, 65536)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer h.Close()

	off, ok := h.Alloc(64)
	if !ok {
		t.Fatal("expected Alloc to succeed")
	}
	h.Free(off)
	usedAfterFirstFree := h.Used()
	h.Free(off)
	if h.Used() != usedAfterFirstFree {
		t.Errorf("expected a double free to be a no-op, used changed from %d to %d", usedAfterFirstFree, h.Used())
	}
}

func TestAllocFailsPastMaxSize(t *testing.T) {
	h, err := New(4096, 4096)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer h.Close()

	if _, ok := h.Alloc(1 << 20); ok {
		t.Error("expected an allocation larger than the heap's max size to fail")
	}
}
