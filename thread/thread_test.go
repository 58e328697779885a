/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"testing"
	"time"
)

func TestCreateThreadAssignsDistinctIDs(t *testing.T) {
	a := CreateThread()
	b := CreateThread()
	defer RemoveThread(a.ID)
	defer RemoveThread(b.ID)

	if a.ID == b.ID {
		t.Fatalf("expected distinct thread IDs, got %d and %d", a.ID, b.ID)
	}
	if a.Status != StatusNew || b.Status != StatusNew {
		t.Fatal("new threads should start in StatusNew")
	}
}

func TestRemoveThreadFreesIDForReuse(t *testing.T) {
	a := CreateThread()
	id := a.ID
	RemoveThread(id)

	b := CreateThread()
	defer RemoveThread(b.ID)

	if b.ID != id {
		t.Fatalf("expected freed ID %d to be reused, got %d", id, b.ID)
	}
}

// TestAllThreadsSharesIdentityWithCaller is the regression test for the
// two-copies bug: a caller's *ExecThread from CreateThread and the one
// AllThreads() (and so the GC's safepoint coordinator) sees must be the
// very same struct, or a safepoint request never reaches the thread
// actually polling it.
func TestAllThreadsSharesIdentityWithCaller(t *testing.T) {
	own := CreateThread()
	defer RemoveThread(own.ID)

	found := false
	for _, t2 := range AllThreads() {
		if t2.ID == own.ID {
			if t2 != own {
				t.Fatal("AllThreads() returned a different *ExecThread than CreateThread gave the caller")
			}
			found = true
		}
	}
	if !found {
		t.Fatal("newly created thread missing from AllThreads()")
	}
}

func TestSafepointRequestReachesPoller(t *testing.T) {
	th := CreateThread()
	defer RemoveThread(th.ID)

	polled := make(chan struct{})
	go func() {
		th.PollSafepoint() // returns immediately: no safepoint requested yet
		close(polled)
	}()
	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("PollSafepoint blocked with no safepoint requested")
	}

	// Now request a safepoint and have the "interpreter" thread poll again.
	th.RequestSafepoint()

	parked := make(chan struct{})
	go func() {
		close(parked)
		th.PollSafepoint()
	}()
	<-parked

	th.AwaitPaused()
	th.ReleaseSafepoint()

	// A second poll after release should return immediately.
	done := make(chan struct{})
	go func() {
		th.PollSafepoint()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PollSafepoint did not return after ReleaseSafepoint")
	}
}

func TestConservativeRootsAddRemove(t *testing.T) {
	th := CreateThread()
	defer RemoveThread(th.ID)

	obj := &struct{ x int }{x: 1}
	th.AddConservativeRoot(1, obj)
	th.AddConservativeRoot(2, "other")

	roots := th.ConservativeRoots()
	if len(roots) != 2 {
		t.Fatalf("expected 2 conservative roots, got %d", len(roots))
	}

	th.RemoveConservativeRoot(1)
	roots = th.ConservativeRoots()
	if len(roots) != 1 {
		t.Fatalf("expected 1 conservative root after removal, got %d", len(roots))
	}
	if roots[0] != "other" {
		t.Fatalf("unexpected surviving root: %v", roots[0])
	}
}
