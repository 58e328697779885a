/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package monitor

import (
	"sync"
	"testing"
	"time"
)

func TestThinLockRecursion(t *testing.T) {
	hash := uint32(1001)
	const thread = int32(7)

	for i := 0; i < 5; i++ {
		if !TryLockThin(hash, thread) {
			t.Fatalf("lock %d: expected thin acquisition to succeed", i)
		}
	}
	for i := 0; i < 4; i++ {
		if !UnlockThin(hash, thread) {
			t.Fatalf("unlock %d: expected thin release to succeed", i)
		}
		if atomicWord(hash) == 0 {
			t.Fatalf("unlock %d: lockword cleared before matching final unlock", i)
		}
	}
	if !UnlockThin(hash, thread) {
		t.Fatal("final unlock: expected success")
	}
	if atomicWord(hash) != 0 {
		t.Fatal("lockword should be zero after matched lock/unlock pairs")
	}
}

func atomicWord(objHash uint32) uint64 {
	return thinWords[thinKey(objHash)]
}

func TestThinLockContentionDetected(t *testing.T) {
	hash := uint32(2002)
	if !TryLockThin(hash, 1) {
		t.Fatal("thread 1 should acquire uncontended")
	}
	if TryLockThin(hash, 2) {
		t.Fatal("thread 2 should not acquire a thin lock already held by thread 1")
	}
	if UnlockThin(hash, 2) {
		t.Fatal("thread 2 unlocking a lock it never held should fail")
	}
	if !UnlockThin(hash, 1) {
		t.Fatal("thread 1 should be able to release its own thin lock")
	}
}

func TestInflateAndUnlock(t *testing.T) {
	hash := uint32(3003)
	m := Inflate(hash, 11)
	if m.owner != 11 {
		t.Fatalf("owner = %d, want 11", m.owner)
	}
	if err := m.Unlock(hash, 22); err == nil {
		t.Fatal("unlock by non-owner should fail with IllegalMonitorStateException")
	}
	if err := m.Unlock(hash, 11); err != nil {
		t.Fatalf("unlock by owner: %v", err)
	}
	if m.owner != 0 {
		t.Fatal("monitor should be unowned after matching unlock")
	}
}

func TestInflateBlocksSecondOwner(t *testing.T) {
	hash := uint32(4004)
	m := Inflate(hash, 1)

	acquired := make(chan struct{})
	go func() {
		Inflate(hash, 2)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second thread should not acquire while thread 1 still owns the monitor")
	case <-time.After(50 * time.Millisecond):
	}

	if err := m.Unlock(hash, 1); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second thread never acquired after first released")
	}
}

// TestNotifyWakesExactlyOne is the spec.md §8 "Wait/notify" property:
// notify delivers to exactly one waiter, leaving the rest parked.
func TestNotifyWakesExactlyOne(t *testing.T) {
	hash := uint32(5005)
	m := Inflate(hash, 1)

	const waiters = 3
	var wg sync.WaitGroup
	woke := make(chan int32, waiters)

	for i := int32(1); i <= waiters; i++ {
		id := i + 1 // ids 2..4, distinct from the initial owner 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			Inflate(hash, id)
			if err := m.Wait(id); err != nil {
				t.Errorf("Wait(%d): %v", id, err)
				return
			}
			woke <- id
			m.Unlock(hash, id)
		}()
	}

	// Give every waiter time to block in Inflate behind owner 1.
	time.Sleep(100 * time.Millisecond)

	if err := m.Unlock(hash, 1); err != nil {
		t.Fatalf("initial unlock: %v", err)
	}

	// Once released, the waiters acquire the monitor in turn and park in
	// Wait, which gives it up again.
	time.Sleep(100 * time.Millisecond)

	// The three waiters are now parked in Wait, not contending for
	// ownership, so this acquires immediately.
	owner := int32(100)
	Inflate(hash, owner)
	if err := m.Notify(owner); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	m.Unlock(hash, owner)

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("expected exactly one waiter to wake")
	}

	select {
	case <-woke:
		t.Fatal("a second waiter woke on a single Notify call")
	case <-time.After(100 * time.Millisecond):
	}

	// Release the waiters still parked so their goroutines can finish.
	Inflate(hash, owner)
	m.NotifyAll(owner)
	m.Unlock(hash, owner)

	wg.Wait()
}

func TestNotifyAllWakesEveryWaiterOnce(t *testing.T) {
	hash := uint32(6006)
	m := Inflate(hash, 1)

	const waiters = 4
	var wg sync.WaitGroup
	woke := make(chan int32, waiters)

	for i := int32(1); i <= waiters; i++ {
		id := i + 10
		wg.Add(1)
		go func() {
			defer wg.Done()
			Inflate(hash, id)
			if err := m.Wait(id); err != nil {
				t.Errorf("Wait(%d): %v", id, err)
				return
			}
			woke <- id
			m.Unlock(hash, id)
		}()
	}

	time.Sleep(100 * time.Millisecond)
	if err := m.Unlock(hash, 1); err != nil {
		t.Fatalf("initial unlock: %v", err)
	}

	// Let every waiter acquire the monitor in turn and park in Wait before
	// NotifyAll; a waiter not yet parked would not be woken by it.
	time.Sleep(100 * time.Millisecond)

	owner := int32(200)
	Inflate(hash, owner)
	if err := m.NotifyAll(owner); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	m.Unlock(hash, owner)

	seen := make(map[int32]bool)
	timeout := time.After(2 * time.Second)
	for i := 0; i < waiters; i++ {
		select {
		case id := <-woke:
			if seen[id] {
				t.Fatalf("waiter %d woke more than once", id)
			}
			seen[id] = true
		case <-timeout:
			t.Fatalf("only %d/%d waiters woke", i, waiters)
		}
	}
	wg.Wait()
}

func TestLockUnlockDispatchesThinThenFat(t *testing.T) {
	hash := uint32(8008)

	Lock(hash, 1)
	if err := Unlock(hash, 1); err != nil {
		t.Fatalf("thin-path unlock: %v", err)
	}

	// Force inflation by contending, then verify Unlock still finds it.
	Lock(hash, 1)
	blocked := make(chan struct{})
	go func() {
		Lock(hash, 2) // contends -> inflates, blocks until thread 1 unlocks
		close(blocked)
	}()
	time.Sleep(50 * time.Millisecond)
	select {
	case <-blocked:
		t.Fatal("thread 2 should still be blocked")
	default:
	}

	if err := Unlock(hash, 1); err != nil {
		t.Fatalf("fat-path unlock by original owner: %v", err)
	}
	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("thread 2 never acquired after thread 1 unlocked")
	}
	if err := Unlock(hash, 2); err != nil {
		t.Fatalf("fat-path unlock by new owner: %v", err)
	}
}

func TestWaitByNonOwnerFails(t *testing.T) {
	hash := uint32(7007)
	m := Inflate(hash, 1)
	if err := m.Wait(99); err == nil {
		t.Fatal("Wait by a thread that does not own the monitor should fail")
	}
	m.Unlock(hash, 1)
}
