/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package monitor implements spec.md §5's synchronization core: a
// thin-lock/fat-lock lockword, monitor inflation on contention, and
// wait/notify/notifyAll with lost-wakeup avoidance.
package monitor

import (
	"jacobin/excNames"
	"sync"
	"sync/atomic"
)

// lockword encodes a thin lock: the owner thread ID in the high 32 bits
// (thinOwnerShift) and the recursion count in the low 31 bits
// (thinRecursionMask); 0 means unlocked. Inflation is not recorded in the
// word itself: an inflated object has an entry in table, and fatTagBit is
// not used by any code.
type lockword uint64

const (
	fatTagBit    = 1
	thinOwnerShift = 32
	thinRecursionMask = 0x7FFFFFFF
)

// waiter is one thread parked in Object.wait(), woken individually so
// Notify can signal exactly one of them (spec.md §8's "notify delivers
// to exactly one waiter") rather than a condvar broadcast that would
// wake everyone regardless of how many permits were granted.
type waiter struct {
	id   int32
	wake chan struct{}
}

// Monitor is a fully inflated (fat) lock: a mutex plus a condition
// variable for entering threads, plus the recursion count and owning
// thread ID a thin lock also tracks.
type Monitor struct {
	mu        sync.Mutex
	cond      *sync.Cond
	owner     int32 // thread ID; 0 means unowned
	recursion int32
	waitSet   []*waiter // threads in Object.wait(), oldest first (FIFO)

	// entering counts threads currently blocked in Inflate's acquire loop
	// (spec.md §3's Monitor.waiters_entering_count). Deflation must not
	// reclaim a monitor that still has an entering thread: that thread
	// holds this *Monitor by reference, not by a fresh table lookup, so
	// deleting the table entry out from under it would leave the monitor
	// it eventually acquires unreachable by object hash forever after.
	entering int32
}

func newMonitor() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// table maps an object's identity hash to its inflated Monitor. Objects
// start out using a thin lock encoded directly in their MarkWord; only
// contended objects pay the cost of a table lookup and a real mutex,
// per spec.md §5's inflate-on-contention design.
var (
	tableMu sync.Mutex
	table   = make(map[uint32]*Monitor)
)

// LockWordFor is the key type under which an object's lock is inflated and
// consulted: its identity hash (object.MarkWord.Hash). Objects are
// keyed by identity hash rather than pointer because this VM's mark-
// compact phase can relocate an object; the hash is the one
// compaction-stable handle available (spec.md §8).
type LockWordFor = uint32

// TryLockThin attempts to acquire objHash's lock without inflating,
// returning (acquired=true) if it succeeded as an uncontended thin lock
// acquisition or recursive re-entry by the same thread. Returns
// acquired=false when another thread already owns it thinly -- the
// caller must then call Inflate and block on the fat monitor.
func TryLockThin(objHash uint32, threadID int32) bool {
	tableMu.Lock()
	if _, inflated := table[objHash]; inflated {
		tableMu.Unlock()
		return false
	}
	tableMu.Unlock()

	key := thinKey(objHash)
	for {
		cur := atomic.LoadUint64(&thinWords[key])
		if cur == 0 {
			word := lockword(uint64(threadID)<<thinOwnerShift | 1)
			if atomic.CompareAndSwapUint64(&thinWords[key], 0, uint64(word)) {
				return true
			}
			continue
		}
		owner := int32(cur >> thinOwnerShift)
		if owner == threadID {
			recursion := cur & thinRecursionMask
			newWord := (cur &^ thinRecursionMask) | (recursion + 1)
			if atomic.CompareAndSwapUint64(&thinWords[key], cur, newWord) {
				return true
			}
			continue
		}
		return false
	}
}

// UnlockThin releases one level of a thin lock held by threadID,
// returning false if threadID does not in fact own it (caller should
// raise IllegalMonitorStateException).
func UnlockThin(objHash uint32, threadID int32) bool {
	key := thinKey(objHash)
	for {
		cur := atomic.LoadUint64(&thinWords[key])
		if cur == 0 {
			return false
		}
		owner := int32(cur >> thinOwnerShift)
		if owner != threadID {
			return false
		}
		recursion := cur & thinRecursionMask
		if recursion <= 1 {
			if atomic.CompareAndSwapUint64(&thinWords[key], cur, 0) {
				return true
			}
			continue
		}
		newWord := (cur &^ thinRecursionMask) | (recursion - 1)
		if atomic.CompareAndSwapUint64(&thinWords[key], cur, newWord) {
			return true
		}
	}
}

// thinWords is a small sharded table standing in for the lockword this
// VM would otherwise store inline in the object header (Go gives us no
// way to embed a mutable word directly beside arbitrary heap data the
// way a C object header can); sharded by object hash to keep contention
// between unrelated objects low.
const thinShards = 4096

var thinWords [thinShards]uint64

func thinKey(objHash uint32) uint32 {
	return objHash % thinShards
}

// Lock acquires objHash's lock on behalf of threadID, trying the cheap
// thin path first and inflating to a fat Monitor only on contention --
// the MONITORENTER bytecode and ACC_SYNCHRONIZED method entry both
// reduce to exactly this call (spec.md §4.2 "Invoke").
func Lock(objHash uint32, threadID int32) {
	if TryLockThin(objHash, threadID) {
		return
	}
	Inflate(objHash, threadID)
}

// Unlock releases one recursion level of objHash's lock on behalf of
// threadID, dispatching to the thin or fat path depending on whether the
// lock has been inflated. It mirrors Lock as the MONITOREXIT/
// ACC_SYNCHRONIZED-return counterpart and returns an
// IllegalMonitorStateException-carrying error if threadID does not
// currently hold the lock by either path.
func Unlock(objHash uint32, threadID int32) error {
	tableMu.Lock()
	m, inflated := table[objHash]
	tableMu.Unlock()
	if inflated {
		return m.Unlock(objHash, threadID)
	}
	if !UnlockThin(objHash, threadID) {
		return illegalMonitorState()
	}
	return nil
}

// Inflate promotes objHash's lock to a fat Monitor (idempotent: a second
// call for an already-inflated object returns the existing one), and
// acquires it on behalf of threadID, blocking if necessary.
func Inflate(objHash uint32, threadID int32) *Monitor {
	tableMu.Lock()
	m, ok := table[objHash]
	if !ok {
		m = newMonitor()
		// Transfer any existing thin-lock owner/recursion into the fresh
		// fat monitor before anyone else can observe it. Without this, a
		// thread contending on an already thin-locked object would
		// allocate a Monitor with owner==0 and walk straight past the
		// wait loop below, acquiring the fat lock while the original
		// thin-lock holder still believes it owns the object --
		// spec.md §4.4 requires the contender to "spin ... until the
		// owner deflates or we win the CAS that installs the monitor",
		// not race ahead of a still-live owner.
		key := thinKey(objHash)
		if cur := atomic.SwapUint64(&thinWords[key], 0); cur != 0 {
			m.owner = int32(cur >> thinOwnerShift)
			m.recursion = int32(cur & thinRecursionMask)
		}
		table[objHash] = m
	}
	tableMu.Unlock()

	m.mu.Lock()
	m.entering++
	for m.owner != 0 && m.owner != threadID {
		m.cond.Wait()
	}
	m.entering--
	m.owner = threadID
	m.recursion++
	m.mu.Unlock()
	return m
}

// Unlock releases one recursion level of a fat monitor, deflating it
// back to the unowned thin-lock-eligible state once recursion reaches 0
// and no thread is waiting or entering (spec.md §5's monitor deflation,
// "owner==NULL && entering==0 && in_wait==0").
func (m *Monitor) Unlock(objHash uint32, threadID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != threadID {
		return illegalMonitorState()
	}
	m.recursion--
	if m.recursion == 0 {
		m.owner = 0
		m.cond.Broadcast()
		if len(m.waitSet) == 0 && m.entering == 0 {
			tableMu.Lock()
			delete(table, objHash)
			tableMu.Unlock()
		}
	}
	return nil
}

// Wait implements Object.wait(): releases the monitor (remembering its
// recursion count so re-entry restores it), blocks until Notify/
// NotifyAll signals this waiter's private channel, then reacquires the
// monitor at its prior recursion depth.
//
// A notify that arrives between this thread appending itself to
// waitSet and parking on w.wake cannot be lost: Notify holds m.mu while
// both reading waitSet and sending on w.wake, and w.wake is buffered
// (capacity 1), so the send always succeeds whether or not the receiver
// has reached its <-w.wake yet.
func (m *Monitor) Wait(threadID int32) error {
	m.mu.Lock()
	if m.owner != threadID {
		m.mu.Unlock()
		return illegalMonitorState()
	}
	savedRecursion := m.recursion
	w := &waiter{id: threadID, wake: make(chan struct{}, 1)}
	m.owner = 0
	m.recursion = 0
	m.waitSet = append(m.waitSet, w)
	m.cond.Broadcast() // let another thin/fat waiter in
	m.mu.Unlock()

	<-w.wake

	m.mu.Lock()
	for m.owner != 0 {
		m.cond.Wait()
	}
	m.owner = threadID
	m.recursion = savedRecursion
	m.mu.Unlock()
	return nil
}

// Notify wakes the longest-waiting thread (JLS leaves the exact choice
// implementation-defined; this VM picks FIFO order, matching spec.md
// §4.4's "removes the longest-waiting thread").
func (m *Monitor) Notify(threadID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != threadID {
		return illegalMonitorState()
	}
	if len(m.waitSet) == 0 {
		return nil
	}
	w := m.waitSet[0]
	m.waitSet = m.waitSet[1:]
	w.wake <- struct{}{}
	return nil
}

// NotifyAll wakes every waiter exactly once.
func (m *Monitor) NotifyAll(threadID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != threadID {
		return illegalMonitorState()
	}
	for _, w := range m.waitSet {
		w.wake <- struct{}{}
	}
	m.waitSet = nil
	return nil
}

func illegalMonitorState() error {
	return monitorError{excType: excNames.IllegalMonitorStateException, msg: "current thread is not owner"}
}

type monitorError struct {
	excType int
	msg     string
}

func (e monitorError) Error() string { return e.msg }

// ExcType lets the VM's exception-throwing glue map this error back to
// the right Java exception class without string matching.
func (e monitorError) ExcType() int { return e.excType }
