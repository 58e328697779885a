/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package diag is a live diagnostics dashboard: a single bubbletea view
// polling heap occupancy, collector cycle counts, and thread states from
// a running VM (package jvm), in the spirit of mabhi256/jdiag's GC
// dashboard but sourced from this process's own state rather than a
// parsed remote log.
package diag

import (
	"sync/atomic"
	"time"

	"jacobin/gc"
	"jacobin/globals"
	"jacobin/jvm"
	"jacobin/thread"
)

// Snapshot is one poll's worth of VM state, everything the dashboard
// needs to redraw a frame.
type Snapshot struct {
	PolledAt time.Time

	HeapUsed  int64
	HeapSize  int64
	HeapMax   int64
	HeapReady bool // false until jvm.StartMainThread has created VMHeap

	GC       gc.CollectionStats
	GCReady  bool

	Threads []ThreadSnapshot

	MainClass string
	Version   string
}

// ThreadSnapshot is the subset of thread.ExecThread a dashboard row needs.
type ThreadSnapshot struct {
	ID         int
	Name       string
	Status     int32
	FrameDepth int
	Trace      bool
}

// StatusName renders a thread.Status* constant the way java.lang.Thread.State
// names would read in a stack dump.
func StatusName(status int32) string {
	switch status {
	case thread.StatusNew:
		return "NEW"
	case thread.StatusRunnable:
		return "RUNNABLE"
	case thread.StatusBlocked:
		return "BLOCKED"
	case thread.StatusWaiting:
		return "WAITING"
	case thread.StatusTimedWaiting:
		return "TIMED_WAITING"
	case thread.StatusTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Poll gathers a fresh Snapshot. Safe to call before the VM has started a
// main thread or created its heap -- HeapReady/GCReady report that instead
// of the caller needing to nil-check jvm.VMHeap/jvm.VMCollector itself.
func Poll() Snapshot {
	g := globals.GetGlobalRef()
	snap := Snapshot{
		PolledAt:  time.Now(),
		MainClass: g.StartingClass,
		Version:   g.Version,
	}

	if jvm.VMHeap != nil {
		snap.HeapReady = true
		snap.HeapUsed = jvm.VMHeap.Used()
		snap.HeapSize = jvm.VMHeap.Size()
		snap.HeapMax = jvm.VMHeap.MaxSize()
	}
	if jvm.VMCollector != nil {
		snap.GCReady = true
		snap.GC = jvm.VMCollector.Snapshot()
	}

	for _, t := range thread.AllThreads() {
		depth := 0
		if t.Stack != nil {
			depth = t.Stack.Len()
		}
		snap.Threads = append(snap.Threads, ThreadSnapshot{
			ID:         t.ID,
			Name:       t.Name,
			Status:     atomic.LoadInt32(&t.Status),
			FrameDepth: depth,
			Trace:      t.Trace,
		})
	}

	return snap
}
