/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package diag

import (
	"testing"

	"jacobin/thread"
)

func TestPollBeforeVMStart(t *testing.T) {
	snap := Poll()
	if snap.HeapReady {
		t.Error("expected HeapReady false before jvm.StartMainThread has run")
	}
	if snap.GCReady {
		t.Error("expected GCReady false before jvm.StartMainThread has run")
	}
}

func TestStatusName(t *testing.T) {
	cases := []struct {
		status int32
		want   string
	}{
		{thread.StatusNew, "NEW"},
		{thread.StatusRunnable, "RUNNABLE"},
		{thread.StatusBlocked, "BLOCKED"},
		{thread.StatusWaiting, "WAITING"},
		{thread.StatusTimedWaiting, "TIMED_WAITING"},
		{thread.StatusTerminated, "TERMINATED"},
		{99, "UNKNOWN"},
	}
	for _, c := range cases {
		if got := StatusName(c.status); got != c.want {
			t.Errorf("StatusName(%d) = %q, want %q", c.status, got, c.want)
		}
	}
}

func TestRenderBarBounds(t *testing.T) {
	if bar := renderBar(0, 0, 10); bar != "" {
		t.Errorf("expected empty bar when max is 0, got %q", bar)
	}
	full := renderBar(100, 100, 10)
	if full == "" {
		t.Error("expected non-empty bar for a full heap")
	}
}

func TestNewModelDefaultsInterval(t *testing.T) {
	m := NewModel(0)
	if m.interval != DefaultInterval {
		t.Errorf("expected default interval %v, got %v", DefaultInterval, m.interval)
	}
}

func TestHeapSectionNotReady(t *testing.T) {
	s := Snapshot{}
	view := renderHeapSection(s)
	if view == "" {
		t.Error("expected a non-empty not-ready message")
	}
}
