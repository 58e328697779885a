/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"
	"testing"

	"jacobin/excNames"
	"jacobin/frames"
	"jacobin/object"
	"jacobin/thread"
)

// TestMonitorEnterExitRoundTrip exercises the MONITORENTER/MONITOREXIT
// bytecodes end to end: enter, exit, then a second enter/exit pair
// (recursion-free re-acquisition) must both succeed against the same
// object, and an unbalanced exit must raise IllegalMonitorStateException.
func TestMonitorEnterExitRoundTrip(t *testing.T) {
	MainThread = thread.CreateThread()
	defer thread.RemoveThread(MainThread.ID)

	f := frames.CreateFrame(4)
	obj := object.MakeEmptyObject()

	f.PushOperand(obj)
	if _, _, _, err := execOne(list.New(), f, MONITORENTER, 0); err != nil {
		t.Fatalf("monitorenter: %v", err)
	}

	f.PushOperand(obj)
	if _, _, _, err := execOne(list.New(), f, MONITOREXIT, 0); err != nil {
		t.Fatalf("monitorexit: %v", err)
	}

	// A second round trip on the same object must also succeed -- the
	// lock must have been fully released, not left recursively held.
	f.PushOperand(obj)
	if _, _, _, err := execOne(list.New(), f, MONITORENTER, 0); err != nil {
		t.Fatalf("second monitorenter: %v", err)
	}
	f.PushOperand(obj)
	if _, _, _, err := execOne(list.New(), f, MONITOREXIT, 0); err != nil {
		t.Fatalf("second monitorexit: %v", err)
	}
}

func TestMonitorExitWithoutEnterThrowsIllegalMonitorState(t *testing.T) {
	MainThread = thread.CreateThread()
	defer thread.RemoveThread(MainThread.ID)

	f := frames.CreateFrame(4)
	obj := object.MakeEmptyObject()
	f.PushOperand(obj)

	_, _, _, err := execOne(list.New(), f, MONITOREXIT, 0)
	if err == nil {
		t.Fatal("expected IllegalMonitorStateException for an unbalanced monitorexit")
	}
	jt, ok := err.(*javaThrow)
	if !ok {
		t.Fatalf("expected *javaThrow, got %T: %v", err, err)
	}
	want := excNames.JVMexceptionNames[excNames.IllegalMonitorStateException]
	if jt.ClassName != want {
		t.Fatalf("unexpected exception class: got %s, want %s", jt.ClassName, want)
	}
}

func TestMonitorEnterNullReferenceThrowsNPE(t *testing.T) {
	MainThread = thread.CreateThread()
	defer thread.RemoveThread(MainThread.ID)

	f := frames.CreateFrame(4)
	f.PushOperand((*object.Object)(nil))

	_, _, _, err := execOne(list.New(), f, MONITORENTER, 0)
	if err == nil {
		t.Fatal("expected NullPointerException for monitorenter on a null reference")
	}
}
