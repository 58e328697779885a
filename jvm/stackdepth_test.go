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
	"jacobin/excNames"
	"jacobin/globals"
	"jacobin/thread"
)

// TestExceedsStackBudgetRespectsConfiguredXss confirms the budget check
// reads globals.Globals.ThreadStackSize rather than always falling back
// to the default, and that raising -Xss raises the frame ceiling with it.
func TestExceedsStackBudgetRespectsConfiguredXss(t *testing.T) {
	globals.InitGlobals("test")
	g := globals.GetGlobalRef()

	g.ThreadStackSize = int64(frameNominalSize) * 100
	if !exceedsStackBudget(int32(100 - stackRedZoneFrames + 1)) {
		t.Fatal("expected depth past the red zone to exceed the budget")
	}
	if exceedsStackBudget(int32(100 - stackRedZoneFrames - 1)) {
		t.Fatal("expected depth well under the red zone to stay within budget")
	}
}

// TestExceedsStackBudgetFallsBackToDefault confirms a zero -Xss (the
// "not specified on the command line" sentinel) uses
// types.DefaultThreadStackSize rather than treating every depth as
// over budget.
func TestExceedsStackBudgetFallsBackToDefault(t *testing.T) {
	globals.InitGlobals("test")
	g := globals.GetGlobalRef()
	g.ThreadStackSize = 0

	if exceedsStackBudget(1) {
		t.Fatal("a shallow call depth must not exceed the default stack budget")
	}
}

// TestInvokeMethodThrowsStackOverflowPastBudget drives invokeMethod
// through a real (if minimal) bytecode method registration with
// MainThread's frame depth already past the configured budget, and
// confirms a StackOverflowError comes back instead of the Go call stack
// crashing the process.
func TestInvokeMethodThrowsStackOverflowPastBudget(t *testing.T) {
	globals.InitGlobals("test")
	g := globals.GetGlobalRef()
	g.ThreadStackSize = int64(frameNominalSize) * 4 // a tiny budget: 4 frames, minus the red zone

	MainThread = thread.CreateThread()
	defer thread.RemoveThread(MainThread.ID)

	className := "stackdepth/Deep"
	classloader.InitMethodArea()
	classloader.MethAreaInsert(className, &classloader.Klass{
		Status: classloader.StatusLinked,
		Loader: "test",
		Data:   &classloader.ClData{Name: className},
	})

	key := className + ".recurse()V"
	classloader.MTableInsert(key, classloader.JmEntry{
		MaxStack:  2,
		MaxLocals: 1,
		Code:      []byte{0xB1}, // RETURN
		MType:     classloader.MTypeBytecode,
	})

	// Push the thread's frame depth past the small budget configured
	// above, the same way a deep chain of nested invoke* instructions
	// would have, without actually recursing this many Go stack frames.
	for i := 0; i < 10; i++ {
		MainThread.EnterFrame()
	}
	defer func() {
		for i := 0; i < 10; i++ {
			MainThread.ExitFrame()
		}
	}()

	fs := list.New()
	_, err := invokeMethod(fs, className, "recurse", "()V", nil, true)
	if err == nil {
		t.Fatal("expected a StackOverflowError, got nil")
	}
	jt, ok := err.(*javaThrow)
	if !ok {
		t.Fatalf("expected *javaThrow, got %T: %v", err, err)
	}
	want := excNames.JVMexceptionNames[excNames.StackOverflowError]
	if jt.ClassName != want {
		t.Fatalf("unexpected exception class: got %s, want %s", jt.ClassName, want)
	}
}
