/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package jvm is the interpreter core: the direct-threaded-style bytecode
// dispatch loop (runFrame), method invocation (invoke.go), static/instance
// field access (fields.go), class/object instantiation (instantiate.go),
// <clinit> sequencing (initializerBlock.go), and exception unwinding
// (exceptions.go).
package jvm

import (
	"container/list"
	"fmt"
	"os"

	"jacobin/classloader"
	"jacobin/excNames"
	"jacobin/frames"
	"jacobin/gc"
	"jacobin/gfunction"
	"jacobin/globals"
	"jacobin/heap"
	"jacobin/object"
	"jacobin/stringPool"
	"jacobin/thread"
	"jacobin/trace"
)

// MainThread is the application's single thread of execution. This runtime
// does not yet start Java threads of its own (java/lang/Thread's native
// shims are no-ops beyond Thread.sleep -- see gfunction/javaLangThread.go),
// so every bytecode frame in a run executes on this one ExecThread.
var MainThread *thread.ExecThread

// VMHeap and VMCollector are the process's one heap region and the
// collector bound to it, sized from -Xmx/-Xms at StartMainThread and left
// exported so a diagnostics consumer (package diag) can poll occupancy and
// collection counters without jvm handing out a bootstrap handle through
// every call chain. Object instantiation in this interpreter still
// allocates on the Go heap (instantiate.go tracks instance state in
// object.Object/FieldTable, not in VMHeap's byte region); VMHeap and
// VMCollector exist to hold the -Xmx-sized budget and the collection
// counters a diagnostics view reports against, per the documented
// conservative-root/Go-GC substitution this VM uses in place of a
// byte-addressed managed heap.
var (
	VMHeap      *heap.Heap
	VMCollector *gc.Collector
)

// loadThisClass loads name into the method area if it isn't resident yet,
// returning once the class has reached at least StatusLinked.
func loadThisClass(name string) error {
	k := classloader.MethAreaFetch(name)
	if k != nil {
		return nil
	}
	if err := classloader.LoadClassFromNameOnly(name); err != nil {
		return err
	}
	k = classloader.MethAreaFetch(name)
	if k == nil || k.Data == nil {
		return classloader.CFE("loadThisClass: " + name + " missing from method area after load")
	}
	return classloader.Link(k)
}

// StartMainThread loads className, resolves its public static void
// main(String[]) method, runs every pending <clinit> the load discovered,
// and then executes main to completion. args becomes the single String[]
// argument main receives.
func StartMainThread(className string, args []string) error {
	MainThread = thread.CreateThread()
	MainThread.Name = "main"
	g := globals.GetGlobalRef()
	MainThread.Trace = g.TraceInst

	var err error
	VMHeap, err = heap.New(g.InitialHeapSize, g.MaxHeapSize)
	if err != nil {
		return err
	}
	VMCollector = gc.NewCollector(VMHeap)

	gfunction.LoadAll()
	classloader.InitMethodArea()
	classloader.LoadBaseClasses()

	if err := loadThisClass(className); err != nil {
		return err
	}
	k := classloader.MethAreaFetch(className)

	fs := frames.CreateFrameStack()
	if err := runInitializationBlock(k, nil, fs); err != nil {
		return err
	}

	argsObj := object.MakeEmptyObject()
	argsObj.KlassName = stringPool.GetStringIndex("[Ljava/lang/String;")
	strArgs := make([]*object.Object, len(args))
	for i, a := range args {
		strArgs[i] = object.StringObjectFromGoString(a)
	}
	argsObj.SetField("value", "[Ljava/lang/String;", strArgs)

	_, err = invokeMethod(fs, className, "main", "([Ljava/lang/String;)V", []interface{}{argsObj}, true)
	if jt, ok := err.(*javaThrow); ok {
		fmt.Fprintf(os.Stderr, "Exception in thread \"main\" %s: %s\n", jt.ClassName, jt.Message)
		showFrameStack(MainThread)
		return err
	}
	return err
}

// runFrame executes the topmost frame of fs until it returns (normally or
// via an uncaught exception) and pops it, returning the method's return
// value (nil for void). An invoke* instruction recurses into runFrame for
// the callee's own frame, so the Go call stack mirrors the JVM frame stack
// one-for-one -- there is no separate trampoline.
func runFrame(fs *list.List) (interface{}, error) {
	f := frames.PeekFrame(fs)
	if f == nil {
		return nil, classloader.CFE("runFrame: empty frame stack")
	}

	for {
		if f.PC >= len(f.Meth) {
			frames.PopFrame(fs)
			return nil, nil
		}

		op := f.Meth[f.PC]
		pc := f.PC
		nextPC, retVal, done, err := execOneRecovering(fs, f, op, pc)

		if err != nil {
			if jt, ok := err.(*javaThrow); ok {
				if handlerPC, found := findHandler(f, pc, jt); found {
					f.TOS = -1
					f.PushOperand(jt.Obj)
					f.PC = handlerPC
					continue
				}
			}
			frames.PopFrame(fs)
			return nil, err
		}

		if done {
			frames.PopFrame(fs)
			return retVal, nil
		}

		f.PC = nextPC
		MainThread.PollSafepoint()
	}
}

// execOneRecovering runs execOne and converts a panic raised by
// globals.FuncThrowException (wired in this file's init() so classloader
// and object can raise a Java exception without importing jvm) back into
// the same *javaThrow error execOne would have returned directly, so
// runFrame's exception-table search sees it either way.
func execOneRecovering(fs *list.List, f *frames.Frame, op byte, pc int) (nextPC int, retVal interface{}, done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if jt, ok := r.(*javaThrow); ok {
				err = jt
				return
			}
			panic(r)
		}
	}()
	return execOne(fs, f, op, pc)
}

// unimplementedOpcode is returned by execOne for any opcode this
// interpreter doesn't yet dispatch; it is distinguished from a Java
// exception so runFrame never tries to run it through exception-table
// unwinding.
func unimplementedOpcode(op byte, pc int, cl, meth string) error {
	return fmt.Errorf("unimplemented bytecode 0x%02X at %s.%s PC=%d", op, cl, meth, pc)
}

func init() {
	// Wires globals.FuncThrowException so packages below jvm (classloader,
	// object) can raise a Java exception without importing jvm, which would
	// create an import cycle. The thrown error is recovered by the nearest
	// runFrame call on the Go stack; a throw with no Go call above it (e.g.
	// during early bootstrap, before any frame is running) traces and exits.
	globals.GetGlobalRef().FuncThrowException = func(excType int, msg string) {
		err := throwException(excType, msg)
		trace.Error(err.Error())
		panic(err)
	}
}
