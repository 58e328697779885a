/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals is the VM-wide singleton: the one mutable struct every
// other package reaches into for configuration, classpath, and the small
// number of cross-cutting flags (trace switches, strict-JDK mode) that
// don't belong to any one subsystem. Spec.md §9 "Global mutable state"
// calls this out explicitly as something that should be modeled as a
// component with an explicit lifetime rather than scattered package
// globals; this is that component.
package globals

import (
	"os"
	"sync"
)

// Globals holds every piece of process-wide VM configuration and runtime
// state that isn't itself the responsibility of a specific subsystem
// (heap, thread list, method area, etc. each own their own state).
type Globals struct {
	JacobinName string
	Version     string
	JavaHome    string
	JacobinHome string

	Args        []string
	StartingJar    string
	StartingClass  string
	AppArgs        []string
	Classpath      []string

	MaxHeapSize    int64
	InitialHeapSize int64
	ThreadStackSize int64

	StrictJDK bool
	ExitNow   bool
	DiagTUI   bool

	// trace switches, consulted directly (as a hot-path optimization --
	// they're read on every class load / bytecode dispatch, so a function
	// call per check would be wasteful)
	TraceClass    bool
	TraceCloadi   bool
	TraceInst     bool
	TraceVerbose  bool

	// one-shot diagnostic flags: each piece of crash/error context is
	// shown at most once per fatal error, since showFrameStack,
	// showGoStackTrace, and showPanicCause can all be reached from
	// nested recover() calls as a panic unwinds through several frames.
	JvmFrameStackShown bool
	GoStackShown       bool
	ErrorGoStack       string
	PanicCauseShown    bool

	// FuncThrowException lets lower packages (classloader, object) raise a
	// Java exception without importing the jvm package, which would create
	// an import cycle (jvm imports classloader). It's wired to the real
	// interpreter-level thrower during bootstrap.
	FuncThrowException func(excType int, msg string)

	// LoaderWg lets concurrent class-loader-channel workers (now mostly
	// retired, see classloader.LoadFromLoaderChannel) signal completion.
	LoaderWg sync.WaitGroup

	StartTime int64
}

var (
	globalPtr *Globals
	lock      sync.RWMutex
)

// GetGlobalRef returns the process-wide Globals instance, creating a
// minimal default one if InitGlobals has not yet run (this keeps unit
// tests for leaf packages from needing full bootstrap).
func GetGlobalRef() *Globals {
	lock.RLock()
	g := globalPtr
	lock.RUnlock()
	if g != nil {
		return g
	}
	return InitGlobals("jacobin")
}

// InitGlobals (re)creates the global state. Called once by main at startup
// and by every package's tests that need a clean slate.
func InitGlobals(progName string) *Globals {
	g := &Globals{
		JacobinName:     progName,
		Version:         "0.1.0",
		JavaHome:        os.Getenv("JAVA_HOME"),
		MaxHeapSize:     0, // 0 means "use types.DefaultMaxHeapSize"
		ThreadStackSize: 0, // 0 means "use types.DefaultThreadStackSize"
		FuncThrowException: func(int, string) {
			// replaced once the jvm package's init() wires the real thrower; a nil
			// deref here during early classloader tests is a clearer
			// failure than a silent no-op would be, so panic with context.
			panic("globals.FuncThrowException called before the interpreter bootstrapped")
		},
	}
	lock.Lock()
	globalPtr = g
	lock.Unlock()
	return g
}

// TraceClass and TraceCloadi are read extremely often (once per class-load
// call site); expose package-level booleans that SetTrace* keeps in sync
// with the struct fields (InitGlobals does not reset them) so hot paths can avoid a GetGlobalRef
// call. Mirroring the teacher's own top-level `globals.TraceCloadi` usage.
var (
	TraceClass  bool
	TraceCloadi bool
)

// SetTraceClass updates both the struct field and the fast package global.
func (g *Globals) SetTraceClass(v bool) {
	g.TraceClass = v
	TraceClass = v
}

// SetTraceCloadi updates both the struct field and the fast package global.
func (g *Globals) SetTraceCloadi(v bool) {
	g.TraceCloadi = v
	TraceCloadi = v
}
