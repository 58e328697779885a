/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package shutdown implements the single process-wide exit path described
// in spec.md §6 "Environment and exit": System.exit hooks run first (unless
// the VM is still initializing), then the process terminates.
package shutdown

import (
	"os"
	"sync"
)

// Exit reason codes. JVM_EXCEPTION covers every fatal-error exit in §7's
// "Fatal" row; the others mirror the standard `java` launcher's codes.
const (
	OK            = 0
	JVM_EXCEPTION = 1
	APP_EXCEPTION = 2
	OUT_OF_MEMORY = 3
	TEST_RUN      = 100 // used only so unit tests can assert on the code without os.Exit firing
)

var (
	hooksLock sync.Mutex
	hooks     []func()

	// initializing is true until the bootstrap sequence (globals + base
	// classes + main thread construction) has completed. System.exit hooks
	// registered by application code cannot run before that point because
	// Runtime.addShutdownHook requires a running JVM.
	initializing = true

	// exitFunc is swapped out in tests so Exit() is observable without
	// killing the test binary.
	exitFunc = os.Exit
)

// SetInitializing flips the bootstrap-in-progress flag. Called once by the
// bootstrap sequence when the main thread is ready to run bytecode.
func SetInitializing(v bool) { initializing = v }

// RegisterHook adds a function to be run, in reverse registration order,
// when Exit is called. This is the target of Runtime.addShutdownHook.
func RegisterHook(f func()) {
	hooksLock.Lock()
	defer hooksLock.Unlock()
	hooks = append(hooks, f)
}

// Exit runs the registered shutdown hooks (unless the VM never finished
// initializing) and terminates the process with the given status.
func Exit(errorCode int) {
	if !initializing {
		hooksLock.Lock()
		local := make([]func(), len(hooks))
		copy(local, hooks)
		hooksLock.Unlock()

		for i := len(local) - 1; i >= 0; i-- {
			func() {
				defer func() { _ = recover() }() // a hook panicking must not block shutdown
				local[i]()
			}()
		}
	}
	exitFunc(errorCode)
}

// SetExitFunc overrides the function called to actually terminate the
// process. Tests use this to observe the requested exit code without
// killing the test binary.
func SetExitFunc(f func(int)) {
	if f == nil {
		exitFunc = os.Exit
		return
	}
	exitFunc = f
}
