/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command jacobin is a Java virtual machine: it loads a class or jar named
// on the command line, links and initializes it, and interprets its
// bytecode on a single application thread (package jvm).
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"jacobin/diag"
	"jacobin/globals"
	"jacobin/jvm"
	"jacobin/shutdown"
	"jacobin/trace"
)

func main() {
	g := globals.InitGlobals(os.Args[0])
	g.StartTime = 0 // stamped by the caller in a real build; tests don't rely on wall time
	trace.Init()

	showCopyright()

	envArgs := getEnvArgs()
	args := os.Args
	if envArgs != "" {
		args = append([]string{os.Args[0]}, append(strings.Fields(envArgs), os.Args[1:]...)...)
	}

	if _, err := HandleCli(args, g); err != nil {
		fmt.Fprintln(os.Stderr, err)
		shutdown.Exit(shutdown.APP_EXCEPTION)
	}
	if g.ExitNow {
		shutdown.Exit(shutdown.OK)
	}

	className := g.StartingClass
	if className == "" && g.StartingJar == "" {
		fmt.Fprintln(os.Stderr, "jacobin: no class or jar specified")
		shutdown.Exit(shutdown.APP_EXCEPTION)
	}

	defer func() {
		if r := recover(); r != nil {
			g.ErrorGoStack = string(debug.Stack())
			jvm.ShowPanicCause(r)
			jvm.ShowGoStackTrace(r)
			shutdown.Exit(shutdown.JVM_EXCEPTION)
		}
	}()

	shutdown.SetInitializing(false)

	if !g.DiagTUI {
		if err := jvm.StartMainThread(className, g.AppArgs); err != nil {
			shutdown.Exit(shutdown.JVM_EXCEPTION)
		}
		shutdown.Exit(shutdown.OK)
	}

	// --diag runs the interpreter on its own goroutine so the dashboard
	// can poll jvm.VMHeap/jvm.VMCollector/thread.AllThreads() from the
	// foreground goroutine while bytecode executes concurrently.
	vmDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.ErrorGoStack = string(debug.Stack())
				jvm.ShowPanicCause(r)
				jvm.ShowGoStackTrace(r)
				vmDone <- fmt.Errorf("panic in VM goroutine: %v", r)
			}
		}()
		vmDone <- jvm.StartMainThread(className, g.AppArgs)
	}()

	if err := diag.StartTUI(0); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	if err := <-vmDone; err != nil {
		shutdown.Exit(shutdown.JVM_EXCEPTION)
	}
	shutdown.Exit(shutdown.OK)
}
