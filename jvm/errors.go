/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package jvm

import (
	"fmt"
	"os"

	"jacobin/frames"
	"jacobin/globals"
	"jacobin/thread"
)

// showFrameStack prints th's JVM frame stack to stderr, one line per frame,
// topmost first. It is called at most once per fatal error -- a panic
// recovered several call frames up would otherwise trigger it again on the
// way out, duplicating output the user already saw.
func showFrameStack(th *thread.ExecThread) {
	g := globals.GetGlobalRef()
	if g.JvmFrameStackShown {
		return
	}
	g.JvmFrameStackShown = true

	if th == nil || th.Stack == nil || th.Stack.Len() == 0 {
		fmt.Fprintf(os.Stderr, "no further data available\n")
		return
	}

	for e := th.Stack.Front(); e != nil; e = e.Next() {
		f, ok := e.Value.(*frames.Frame)
		if !ok {
			continue
		}
		header := fmt.Sprintf("Method: %s.%s", f.ClName, f.MethName)
		fmt.Fprintf(os.Stderr, "%-49sPC: %03d\n", header, f.PC)
	}
}

// ShowPanicCause is showPanicCause exported for main's top-level recover,
// which is the only caller outside this package -- every in-package panic
// this interpreter itself raises is already recovered by
// execOneRecovering before it reaches main.
func ShowPanicCause(cause interface{}) { showPanicCause(cause) }

// ShowGoStackTrace is showGoStackTrace exported for the same reason.
func ShowGoStackTrace(cause interface{}) { showGoStackTrace(cause) }

// showGoStackTrace prints the Go-level stack captured in globals.ErrorGoStack
// at the moment a panic was recovered (captured by the caller via
// debug.Stack() before anything else could unwind it). cause, when non-nil,
// is logged ahead of the stack; debug.Stack() itself isn't re-captured here
// since by the time this runs the original panic's stack has already
// unwound past the frames that mattered.
func showGoStackTrace(cause interface{}) {
	g := globals.GetGlobalRef()
	if g.GoStackShown {
		return
	}
	g.GoStackShown = true

	if cause != nil {
		fmt.Fprintf(os.Stderr, "go stack trace, cause: %v\n", cause)
	}
	fmt.Fprintf(os.Stderr, "%s", g.ErrorGoStack)
}

// showPanicCause prints whatever recover() returned for a Go-level panic
// that escaped the interpreter loop. A nil cause means recover() itself
// returned nil, which happens when the goroutine is unwinding for a reason
// other than panic (should not occur in practice, but os.Exit during
// cleanup must not read a nil interface without checking first).
func showPanicCause(cause interface{}) {
	g := globals.GetGlobalRef()
	if g.PanicCauseShown {
		return
	}
	g.PanicCauseShown = true

	if cause == nil {
		fmt.Fprintf(os.Stderr, "error: go panic -- cause unknown\n")
		return
	}
	fmt.Fprintf(os.Stderr, "error: go panic -- cause: %v\n", cause)
}
