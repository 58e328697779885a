/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"jacobin/classloader"
	"jacobin/excNames"
	"jacobin/frames"
	"jacobin/object"
	"jacobin/stringPool"
	"jacobin/types"
)

// javaThrow wraps a Java exception/error in flight through Go's own error
// return path: runFrame's dispatch loop checks every opcode/invoke/native
// result for this type and, on finding one, searches the current frame's
// exception table for a handler before letting it propagate to the caller.
type javaThrow struct {
	ClassName string
	Message   string
	Obj       *object.Object
}

func (e *javaThrow) Error() string { return e.ClassName + ": " + e.Message }

// throwException builds a javaThrow for one of excNames' catalogued
// exceptions, including a minimal java/lang/Throwable-shaped object a
// catch handler's local can hold and a native method can call getMessage()
// on. This runtime does not load real java.lang.* exception classes, so
// the object's class hierarchy is nominal: only a name-equality exception
// filter is implemented (see findHandler), not a full isAssignableFrom
// superclass walk.
func throwException(excType int, msg string) error {
	className := excNames.JVMexceptionNames[excType]
	if className == "" {
		className = "java/lang/InternalError"
	}
	obj := object.MakeEmptyObject()
	obj.KlassName = stringPool.GetStringIndex(className)
	obj.SetField("detailMessage", types.ByteArray, []byte(msg))
	return &javaThrow{ClassName: className, Message: msg, Obj: obj}
}

// findHandler searches f's exception table for the first entry covering pc
// whose catch type matches the thrown exception (or is a catch-all, CP
// index 0, i.e. a finally block). Returns the handler PC and true on a
// match.
func findHandler(f *frames.Frame, pc int, jt *javaThrow) (int, bool) {
	for _, ce := range f.ExceptionTable {
		if pc < ce.StartPc || pc >= ce.EndPc {
			continue
		}
		if ce.CatchType == 0 {
			return ce.HandlerPc, true // finally / catch-all
		}
		caught := classloader.GetClassNameFromCPclassref(f.CP, ce.CatchType)
		if caught == jt.ClassName {
			return ce.HandlerPc, true
		}
	}
	return 0, false
}
