/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023-4 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package gfunction holds the native ("Go-method") implementations of JDK
// library methods the interpreter would otherwise have to run as bytecode
// loaded from the base jmod. Each java/lang/java/util/... source file in
// this package registers its methods into MethodSignatures under a
// Load_Xxx() function; LoadAll collects every one of them and hands the
// result to classloader.MTableLoadNatives so the interpreter's invoke
// machinery can resolve a native call as cheaply as a bytecode one.
package gfunction

import (
	"jacobin/classloader"
	"jacobin/excNames"
	"jacobin/object"
	"jacobin/stringPool"
	"jacobin/types"
)

// GMeth is one native method's registration: how many operand-stack slots
// to pop into its parameter slice when the interpreter builds its call, and
// the Go function to run. Every native method shares this one Go signature
// regardless of its Java descriptor -- arguments arrive boxed in params (in
// the same left-to-right order the JVM would push them), and the single
// return value is nil for a void method, a Go-native/*object.Object value
// for anything else, or a *GErrBlk when the call raises a Java exception.
type GMeth struct {
	ParamSlots int
	GFunction  func([]interface{}) interface{}
}

// MethodSignatures is the JVM-wide registry of every native method this
// runtime knows how to execute, keyed by "class/name.methodDescriptor".
// Each Load_Xxx() function in this package adds its own entries during
// LoadAll.
var MethodSignatures = make(map[string]GMeth)

// LoadAll registers every native package's methods into MethodSignatures
// and publishes them into the class loader's JVM-wide method table. Called
// once at VM startup, before the bootstrap class loader's own classes are
// walked, so <clinit> and other early methods can already resolve natively.
func LoadAll() {
	Load_Lang_String()
	Load_Lang_StringBuilder()
	Load_Lang_Thread()
	Load_Util_HashMap()
	Load_Io_InputStreamReader()
	Load_Jdk_Internal_Misc_ScopedMemoryAccess()

	natives := make(map[string]classloader.JmEntry, len(MethodSignatures))
	for key, gm := range MethodSignatures {
		natives[key] = classloader.JmEntry{
			MType:     classloader.MTypeNative,
			MaxLocals: gm.ParamSlots,
			Meth:      gm,
		}
	}
	classloader.MTableLoadNatives(natives)
}

// GErrBlk is what a native method returns in place of a value when the
// call must raise a Java exception: the interpreter's invoke machinery
// checks every native return for this type before treating it as a normal
// result, and throws ExceptionType/ErrMsg as a Java exception if it matches.
type GErrBlk struct {
	ExceptionType int
	ErrMsg        string
}

func (e *GErrBlk) Error() string { return e.ErrMsg }

// getGErrBlk is the one place every native method builds its exception
// return value, so a future change to GErrBlk's shape touches one spot.
func getGErrBlk(excType int, msg string) interface{} {
	return &GErrBlk{ExceptionType: excType, ErrMsg: msg}
}

// justReturn is registered for natives whose entire job is being a no-op
// (registerNatives(), a <clinit> this runtime doesn't need to model).
func justReturn([]interface{}) interface{} {
	return nil
}

// trapFunction is registered for methods this runtime has decided not to
// implement yet (mostly Charset-parameterized overloads) -- calling one
// raises UnsupportedOperationException rather than silently doing nothing,
// so a program that actually needs the behavior fails loudly.
func trapFunction([]interface{}) interface{} {
	return getGErrBlk(excNames.UnsupportedOperationException, "this native method is not implemented in this runtime")
}

// trapDeprecated is registered for JDK methods marked @Deprecated whose
// behavior this runtime declines to reproduce.
func trapDeprecated([]interface{}) interface{} {
	return getGErrBlk(excNames.UnsupportedOperationException, "this method is deprecated and is not supported")
}

// populator wraps a Go slice (a primitive array's backing store, or a
// []*object.Object for a reference array) into the *object.Object the
// interpreter expects an array value to be. className is the JVM array
// descriptor ("[B", "[C", "[Ljava/lang/String;", ...) used to name the
// object's class; ftype is the Ftype tag stored on its "value" field so
// later field-type switches (StringFormatter, the collector's reference
// walk) can tell what value holds without a further type assertion.
func populator(className string, ftype string, value interface{}) *object.Object {
	obj := object.MakeEmptyObject()
	obj.KlassName = stringPool.GetStringIndex(className)
	obj.SetField("value", ftype, value)
	return obj
}

// FilePath and FileHandle are the field names every java.io stream/reader
// gfunction uses to stash the underlying OS path and *os.File on the
// instance object, so a reader wrapping a stream (InputStreamReader wrapping
// an InputStream) can reach through to the same open file.
const (
	FilePath   = "FilePath"
	FileHandle = "FileHandle"
)

// eofSet records whether a stream object has hit end-of-file, consulted by
// ready()-style methods that must answer without attempting another read.
func eofSet(obj *object.Object, eof bool) {
	var v int64
	if eof {
		v = 1
	}
	obj.SetField("eof", types.Bool, v)
}
