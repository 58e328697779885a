/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds small, dependency-free constants and aliases shared
// across every other package. Nothing in here may import another jacobin
// package: it sits at the bottom of the dependency graph.
package types

// JavaByte is a Java byte: signed, 8 bits, but stored here as a distinct
// type so byte arrays that hold encoded UTF-16/Latin-1 string data are not
// confused with raw Go []byte buffers used for I/O.
type JavaByte int8

// Field/class descriptor prefixes, per the JVMS §4.3 field descriptor grammar.
const (
	Array      = "["
	RefArray   = "[L"
	ByteArray  = "[B"
	Bool       = "Z"
	Byte       = "B"
	Char       = "C"
	Double     = "D"
	Float      = "F"
	Int        = "I"
	Long       = "J"
	Ref        = "L"
	Short      = "S"
	Void       = "V"
	IntArray   = "[I"
	StringClassName = "java/lang/String"
)

// JavaBoolTrue and JavaBoolFalse are the canonical int64 encodings a
// gfunction returns for a Java boolean result, matching how a boolean
// local/operand is otherwise represented on the operand stack.
const (
	JavaBoolFalse = int64(0)
	JavaBoolTrue  = int64(1)
)

// Sentinel string-pool indices. The pool always reserves index 0 for the
// empty string and index 1 for "java/lang/Object" so that frequently
// compared classes can be tested by integer equality.
const (
	InvalidStringIndex     = ^uint32(0)
	EmptyStringIndex       = uint32(0)
	ObjectPoolStringIndex  = uint32(1)
	StringPoolStringIndex  = uint32(2) // "java/lang/String"
)

// ClInit states, tracked per loaded class in ClData.ClInit.
const (
	NoClinit       = byte(0) // class has no <clinit> method
	ClInitNotRun   = byte(1) // class has a <clinit>, not yet executed
	ClInitInProgress = byte(2)
	ClInitRun      = byte(3)
)

// DefaultMaxHeapSize is used when no -Xmx is given on the command line.
const DefaultMaxHeapSize = int64(256 * 1024 * 1024)

// DefaultThreadStackSize is used when no -Xss is given on the command line.
const DefaultThreadStackSize = int64(1024 * 1024)

// Grain is the alignment unit for heap object placement and the mark bitmap.
const Grain = 8
