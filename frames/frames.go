/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package frames implements the JVM stack frame (spec.md §3 "Frame"):
// operand stack, local variable array, and the bookkeeping the
// interpreter needs to invoke, return from, and unwind through methods.
package frames

import (
	"container/list"
	"jacobin/classloader"
)

// Frame is one activation record. Operand stack and locals are kept as
// plain slices (TOS is the last element of OpStack) rather than the
// spec's fixed-size register-cache array, because Go slices already give
// amortized O(1) push/pop without the manual bounds math a C array would
// need. Locals, like the operand stack, are a slice of interface{} values.
type Frame struct {
	ClName    string // name of the class the executing method belongs to
	MethName  string
	MethType  string // method descriptor
	CP        *classloader.CPool
	Meth      []byte // the method's bytecode
	PC        int    // program counter: index into Meth of the next instruction
	OpStack   []interface{}
	TOS       int // index of the top of OpStack; -1 when empty
	Locals    []interface{}
	Prepared  *classloader.PreparedCode
	ExceptionTable []classloader.CodeException

	// Done is set once the frame has returned (normally or via an
	// exception) so a frame still referenced from a caught-exception
	// handler doesn't get re-entered.
	Done bool
}

// CreateFrame allocates a Frame with an operand stack of the given
// capacity (generally maxStack+1, per the teacher's convention of adding
// headroom for dup/dup2 sequences that transiently exceed maxStack).
func CreateFrame(stackSize int) *Frame {
	f := &Frame{
		OpStack: make([]interface{}, stackSize),
		TOS:     -1,
	}
	return f
}

// CreateFrameStack returns a new, empty stack of Frames for one thread.
func CreateFrameStack() *list.List {
	return list.New()
}

// PushFrame pushes f onto the front of fs, becoming the new topmost
// (currently executing) frame. Returns an error only if fs is nil --
// the teacher's own callers treat that as an out-of-memory-class
// condition when allocating the initial frame stack failed.
func PushFrame(fs *list.List, f *Frame) error {
	if fs == nil {
		return errFrameStackNil
	}
	fs.PushFront(f)
	return nil
}

// PopFrame removes and discards the topmost frame of fs.
func PopFrame(fs *list.List) {
	if fs == nil || fs.Len() == 0 {
		return
	}
	fs.Remove(fs.Front())
}

// PeekFrame returns the topmost frame without removing it, or nil if fs
// is empty.
func PeekFrame(fs *list.List) *Frame {
	if fs == nil || fs.Len() == 0 {
		return nil
	}
	return fs.Front().Value.(*Frame)
}

// PushOperand pushes v onto f's operand stack.
func (f *Frame) PushOperand(v interface{}) {
	f.TOS++
	if f.TOS >= len(f.OpStack) {
		f.OpStack = append(f.OpStack, v)
	} else {
		f.OpStack[f.TOS] = v
	}
}

// PopOperand pops and returns the top of f's operand stack. Popping an
// empty stack returns nil -- callers that reach this are already in an
// unrecoverable bytecode-format-error situation the format checker should
// have caught; panicking here would just turn an application bug into a
// crash mid-interpreter-loop.
func (f *Frame) PopOperand() interface{} {
	if f.TOS < 0 {
		return nil
	}
	v := f.OpStack[f.TOS]
	f.OpStack[f.TOS] = nil
	f.TOS--
	return v
}

// PeekOperand returns the top of f's operand stack without popping it.
func (f *Frame) PeekOperand() interface{} {
	if f.TOS < 0 {
		return nil
	}
	return f.OpStack[f.TOS]
}

type frameError string

func (e frameError) Error() string { return string(e) }

const errFrameStackNil = frameError("frame stack is nil")
