/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"
	"fmt"

	"jacobin/classloader"
	"jacobin/excNames"
	"jacobin/frames"
	"jacobin/gfunction"
	"jacobin/globals"
	"jacobin/monitor"
	"jacobin/object"
	"jacobin/stringPool"
	"jacobin/types"
	"jacobin/util"
)

// frameNominalSize is the nominal per-frame byte cost charged against the
// configured -Xss budget, the same kind of accounting weight alloc.go's
// objectBaseSize/objectFieldSize use against -Xmx: this interpreter's
// frames.Frame lives on the Go heap, not a byte-addressed thread stack, so
// there's no literal frame size to measure -- only a knob that makes -Xss
// mean something.
const frameNominalSize = 256

// stackRedZoneFrames is held in reserve below the hard -Xss limit: once a
// StackOverflowError is thrown, the catch handler running in the frame
// that's already active may still call further methods (logging, rethrow,
// cleanup) before the stack unwinds, and those calls need a little
// remaining headroom rather than overflowing immediately again.
const stackRedZoneFrames = 16

// accSynchronized is the JVMS method access flag (0x0020) that marks a
// method as requiring monitor acquisition around its body (spec.md
// §4.2 "Invoke": "on ACC_SYNCHRONIZED acquires the method's class (for
// static) or the this reference (otherwise)").
const accSynchronized = 0x0020

// synchronizedLockHash picks the object identity hash invokeMethod's
// ACC_SYNCHRONIZED handling locks on: the receiver for an instance
// method, or a hash derived from the class's interned name for a static
// one (this runtime has no heap-resident java.lang.Class instance to
// hash per spec.md §3's "Class stored as a heap object" -- the interned
// string-pool index is the stable, unique-per-class substitute).
func synchronizedLockHash(className string, args []interface{}, isStatic bool) uint32 {
	if !isStatic && len(args) > 0 {
		if recv, ok := args[0].(*object.Object); ok && recv != nil {
			return recv.Mark.Hash
		}
	}
	return stringPool.GetStringIndex(className)
}

// resolveMethodRef decodes a methodref or interface-methodref CP entry
// (the two-byte operand of an invoke* instruction) into its declaring
// class, name, and descriptor. classloader.GetMethInfoFromCPmethref only
// recognizes the plain MethodRef tag, so invokeinterface's
// InterfaceRefEntry -- structurally identical but tagged separately --
// is decoded here instead.
func resolveMethodRef(cp *classloader.CPool, cpIndex int) (className, methName, methDesc string) {
	if cpIndex < 1 || cpIndex >= len(cp.CpIndex) {
		return "", "", ""
	}
	if cp.CpIndex[cpIndex].Type != classloader.Interface {
		return classloader.GetMethInfoFromCPmethref(cp, cpIndex)
	}

	ifaceRef := cp.CpIndex[cpIndex].Slot
	classIndex := cp.InterfaceRefs[ifaceRef].ClassIndex
	classRefIdx := cp.CpIndex[classIndex].Slot
	classIdx := cp.ClassRefs[classRefIdx]
	classNameIdx := cp.CpIndex[classIdx]
	className = cp.Utf8Refs[classNameIdx.Slot]

	nameAndTypeCPIndex := cp.InterfaceRefs[ifaceRef].NameAndType
	nameAndTypeIndex := cp.CpIndex[nameAndTypeCPIndex].Slot
	nameAndType := cp.NameAndTypes[nameAndTypeIndex]

	methName = cp.Utf8Refs[cp.CpIndex[nameAndType.NameIndex].Slot]
	methDesc = cp.Utf8Refs[cp.CpIndex[nameAndType.DescIndex].Slot]
	return className, methName, methDesc
}

// invokeMethod dispatches a resolved class.name.descriptor call: native
// methods run directly against gfunction.MethodSignatures, bytecode
// methods get a fresh Frame pushed onto fs and are run to completion by a
// nested runFrame call before control returns here. virtual/interface
// dispatch reresolves against the receiver's actual class -- this runtime
// being stack-based and single-class-hierarchy-aware only for loaded
// classes, the resolution is a single vtable lookup, not the full
// signature-polymorphic algorithm of JVMS §5.4.3.3/4.
func invokeMethod(fs *list.List, className, methName, methDesc string, args []interface{}, isStatic bool) (interface{}, error) {
	key := className + "." + methName + methDesc
	jme, ok := classloader.MTableFetch(key)
	if !ok {
		return nil, throwException(excNames.NoSuchMethodError, key)
	}

	run := func() (interface{}, error) {
		switch jme.MType {
		case classloader.MTypeNative:
			return runGmethod(jme, args)
		case classloader.MTypeBytecode:
			return runBytecodeMethod(fs, className, methName, methDesc, jme, args)
		default:
			return nil, fmt.Errorf("invokeMethod: %s has unrecognized method type %q", key, jme.MType)
		}
	}

	if jme.AccessFlags&accSynchronized == 0 {
		return run()
	}

	hash := synchronizedLockHash(className, args, isStatic)
	tid := int32(MainThread.ID)
	monitor.Lock(hash, tid)
	result, err := run()
	if unlockErr := monitor.Unlock(hash, tid); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return result, err
}

// runGmethod runs a native method entry, translating its *gfunction.GErrBlk
// convention (returned in place of a value to signal a Java exception) into
// this interpreter's javaThrow error path.
func runGmethod(jme classloader.JmEntry, args []interface{}) (interface{}, error) {
	gm, ok := jme.Meth.(gfunction.GMeth)
	if !ok {
		return nil, fmt.Errorf("runGmethod: method table entry is not a native registration")
	}
	if args == nil {
		args = []interface{}{}
	}
	result := gm.GFunction(args)
	if errBlk, ok := result.(*gfunction.GErrBlk); ok {
		return nil, throwException(errBlk.ExceptionType, errBlk.ErrMsg)
	}
	return result, nil
}

// runBytecodeMethod builds a frame for jme, pushes it atop fs, and runs it
// to completion via a nested runFrame call -- the callee's own invoke
// instructions recurse the same way, so the Go call stack mirrors the JVM
// frame stack exactly.
func runBytecodeMethod(fs *list.List, className, methName, methDesc string, jme classloader.JmEntry, args []interface{}) (interface{}, error) {
	k := classloader.MethAreaFetch(className)
	if k == nil || k.Data == nil {
		return nil, throwException(excNames.NoClassDefFoundError, className)
	}

	depth := MainThread.EnterFrame()
	defer MainThread.ExitFrame()
	if exceedsStackBudget(depth) {
		return nil, throwException(excNames.StackOverflowError, "")
	}

	f := frames.CreateFrame(jme.MaxStack + 2)
	f.ClName = className
	f.MethName = methName
	f.MethType = methDesc
	f.CP = &k.Data.CP
	f.Meth = jme.Code
	f.ExceptionTable = jme.CodeAttr.Exceptions

	f.Locals = make([]interface{}, jme.MaxLocals)
	placeArgsInLocals(f.Locals, args, methDesc)

	if err := frames.PushFrame(fs, f); err != nil {
		return nil, err
	}
	return runFrame(fs)
}

// exceedsStackBudget reports whether depth pushed frames, at
// frameNominalSize bytes apiece, would run into or past the reserved red
// zone below the configured -Xss limit (globals.Globals.ThreadStackSize,
// falling back to types.DefaultThreadStackSize when -Xss wasn't given).
func exceedsStackBudget(depth int32) bool {
	limit := globals.GetGlobalRef().ThreadStackSize
	if limit <= 0 {
		limit = types.DefaultThreadStackSize
	}
	maxFrames := limit / frameNominalSize
	return int64(depth) > maxFrames-stackRedZoneFrames
}

// placeArgsInLocals copies args into locals at the slot indices a real
// JVM local-variable table would assign them: args[0] occupies slot 0
// regardless of whether it's an instance receiver or the method's first
// declared parameter (methDesc covers only the latter), and every long
// or double argument after it pushes every later slot index up by one
// extra, mirroring util.ParamSlotsNeeded's category-2 accounting -- this
// runtime represents a long/double as a single interface{} value, so the
// slot it doesn't occupy is simply left nil, matching the JVMS's own
// "second slot of a category 2 local is undefined" rule.
func placeArgsInLocals(locals []interface{}, args []interface{}, methDesc string) {
	slot := 0
	argIdx := 0
	// the receiver, if any, is not part of methDesc's parameter list but
	// always takes exactly one slot -- detected by there being one more
	// arg than methDesc's own parameter count.
	if len(args) > util.CountParams(methDesc) {
		if slot < len(locals) {
			locals[slot] = args[argIdx]
		}
		slot++
		argIdx++
	}
	for _, width := range util.ParamSlotWidths(methDesc) {
		if argIdx >= len(args) {
			break
		}
		if slot < len(locals) {
			locals[slot] = args[argIdx]
		}
		slot += width
		argIdx++
	}
}
