/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"fmt"
	"jacobin/excNames"
	"jacobin/globals"
	"jacobin/trace"
	"sync"
)

// Classes is the method area: every class known to the VM, keyed by its
// fully qualified internal name (spec.md §3 "MethodArea... a table from
// class name to ClassBlock"). Entries progress through Klass.Status as
// loading, format-checking, linking, and initialization complete.
var Classes = make(map[string]*Klass)

var methodAreaMutex sync.RWMutex

// InitMethodArea resets the method area; called once at VM startup.
func InitMethodArea() {
	methodAreaMutex.Lock()
	defer methodAreaMutex.Unlock()
	Classes = make(map[string]*Klass)
}

// MethAreaInsert adds or replaces a class entry.
func MethAreaInsert(name string, k *Klass) {
	methodAreaMutex.Lock()
	defer methodAreaMutex.Unlock()
	Classes[name] = k
}

// MethAreaFetch returns the Klass for name, or nil if not present.
func MethAreaFetch(name string) *Klass {
	methodAreaMutex.RLock()
	defer methodAreaMutex.RUnlock()
	return Classes[name]
}

// MethAreaSize reports how many classes are currently resident, used by
// diagnostics.
func MethAreaSize() int {
	methodAreaMutex.RLock()
	defer methodAreaMutex.RUnlock()
	return len(Classes)
}

// MethAreaFetchStatus returns the status byte for a resident class, or 0
// if the class isn't present -- lets callers avoid taking a full Klass
// pointer just to check whether linking/initialization already happened.
func MethAreaFetchStatus(name string) byte {
	k := MethAreaFetch(name)
	if k == nil {
		return 0
	}
	return k.Status
}

// Link performs spec.md §4.1's linking phase for one class: instance
// field-slot layout (inherited fields first, own fields appended),
// and virtual method table construction (inherited slots reused by
// signature, new methods appended). Link does not build interface
// dispatch tables: cd.IfaceTables is left as it was, and
// BuildInterfaceTable builds one table only when given the interface's
// method keys.
//
// Link is idempotent: a class already marked Linked returns immediately.
func Link(k *Klass) error {
	if k == nil || k.Data == nil {
		return fmt.Errorf("Link: nil class data")
	}
	cd := k.Data
	if cd.Linked {
		return nil
	}

	var super *ClData
	if cd.Name != "java/lang/Object" {
		superK := MethAreaFetch(cd.Superclass)
		if superK == nil {
			// caller is expected to have recursively loaded/linked supers
			// first; if it hasn't, fail loudly rather than silently
			// treating this class as rooted.
			k.Status = StatusBad
			return classFormatErrorf("Link: superclass %s of %s not loaded", cd.Superclass, cd.Name)
		}
		if err := Link(superK); err != nil {
			k.Status = StatusBad
			return err
		}
		super = superK.Data
		cd.SuperclassPtr = superK
	}

	cd.FieldOffsets = make(map[string]int)
	cd.StaticValues = make(map[string]*StaticSlot)
	cd.MethodTableIndex = make(map[string]int)

	offset := 0
	if super != nil {
		offset = super.ObjectSize
		for name, off := range super.FieldOffsets {
			cd.FieldOffsets[name] = off
		}
		cd.VTable = append(cd.VTable, super.VTable...)
		for key, idx := range super.MethodTableIndex {
			cd.MethodTableIndex[key] = idx
		}
	}

	for i := range cd.Fields {
		f := &cd.Fields[i]
		name := fieldName(cd, f)
		if f.IsStatic {
			cd.StaticValues[name] = &StaticSlot{}
		} else {
			cd.FieldOffsets[name] = offset
			offset++
		}
	}
	cd.ObjectSize = offset

	for key, m := range cd.MethodTable {
		if existingIdx, already := cd.MethodTableIndex[key]; already && !isStaticOrPrivate(m) {
			m.MethodTableIndex = existingIdx
			cd.VTable[existingIdx] = m
			continue
		}
		idx := len(cd.VTable)
		m.MethodTableIndex = idx
		cd.MethodTableIndex[key] = idx
		cd.VTable = append(cd.VTable, m)
	}

	cd.IsReferenceClass = cd.Name == "java/lang/ref/Reference" ||
		(super != nil && super.IsReferenceClass)
	cd.IsClassLoader = cd.Name == "java/lang/ClassLoader" ||
		(super != nil && super.IsClassLoader)

	cd.Linked = true
	k.Status = StatusLinked
	if globals.TraceClass {
		trace.Trace("Link: class " + cd.Name + " linked, object size " + fmt.Sprint(cd.ObjectSize) + " slots")
	}
	return nil
}

// fieldName resolves a Field's Name index (into cd.CP.Utf8Refs) to its
// actual UTF-8 string, falling back to a synthetic name if the class data
// is somehow inconsistent (should never happen past format-checking).
func fieldName(cd *ClData, f *Field) string {
	if int(f.Name) < len(cd.CP.Utf8Refs) {
		return cd.CP.Utf8Refs[f.Name]
	}
	return fmt.Sprintf("<unnamed field %d>", f.Name)
}

func isStaticOrPrivate(m *Method) bool {
	const (
		accStatic  = 0x0008
		accPrivate = 0x0002
	)
	return m.AccessFlags&accStatic != 0 || m.AccessFlags&accPrivate != 0
}

// BuildInterfaceTable constructs one IfaceMethodTable for iface against
// the already-linked class cd, resolving each interface method against
// cd's VTable by name+descriptor and leaving unmatched entries as -1
// (miranda methods, per spec.md's glossary entry).
func BuildInterfaceTable(cd *ClData, ifaceName string, ifaceMethodKeys []string) IfaceMethodTable {
	t := IfaceMethodTable{InterfaceName: ifaceName}
	for _, key := range ifaceMethodKeys {
		if idx, ok := cd.MethodTableIndex[key]; ok {
			t.Offsets = append(t.Offsets, idx)
		} else {
			t.Offsets = append(t.Offsets, -1)
		}
	}
	return t
}

func classFormatErrorf(format string, args ...interface{}) error {
	return cfe(fmt.Sprintf(format, args...))
}

// ThrowLinkageError is the entry point the interpreter and classloader
// call when class preparation discovers an inconsistency (missing
// superclass, field/method resolution failure, a loader redefining a
// name it already defined) after the class was already believed loaded.
// It raises a real, catchable java/lang/LinkageError through the same
// globals.FuncThrowException hook classloader.go uses for
// ClassNotFoundException, then returns a Go error describing the same
// failure. Both the default hook and the one the jvm package installs
// panic, so the return is reached only when a hook that returns has been
// installed in their place.
func ThrowLinkageError(className, detail string) error {
	msg := className
	if detail != "" {
		msg = className + ": " + detail
	}
	trace.Error("LinkageError: " + msg)
	globals.GetGlobalRef().FuncThrowException(excNames.LinkageError, msg)
	return classFormatErrorf("LinkageError for %s: %s", className, detail)
}
