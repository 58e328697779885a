/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by  the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package object is the heap object model of spec.md §3: every Java
// instance, array, and (via the SPECIAL flag convention) Class object is
// represented by an *Object, traced and relocated by package gc through
// the Mark field and the KlassName-driven field table.
package object

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"jacobin/stringPool"
	"jacobin/types"
)

// MarkWord is the lockword/hash header described in spec.md §3: tag bit 0
// selects thin (owner thread id + recursion count) vs. fat (monitor
// pointer) representation; Hash is lazily populated on first
// identityHashCode() call and must survive compaction unchanged.
type MarkWord struct {
	Lockword uint64 // tag 0: thin lock payload; tag 1 (low bit set): monitor index | 1
	Hash     uint32
	HasHash  bool
}

// Field is one instance or static field slot. Ftype is the JVMS field
// descriptor; Fvalue holds a Go representation appropriate to it (int64 for
// integral types including bool/byte/char/short promoted to their
// canonical width, float64 for double, float32 for float, *Object/nil for
// reference types, []*Object or primitive slices for arrays).
type Field struct {
	Ftype  string
	Fvalue interface{}
}

// Object is the runtime representation of every Java instance and array.
// KlassName is a stringPool index rather than a direct pointer so that
// Object can be compared/hashed/copied cheaply and so the collector can
// locate the owning class without following a pointer that might itself
// need tracing (classes are themselves heap objects, per spec.md §3).
type Object struct {
	KlassName  uint32
	FieldTable map[string]*Field
	Mark       MarkWord

	// FieldOrder records insertion order so toString()/field-iteration
	// output is stable, which the teacher's object_test.go relies on.
	FieldOrder []string

	// HeapOffset is the byte offset package heap returned when this
	// object's backing chunk was reserved, and Tracked reports whether
	// that actually happened. An object built without going through the
	// allocator (an internal bootstrap value, a thrown exception's
	// detail object) leaves Tracked false and is invisible to package
	// gc's sweep -- only allocator-registered objects are ever freed.
	HeapOffset int64
	Tracked    bool
}

var objectSeq uint64

// MakeEmptyObject returns a new, fieldless Object. Callers that know the
// class fill in KlassName and fields afterward (this mirrors
// jvm.instantiateClass's two-phase construction: load, then lay out fields).
func MakeEmptyObject() *Object {
	obj := &Object{
		KlassName:  types.ObjectPoolStringIndex,
		FieldTable: make(map[string]*Field),
	}
	// The identity hash is seeded from a monotonic counter rather than the
	// object's address (Go may move it at any GC, long before our own
	// mark-compact runs) -- see gc.md compaction-stability note: once
	// observed, Mark.Hash must never change, which a counter guarantees
	// trivially.
	obj.Mark.Hash = uint32(atomic.AddUint64(&objectSeq, 1))
	obj.Mark.HasHash = true
	return obj
}

// NewStringObject creates an (empty) java/lang/String instance with its
// backing "value" byte-array field initialized, ready for a caller to
// populate via StringObjectFromGoString, UpdateStringObjectFromBytes, or
// direct field assignment. The backing slice is a plain []byte rather than
// []types.JavaByte -- every native String method in gfunction type-asserts
// the "value" field straight to []byte, so that is the representation the
// rest of the runtime must produce.
func NewStringObject() *Object {
	obj := MakeEmptyObject()
	obj.KlassName = types.StringPoolStringIndex
	obj.SetField("value", types.ByteArray, []byte{})
	return obj
}

// SetField installs or overwrites a field, tracking first-insertion order.
func (o *Object) SetField(name, ftype string, value interface{}) {
	if _, exists := o.FieldTable[name]; !exists {
		o.FieldOrder = append(o.FieldOrder, name)
	}
	o.FieldTable[name] = &Field{Ftype: ftype, Fvalue: value}
}

// ClassName resolves KlassName back to its string via the interned pool.
func (o *Object) ClassName() string {
	if p := stringPool.GetStringPointer(o.KlassName); p != nil {
		return *p
	}
	return ""
}

// IsReferenceType reports whether a field descriptor denotes something the
// collector must trace as a pointer (object reference or array).
func IsReferenceType(ftype string) bool {
	return strings.HasPrefix(ftype, "L") || strings.HasPrefix(ftype, "[")
}

// ReferenceFields returns the names of every field in o whose type is a
// reference or array, in stable order. This is the runtime stand-in for
// spec.md §3's precomputed refs_offsets_table: instead of a byte-offset
// range list, the collector walks this name list, which is equivalent in
// effect (every reference field is visited exactly once) while fitting
// Go's map-based field storage. Logged as a deliberate substitution in
// DESIGN.md.
func (o *Object) ReferenceFields() []string {
	var refs []string
	for _, name := range o.FieldOrder {
		if f, ok := o.FieldTable[name]; ok && IsReferenceType(f.Ftype) {
			refs = append(refs, name)
		}
	}
	return refs
}

// String implements a best-effort toString() for trace output and the
// teacher's object_test.go expectations: "ClassName{field=value, ...}" with
// fields in insertion order.
func (o *Object) String() string {
	names := make([]string, len(o.FieldOrder))
	copy(names, o.FieldOrder)
	if len(names) == 0 {
		// fall back to map iteration, sorted, for objects built without
		// going through SetField
		for k := range o.FieldTable {
			names = append(names, k)
		}
		sort.Strings(names)
	}

	var sb strings.Builder
	sb.WriteString(o.ClassName())
	sb.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		f := o.FieldTable[name]
		sb.WriteString(fmt.Sprintf("%s=%v", name, f.Fvalue))
	}
	sb.WriteByte('}')
	return sb.String()
}

// FormatField renders o the way String.valueOf(Object) does: a String
// instance contributes its own character content, anything else falls back
// to the same ClassName{field=value, ...} dump String() produces. prefix is
// prepended to the result (callers generally pass "").
func (o *Object) FormatField(prefix string) string {
	if o == nil {
		return prefix + "null"
	}
	if o.ClassName() == types.StringClassName {
		return prefix + GoStringFromStringObject(o)
	}
	return prefix + o.String()
}

// Null is the canonical representation of the Java null reference:
// *Object(nil). A typed nil constant avoids every call site re-deriving it.
var Null *Object = nil
