/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2022 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"
	"fmt"

	"jacobin/classloader"
	"jacobin/object"
	"jacobin/stringPool"
	"jacobin/trace"
	"jacobin/types"
)

// instantiateClass is a two-part process: first the class needs to be
// loaded so its fields and methods are knowable, then an Object is
// allocated and its instance fields laid out with their default values
// (JVMS 2.3: every field defaults to its type's zero value until a
// constructor runs). The object's byte cost is then reserved out of
// VMHeap (fs is the frame stack a triggered collection would scan for
// roots), so "any allocation may trigger collection" (spec.md §7) holds
// for `new` the same as it does for array creation.
func instantiateClass(fs *list.List, classname string) (*object.Object, error) {
	trace.Trace("Instantiating class: " + classname)

	k := classloader.MethAreaFetch(classname)
	for k != nil && k.Status == classloader.StatusInitializing {
		// another goroutine is mid-load; spin until it either finishes or
		// the entry disappears (load failed and was rolled back)
		k = classloader.MethAreaFetch(classname)
	}
	if k == nil {
		if err := classloader.LoadClassFromNameOnly(classname); err != nil {
			errMsg := "instantiateClass: error loading class " + classname
			trace.Error(errMsg)
			return nil, err
		}
		k = classloader.MethAreaFetch(classname)
	}
	if k == nil || k.Data == nil {
		return nil, classloader.CFE("instantiateClass: class " + classname + " not present in method area after load")
	}

	obj := object.MakeEmptyObject()
	obj.KlassName = stringPool.GetStringIndex(classname)

	for _, f := range k.Data.Fields {
		if f.IsStatic {
			continue // static fields live in ClData.StaticValues, not on the instance
		}
		name := fieldNameOf(k.Data, f.Name)
		ftype := fieldNameOf(k.Data, f.Desc)
		obj.SetField(name, ftype, zeroValueFor(ftype))
	}

	size := int64(objectBaseSize + objectFieldSize*len(obj.FieldTable))
	if err := allocate(fs, obj, size); err != nil {
		return nil, err
	}

	return obj, nil
}

// fieldNameOf resolves a Field.Name/Field.Desc index (into cd.CP.Utf8Refs)
// to its string, falling back to a synthetic placeholder on malformed
// input -- should never happen past format-checking.
func fieldNameOf(cd *classloader.ClData, idx uint16) string {
	if int(idx) < len(cd.CP.Utf8Refs) {
		return cd.CP.Utf8Refs[idx]
	}
	return fmt.Sprintf("<unnamed field %d>", idx)
}

// zeroValueFor returns the JVMS-mandated default value for a field
// descriptor: null for references/arrays, 0/0.0 for primitives.
func zeroValueFor(ftype string) interface{} {
	if ftype == "" {
		return nil
	}
	switch ftype[0] {
	case 'L', '[':
		return object.Null
	case 'D':
		return float64(0)
	case 'F':
		return float32(0)
	case 'J':
		return int64(0)
	case 'Z':
		return types.JavaBoolFalse
	default: // B, C, I, S
		return int64(0)
	}
}
