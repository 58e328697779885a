/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"jacobin/classloader"
	"jacobin/excNames"
	"jacobin/object"
)

// resolveFieldRef decodes a fieldref CP entry the same way
// classloader.GetMethInfoFromCPmethref decodes a methodref: walk
// FieldRef -> ClassIndex -> ClassRef -> UTF8 for the owning class name, and
// FieldRef -> NameAndType -> (NameIndex, DescIndex) for the field's own
// name and descriptor.
func resolveFieldRef(cp *classloader.CPool, cpIndex int) (className, fieldName, fieldDesc string) {
	if cpIndex < 1 || cpIndex >= len(cp.CpIndex) || cp.CpIndex[cpIndex].Type != classloader.FieldRef {
		return "", "", ""
	}
	fieldRef := cp.CpIndex[cpIndex].Slot
	classIndex := cp.FieldRefs[fieldRef].ClassIndex
	classRefIdx := cp.CpIndex[classIndex].Slot
	classIdx := cp.ClassRefs[classRefIdx]
	classNameIdx := cp.CpIndex[classIdx]
	className = cp.Utf8Refs[classNameIdx.Slot]

	nameAndTypeCPIndex := cp.FieldRefs[fieldRef].NameAndType
	nameAndTypeIndex := cp.CpIndex[nameAndTypeCPIndex].Slot
	nameAndType := cp.NameAndTypes[nameAndTypeIndex]

	fieldNameUTF8 := cp.CpIndex[nameAndType.NameIndex].Slot
	fieldName = cp.Utf8Refs[fieldNameUTF8]

	fieldDescUTF8 := cp.CpIndex[nameAndType.DescIndex].Slot
	fieldDesc = cp.Utf8Refs[fieldDescUTF8]
	return className, fieldName, fieldDesc
}

// findFieldDescriptor looks up name's descriptor string among cd's own
// declared fields (not inherited ones -- statics are never inherited in
// storage, and instance descriptor lookups here only run once per
// quickened getfield/putfield, against the class that declared the CP
// entry).
func findFieldDescriptor(cd *classloader.ClData, name string) string {
	for _, f := range cd.Fields {
		if int(f.Name) < len(cd.CP.Utf8Refs) && cd.CP.Utf8Refs[f.Name] == name {
			if int(f.Desc) < len(cd.CP.Utf8Refs) {
				return cd.CP.Utf8Refs[f.Desc]
			}
		}
	}
	return ""
}

// getStaticField reads className.fieldName's class-wide storage slot,
// initializing it to its descriptor's zero value on first access (covers
// reads that occur before any <clinit>-driven putstatic has run).
func getStaticField(className, fieldName string) (interface{}, error) {
	k := classloader.MethAreaFetch(className)
	if k == nil || k.Data == nil {
		return nil, throwException(excNames.NoClassDefFoundError, className)
	}
	slot, ok := k.Data.StaticValues[fieldName]
	if !ok {
		return nil, throwException(excNames.NoSuchFieldError, className+"."+fieldName)
	}
	if slot.Ftype == "" {
		slot.Ftype = findFieldDescriptor(k.Data, fieldName)
		slot.Value = zeroValueFor(slot.Ftype)
	}
	return slot.Value, nil
}

// putStaticField overwrites className.fieldName's class-wide storage slot.
func putStaticField(className, fieldName string, value interface{}) error {
	k := classloader.MethAreaFetch(className)
	if k == nil || k.Data == nil {
		return throwException(excNames.NoClassDefFoundError, className)
	}
	slot, ok := k.Data.StaticValues[fieldName]
	if !ok {
		return throwException(excNames.NoSuchFieldError, className+"."+fieldName)
	}
	if slot.Ftype == "" {
		slot.Ftype = findFieldDescriptor(k.Data, fieldName)
	}
	slot.Value = value
	return nil
}

// getInstanceField reads fieldName off obj, which must already carry it
// (instantiateClass lays out every declared instance field with its zero
// value, so a well-formed class file never misses here).
func getInstanceField(obj *object.Object, fieldName string) (interface{}, error) {
	if obj == nil {
		return nil, throwException(excNames.NullPointerException, "getfield on null reference")
	}
	f, ok := obj.FieldTable[fieldName]
	if !ok {
		return nil, throwException(excNames.NoSuchFieldError, obj.ClassName()+"."+fieldName)
	}
	return f.Fvalue, nil
}

// putInstanceField overwrites fieldName on obj, preserving its declared
// descriptor.
func putInstanceField(obj *object.Object, fieldName string, value interface{}) error {
	if obj == nil {
		return throwException(excNames.NullPointerException, "putfield on null reference")
	}
	ftype := ""
	if f, ok := obj.FieldTable[fieldName]; ok {
		ftype = f.Ftype
	}
	obj.SetField(fieldName, ftype, value)
	return nil
}
