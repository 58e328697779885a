/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by  the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package object

import (
	"jacobin/stringPool"
	"jacobin/types"
	"strings"
	"unicode"
)

func GoStringFromJavaByteArray(jbarr []types.JavaByte) string {
	var sb strings.Builder
	for _, b := range jbarr {
		sb.WriteByte(byte(b))
	}
	return sb.String()
}

func JavaByteArrayFromGoString(str string) []types.JavaByte {
	jbarr := make([]types.JavaByte, len(str))
	for i, b := range str {
		jbarr[i] = types.JavaByte(b)
	}
	return jbarr
}

func JavaByteArrayFromGoByteArray(gbarr []byte) []types.JavaByte {
	jbarr := make([]types.JavaByte, len(gbarr))
	for i, b := range gbarr {
		jbarr[i] = types.JavaByte(b)
	}
	return jbarr
}

func GoByteArrayFromJavaByteArray(jbarr []types.JavaByte) []byte {
	gbarr := make([]byte, len(jbarr))
	for i, b := range jbarr {
		gbarr[i] = byte(b)
	}
	return gbarr
}

// JavaByteFromStringObject: convenience method to extract a Java byte array from a String object (Java string)
func JavaByteArrayFromStringObject(obj *Object) []types.JavaByte {
	if obj != nil && obj.KlassName == types.StringPoolStringIndex {
		return obj.FieldTable["value"].Fvalue.([]types.JavaByte)
	} else {
		return nil
	}
}

// StringObjectFromJavaByteArray: convenience method to create a string object from a JavaByte array
func StringObjectFromJavaByteArray(bytes []types.JavaByte) *Object {
	newStr := NewStringObject()
	newStr.SetField("value", types.ByteArray, bytes)
	return newStr
}

// JavaByteArrayFromStringPoolIndex: convenience method to get a byte array using a string pool index
func JavaByteArrayFromStringPoolIndex(index uint32) []types.JavaByte {
	if index < stringPool.GetStringPoolSize() {
		str := *stringPool.GetStringPointer(index)
		return JavaByteArrayFromGoString(str)
	} else {
		return nil
	}
}

func JavaByteArrayEquals(jbarr1, jbarr2 []types.JavaByte) bool {
	if jbarr1 == nil || jbarr2 == nil {
		if jbarr1 == nil && jbarr2 == nil {
			return true
		}
		return false
	}

	if len(jbarr1) != len(jbarr2) {
		return false
	}
	for i, b := range jbarr1 {
		if b != jbarr2[i] {
			return false
		}
	}
	return true
}

// GoStringFromStringObject extracts the Go string content backing a
// java/lang/String instance. Tolerates either []byte (this runtime's
// canonical "value" representation) or []types.JavaByte (objects built via
// StringObjectFromJavaByteArray), so callers never need to know which
// constructor built the string they were handed.
func GoStringFromStringObject(obj *Object) string {
	if obj == nil {
		return ""
	}
	f, ok := obj.FieldTable["value"]
	if !ok {
		return ""
	}
	switch v := f.Fvalue.(type) {
	case []byte:
		return string(v)
	case []types.JavaByte:
		return GoStringFromJavaByteArray(v)
	default:
		return ""
	}
}

// StringObjectFromGoString creates a new java/lang/String instance backed
// by str.
func StringObjectFromGoString(str string) *Object {
	obj := NewStringObject()
	obj.SetField("value", types.ByteArray, []byte(str))
	return obj
}

// ByteArrayFromStringObject returns the raw bytes backing a java/lang/String
// instance, in this runtime's canonical []byte form regardless of which
// constructor built obj.
func ByteArrayFromStringObject(obj *Object) []byte {
	if obj == nil {
		return nil
	}
	f, ok := obj.FieldTable["value"]
	if !ok {
		return nil
	}
	switch v := f.Fvalue.(type) {
	case []byte:
		return v
	case []types.JavaByte:
		return GoByteArrayFromJavaByteArray(v)
	default:
		return nil
	}
}

// UpdateStringObjectFromBytes overwrites obj's backing "value" field with
// bytes, used by String's byte-array constructors to finish initializing
// the receiver passed in as params[0].
func UpdateStringObjectFromBytes(obj *Object, bytes []byte) {
	obj.SetField("value", types.ByteArray, bytes)
}

func JavaByteArrayEqualsIgnoreCase(jbarr1, jbarr2 []types.JavaByte) bool {
	if jbarr1 == nil || jbarr2 == nil {
		if jbarr1 == nil && jbarr2 == nil {
			return true
		}
		return false
	}

	if len(jbarr1) != len(jbarr2) {
		return false
	}
	for i, b := range jbarr1 {
		if unicode.ToLower(rune(b)) != unicode.ToLower(rune(jbarr2[i])) {
			return false
		}
	}
	return true
}
