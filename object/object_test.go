/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package object

import (
	"strings"
	"testing"

	"jacobin/stringPool"
	"jacobin/types"
)

func TestObjectToString(t *testing.T) {
	obj := MakeEmptyObject()
	obj.KlassName = stringPool.GetStringIndex("java/lang/madeUpClass")

	obj.SetField("myFloat", "F", float32(1.0))
	obj.SetField("myDouble", "D", 2.0)
	obj.SetField("myInt", "I", int64(42))
	obj.SetField("myLong", "J", int64(42))
	obj.SetField("myShort", "S", int64(42))
	obj.SetField("myByte", "B", int64(0x61))
	obj.SetField("myStaticTrue", "Z", true)
	obj.SetField("myFalse", "Z", false)
	obj.SetField("myChar", "C", int64('C'))
	obj.SetField("myString", "Ljava/lang/String;", "Hello, Unka Andoo !")

	str := obj.String()
	if len(str) == 0 {
		t.Errorf("empty string for object.String()")
	}
	if !strings.Contains(str, "java/lang/madeUpClass") {
		t.Errorf("expected class name in String(), got: %s", str)
	}
	if !strings.Contains(str, "myInt=42") {
		t.Errorf("expected field myInt=42 in String(), got: %s", str)
	}
}

func TestObjectToStringFromStringObject(t *testing.T) {
	jb := JavaByteArrayFromGoString("This is a compact string from a Go string")
	csObj := StringObjectFromJavaByteArray(jb)
	retStr := csObj.String()
	if len(retStr) == 0 {
		t.Errorf("empty string for object.String()")
	}
}

func TestClassNameRoundTrip(t *testing.T) {
	stringPool.Reset()
	obj := MakeEmptyObject()
	if obj.ClassName() != "java/lang/Object" {
		t.Errorf("expected default class name java/lang/Object, got %s", obj.ClassName())
	}

	obj.KlassName = stringPool.GetStringIndex("java/lang/Thread")
	if obj.ClassName() != "java/lang/Thread" {
		t.Errorf("expected java/lang/Thread, got %s", obj.ClassName())
	}
}

func TestReferenceFieldsOnlyListsReferencesAndArrays(t *testing.T) {
	obj := MakeEmptyObject()
	obj.SetField("count", types.Int, int64(3))
	obj.SetField("name", "Ljava/lang/String;", NewStringObject())
	obj.SetField("data", types.ByteArray, []types.JavaByte{1, 2, 3})

	refs := obj.ReferenceFields()
	if len(refs) != 2 {
		t.Errorf("expected 2 reference fields, got %d: %v", len(refs), refs)
	}
}

func TestMakeEmptyObjectHashIsStableAndUnique(t *testing.T) {
	o1 := MakeEmptyObject()
	o2 := MakeEmptyObject()
	if o1.Mark.Hash == o2.Mark.Hash {
		t.Errorf("two distinct objects should not share an identity hash")
	}
	if !o1.Mark.HasHash {
		t.Errorf("MakeEmptyObject should mark the hash as already computed")
	}
}
