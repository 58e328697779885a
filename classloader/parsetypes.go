/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

// Parse-time constant-pool entry. entryType is the verbatim class-file tag
// (one of the untyped constants in cpconstants.go); slot indexes into the
// type-specific parallel array the tag identifies (spec.md §3
// "ConstantPool... Parallel arrays type[], info[]").
type cpEntry struct {
	entryType int
	slot      int
}

type utf8Entry struct {
	content string
}

type fieldRefEntry struct {
	classIndex       int
	nameAndTypeIndex int
}

type methodRefEntry struct {
	classIndex       int
	nameAndTypeIndex int
}

type interfaceRefEntry struct {
	classIndex       int
	nameAndTypeIndex int
}

type nameAndTypeEntry struct {
	nameIndex       int
	descriptorIndex int
}

type stringConstantEntry struct {
	index int // index of the UTF8 entry this string constant names
}

type methodHandleEntry struct {
	referenceKind  int
	referenceIndex int
}

type dynamic struct {
	bootstrapIndex int
	nameAndType    int
}

type invokeDynamic struct {
	bootstrapIndex int
	nameAndType    int
}
