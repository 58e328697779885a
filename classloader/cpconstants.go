/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

// Constant-pool entry tags, per JVMS §4.4 Table 4.4-A. These are the
// verbatim class-file tag values; CpEntry.Type keeps them after
// resolution (spec.md §3 "ConstantPool").
const (
	Dummy = 0 // unused placeholder, slot 0 and the second slot of a Long/Double entry

	UTF8          = 1
	IntConst      = 3
	FloatConst    = 4
	LongConst     = 5
	DoubleConst   = 6
	ClassRef      = 7
	StringConst   = 8
	FieldRef      = 9
	MethodRef     = 10
	Interface     = 11 // InterfaceMethodref
	NameAndType   = 12
	MethodHandle  = 15
	MethodType    = 16
	Dynamic       = 17
	InvokeDynamic = 18
	Module        = 19
	Package       = 20
)

// Resolved variants. No code writes these into CpEntry.Type: the
// interpreter caches resolved references per frame in PreparedCode
// instead (spec.md §4.2 "Quickening"). The numeric values are offset well
// past any real class-file tag so the two spaces can never collide.
const (
	ResolvedClass = iota + 100
	ResolvedField
	ResolvedMethod
	ResolvedInterfaceMethod
	ResolvedString
)

// IsResolved reports whether a CP entry has already been through
// resolution and rewritten in place.
func IsResolved(entryType uint16) bool {
	return entryType >= ResolvedClass
}
