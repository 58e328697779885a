/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "fmt"

// formatCheckClass performs spec.md §4.1's structural format check: every
// constant-pool cross-reference actually lands on the entry type it
// claims to, every Long/Double occupies its two slots, and the
// this/super/interfaces/fields/methods all reference valid UTF8 or
// ClassRef entries. It deliberately does NOT verify bytecode semantics
// (stack-map/type-flow checking) -- spec.md scopes that out as a
// Non-goal; only the structural shape described here is checked.
func formatCheckClass(pc *ParsedClass) error {
	if err := formatCheckConstantPool(pc); err != nil {
		return err
	}

	if pc.classNameIndex == 0 && pc.className == "" {
		return cfe("formatCheckClass: class has no name")
	}

	for i, f := range pc.fields {
		if f.name < 0 || f.name >= len(pc.utf8Refs) {
			return cfe(fmt.Sprintf("formatCheckClass: field %d has invalid name index", i))
		}
		if f.description < 0 || f.description >= len(pc.utf8Refs) {
			return cfe(fmt.Sprintf("formatCheckClass: field %d has invalid descriptor index", i))
		}
		if !isValidFieldDescriptor(pc.utf8Refs[f.description].content) {
			return cfe(fmt.Sprintf("formatCheckClass: field %d has malformed descriptor %q",
				i, pc.utf8Refs[f.description].content))
		}
	}

	for i, m := range pc.methods {
		if m.name < 0 || m.name >= len(pc.utf8Refs) {
			return cfe(fmt.Sprintf("formatCheckClass: method %d has invalid name index", i))
		}
		if m.description < 0 || m.description >= len(pc.utf8Refs) {
			return cfe(fmt.Sprintf("formatCheckClass: method %d has invalid descriptor index", i))
		}
		if !isValidMethodDescriptor(pc.utf8Refs[m.description].content) {
			return cfe(fmt.Sprintf("formatCheckClass: method %d has malformed descriptor %q",
				i, pc.utf8Refs[m.description].content))
		}
		for _, exc := range m.codeAttr.exceptions {
			if exc.startPc > exc.endPc {
				return cfe(fmt.Sprintf("formatCheckClass: method %d has an exception handler with start_pc > end_pc", i))
			}
			if exc.handlerPc >= len(m.codeAttr.code) {
				return cfe(fmt.Sprintf("formatCheckClass: method %d has an exception handler pc past the end of its code", i))
			}
		}
	}

	return nil
}

// formatCheckConstantPool walks every entry, confirming each index it
// carries resolves to an entry that exists and (where the JVMS pins the
// type down, e.g. a FieldRef's class_index must be a ClassRef) is of the
// expected kind.
func formatCheckConstantPool(pc *ParsedClass) error {
	n := len(pc.cpIndex)
	checkIdx := func(idx int, wantType int, context string) error {
		if idx < 1 || idx >= n {
			return cfe(fmt.Sprintf("formatCheckConstantPool: %s references out-of-range CP index %d", context, idx))
		}
		if pc.cpIndex[idx].entryType != wantType {
			return cfe(fmt.Sprintf("formatCheckConstantPool: %s at CP index %d is not the expected type", context, idx))
		}
		return nil
	}

	for i := 1; i < n; i++ {
		e := pc.cpIndex[i]
		switch e.entryType {
		case Dummy:
			continue
		case UTF8, IntConst, FloatConst, LongConst, DoubleConst:
			// self-contained, nothing to cross-check
		case ClassRef:
			idx := int(pc.classRefs[e.slot])
			if err := checkIdx(idx, UTF8, "ClassRef"); err != nil {
				return err
			}
		case StringConst:
			idx := pc.stringRefs[e.slot].index
			if err := checkIdx(idx, UTF8, "StringConst"); err != nil {
				return err
			}
		case FieldRef:
			fr := pc.fieldRefs[e.slot]
			if err := checkIdx(fr.classIndex, ClassRef, "FieldRef.class_index"); err != nil {
				return err
			}
			if err := checkIdx(fr.nameAndTypeIndex, NameAndType, "FieldRef.name_and_type_index"); err != nil {
				return err
			}
		case MethodRef:
			mr := pc.methodRefs[e.slot]
			if err := checkIdx(mr.classIndex, ClassRef, "MethodRef.class_index"); err != nil {
				return err
			}
			if err := checkIdx(mr.nameAndTypeIndex, NameAndType, "MethodRef.name_and_type_index"); err != nil {
				return err
			}
		case Interface:
			ir := pc.interfaceRefs[e.slot]
			if err := checkIdx(ir.classIndex, ClassRef, "InterfaceMethodRef.class_index"); err != nil {
				return err
			}
			if err := checkIdx(ir.nameAndTypeIndex, NameAndType, "InterfaceMethodRef.name_and_type_index"); err != nil {
				return err
			}
		case NameAndType:
			nt := pc.nameAndTypes[e.slot]
			if err := checkIdx(nt.nameIndex, UTF8, "NameAndType.name_index"); err != nil {
				return err
			}
			if err := checkIdx(nt.descriptorIndex, UTF8, "NameAndType.descriptor_index"); err != nil {
				return err
			}
		case MethodHandle:
			mh := pc.methodHandles[e.slot]
			if mh.referenceKind < 1 || mh.referenceKind > 9 {
				return cfe(fmt.Sprintf("formatCheckConstantPool: MethodHandle has invalid reference_kind %d", mh.referenceKind))
			}
		case MethodType:
			idx := pc.methodTypes[e.slot]
			if err := checkIdx(idx, UTF8, "MethodType.descriptor_index"); err != nil {
				return err
			}
		case Dynamic, InvokeDynamic:
			var nat int
			if e.entryType == Dynamic {
				nat = pc.dynamics[e.slot].nameAndType
			} else {
				nat = pc.invokeDynamics[e.slot].nameAndType
			}
			if err := checkIdx(nat, NameAndType, "Dynamic/InvokeDynamic.name_and_type_index"); err != nil {
				return err
			}
		case Module, Package:
			idx := int(pc.classRefs[e.slot])
			if err := checkIdx(idx, UTF8, "Module/Package name"); err != nil {
				return err
			}
		default:
			return cfe(fmt.Sprintf("formatCheckConstantPool: unrecognized constant pool entry type %d at index %d", e.entryType, i))
		}
	}
	return nil
}

func isValidFieldDescriptor(d string) bool {
	if d == "" {
		return false
	}
	switch d[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return len(d) == 1
	case 'L':
		return len(d) > 1 && d[len(d)-1] == ';'
	case '[':
		return isValidFieldDescriptor(d[1:])
	default:
		return false
	}
}

func isValidMethodDescriptor(d string) bool {
	if len(d) < 2 || d[0] != '(' {
		return false
	}
	i := 1
	for i < len(d) && d[i] != ')' {
		start := i
		for i < len(d) && d[i] == '[' {
			i++
		}
		if i >= len(d) {
			return false
		}
		switch d[i] {
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
			i++
		case 'L':
			semi := -1
			for j := i; j < len(d); j++ {
				if d[j] == ';' {
					semi = j
					break
				}
			}
			if semi < 0 {
				return false
			}
			i = semi + 1
		default:
			return false
		}
		if i == start {
			return false
		}
	}
	if i >= len(d) || d[i] != ')' {
		return false
	}
	ret := d[i+1:]
	if ret == "V" {
		return true
	}
	return isValidFieldDescriptor(ret)
}
