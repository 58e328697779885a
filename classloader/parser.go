/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"encoding/binary"
	"fmt"
)

// classFileMagic is the four-byte magic word every class file begins with
// (spec.md §6 "External Interfaces... Class-file format").
const classFileMagic = 0xCAFEBABE

// reader walks rawBytes, tracking position so every read can report
// "short read" precisely -- mirroring cafebabe's READ_U1/READ_U2/READ_U4
// macros (original_source/cafebabe), which is where jato's parser gets its
// bounds-checking discipline from.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) u1() (int, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("unexpected end of class file at offset %d", r.pos)
	}
	v := int(r.data[r.pos])
	r.pos++
	return v, nil
}

func (r *reader) u2() (int, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("unexpected end of class file at offset %d", r.pos)
	}
	v := int(binary.BigEndian.Uint16(r.data[r.pos:]))
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("unexpected end of class file at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("unexpected end of class file at offset %d", r.pos)
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// parse turns a class file's raw bytes into a ParsedClass. It implements
// spec.md §4.1's "Class-file parsing": magic check, constant pool
// (longs/doubles occupying two indices, the second marked invalid per
// JVMS §4.4.5), access flags, this/super, interfaces, fields, methods,
// and class attributes. Any structural problem returns a ClassFormatError
// (via cfe), never a panic.
func parse(raw []byte) (ParsedClass, error) {
	pc := ParsedClass{}
	r := &reader{data: raw}

	magic, err := r.u4()
	if err != nil {
		return pc, cfe("error reading magic number: " + err.Error())
	}
	if magic != classFileMagic {
		return pc, cfe(fmt.Sprintf("invalid magic number: 0x%08X", magic))
	}

	minor, err := r.u2()
	if err != nil {
		return pc, cfe("error reading minor version: " + err.Error())
	}
	major, err := r.u2()
	if err != nil {
		return pc, cfe("error reading major version: " + err.Error())
	}
	pc.javaVersion = major
	_ = minor

	if err := parseConstantPool(r, &pc); err != nil {
		return pc, err
	}

	accessFlags, err := r.u2()
	if err != nil {
		return pc, cfe("error reading access flags: " + err.Error())
	}
	pc.accessFlags = accessFlags
	decodeAccessFlags(&pc, accessFlags)

	thisClass, err := r.u2()
	if err != nil {
		return pc, cfe("error reading this_class: " + err.Error())
	}
	className, err := resolveParseTimeClassRef(&pc, thisClass)
	if err != nil {
		return pc, err
	}
	pc.className = className
	pc.classNameIndex = internClassName(className)

	superClass, err := r.u2()
	if err != nil {
		return pc, cfe("error reading super_class: " + err.Error())
	}
	if superClass == 0 {
		// only java/lang/Object has no superclass
		pc.superClassIndex = internClassName("java/lang/Object")
	} else {
		superName, err := resolveParseTimeClassRef(&pc, superClass)
		if err != nil {
			return pc, err
		}
		pc.superClassIndex = internClassName(superName)
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return pc, cfe("error reading interfaces_count: " + err.Error())
	}
	pc.interfaceCount = ifaceCount
	for i := 0; i < ifaceCount; i++ {
		ifaceIdx, err := r.u2()
		if err != nil {
			return pc, cfe("error reading interface index: " + err.Error())
		}
		ifaceName, err := resolveParseTimeClassRef(&pc, ifaceIdx)
		if err != nil {
			return pc, err
		}
		pc.interfaces = append(pc.interfaces, internClassName(ifaceName))
	}

	fieldCount, err := r.u2()
	if err != nil {
		return pc, cfe("error reading fields_count: " + err.Error())
	}
	pc.fieldCount = fieldCount
	for i := 0; i < fieldCount; i++ {
		f, err := parseField(r, &pc)
		if err != nil {
			return pc, err
		}
		pc.fields = append(pc.fields, f)
	}

	methodCount, err := r.u2()
	if err != nil {
		return pc, cfe("error reading methods_count: " + err.Error())
	}
	pc.methodCount = methodCount
	for i := 0; i < methodCount; i++ {
		m, err := parseMethod(r, &pc)
		if err != nil {
			return pc, err
		}
		pc.methods = append(pc.methods, m)
	}

	attrCount, err := r.u2()
	if err != nil {
		return pc, cfe("error reading attributes_count: " + err.Error())
	}
	pc.attribCount = attrCount
	for i := 0; i < attrCount; i++ {
		a, err := parseAttr(r, &pc)
		if err != nil {
			return pc, err
		}
		pc.attributes = append(pc.attributes, a)
		name := ""
		if a.attrName >= 0 && a.attrName < len(pc.utf8Refs) {
			name = pc.utf8Refs[a.attrName].content
		}
		switch name {
		case "SourceFile":
			if len(a.attrContent) >= 2 {
				idx := int(binary.BigEndian.Uint16(a.attrContent))
				if idx < len(pc.utf8Refs) {
					pc.sourceFile = pc.utf8Refs[idx].content
				}
			}
		case "Deprecated":
			pc.deprecated = true
		case "BootstrapMethods":
			br := &reader{data: a.attrContent}
			n, err := br.u2()
			if err != nil {
				return pc, cfe("error reading BootstrapMethods count: " + err.Error())
			}
			pc.bootstrapCount = n
			for j := 0; j < n; j++ {
				methodRef, err := br.u2()
				if err != nil {
					return pc, cfe("error reading bootstrap method ref: " + err.Error())
				}
				argCount, err := br.u2()
				if err != nil {
					return pc, cfe("error reading bootstrap argument count: " + err.Error())
				}
				bm := bootstrapMethod{methodRef: methodRef}
				for l := 0; l < argCount; l++ {
					argIdx, err := br.u2()
					if err != nil {
						return pc, cfe("error reading bootstrap argument: " + err.Error())
					}
					bm.args = append(bm.args, argIdx)
				}
				pc.bootstraps = append(pc.bootstraps, bm)
			}
		}
	}

	if r.pos != len(raw) {
		return pc, cfe(fmt.Sprintf("%d trailing bytes after class attributes", len(raw)-r.pos))
	}

	return pc, nil
}

func decodeAccessFlags(pc *ParsedClass, flags int) {
	const (
		accPublic     = 0x0001
		accFinal      = 0x0010
		accSuper      = 0x0020
		accInterface  = 0x0200
		accAbstract   = 0x0400
		accSynthetic  = 0x1000
		accAnnotation = 0x2000
		accEnum       = 0x4000
		accModule     = 0x8000
	)
	pc.classIsPublic = flags&accPublic != 0
	pc.classIsFinal = flags&accFinal != 0
	pc.classIsSuper = flags&accSuper != 0
	pc.classIsInterface = flags&accInterface != 0
	pc.classIsAbstract = flags&accAbstract != 0
	pc.classIsSynthetic = flags&accSynthetic != 0
	pc.classIsAnnotation = flags&accAnnotation != 0
	pc.classIsEnum = flags&accEnum != 0
	pc.classIsModule = flags&accModule != 0
}

// resolveParseTimeClassRef follows a this/super/interface u2 index (a
// ClassRef CP entry) down to the UTF-8 class name it ultimately names.
func resolveParseTimeClassRef(pc *ParsedClass, cpIdx int) (string, error) {
	if cpIdx < 1 || cpIdx >= len(pc.cpIndex) {
		return "", cfe(fmt.Sprintf("invalid constant pool index %d for class reference", cpIdx))
	}
	entry := pc.cpIndex[cpIdx]
	if entry.entryType != ClassRef {
		return "", cfe(fmt.Sprintf("constant pool entry %d is not a ClassRef", cpIdx))
	}
	utf8Idx := pc.classRefs[entry.slot]
	if int(utf8Idx) >= len(pc.cpIndex) {
		return "", cfe("class reference points outside the constant pool")
	}
	utf8EntryCp := pc.cpIndex[utf8Idx]
	if utf8EntryCp.entryType != UTF8 {
		return "", cfe("class reference does not point to a UTF8 entry")
	}
	return pc.utf8Refs[utf8EntryCp.slot].content, nil
}

func internClassName(name string) uint32 {
	return stringPoolIntern(name)
}

func parseConstantPool(r *reader, pc *ParsedClass) error {
	count, err := r.u2()
	if err != nil {
		return cfe("error reading constant_pool_count: " + err.Error())
	}
	pc.cpCount = count

	// slot 0 is always the unused dummy entry (JVMS §4.1: "constant_pool
	// table is indexed from 1 to constant_pool_count-1")
	pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: Dummy, slot: 0})

	for i := 1; i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return cfe("error reading constant pool tag: " + err.Error())
		}
		switch tag {
		case UTF8:
			length, err := r.u2()
			if err != nil {
				return cfe("error reading UTF8 length: " + err.Error())
			}
			raw, err := r.bytes(length)
			if err != nil {
				return cfe("error reading UTF8 bytes: " + err.Error())
			}
			slot := len(pc.utf8Refs)
			pc.utf8Refs = append(pc.utf8Refs, utf8Entry{content: string(raw)})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: UTF8, slot: slot})

		case IntConst:
			v, err := r.u4()
			if err != nil {
				return cfe("error reading int constant: " + err.Error())
			}
			slot := len(pc.intConsts)
			pc.intConsts = append(pc.intConsts, int(int32(v)))
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: IntConst, slot: slot})

		case FloatConst:
			v, err := r.u4()
			if err != nil {
				return cfe("error reading float constant: " + err.Error())
			}
			slot := len(pc.floats)
			pc.floats = append(pc.floats, float32FromBits(v))
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: FloatConst, slot: slot})

		case LongConst:
			hi, err := r.u4()
			if err != nil {
				return cfe("error reading long constant (high): " + err.Error())
			}
			lo, err := r.u4()
			if err != nil {
				return cfe("error reading long constant (low): " + err.Error())
			}
			slot := len(pc.longConsts)
			pc.longConsts = append(pc.longConsts, int64(uint64(hi)<<32|uint64(lo)))
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: LongConst, slot: slot})
			// longs/doubles occupy two CP indices; the second is invalid (JVMS §4.4.5)
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: Dummy, slot: 0})
			i++

		case DoubleConst:
			hi, err := r.u4()
			if err != nil {
				return cfe("error reading double constant (high): " + err.Error())
			}
			lo, err := r.u4()
			if err != nil {
				return cfe("error reading double constant (low): " + err.Error())
			}
			slot := len(pc.doubles)
			pc.doubles = append(pc.doubles, float64FromBits(uint64(hi)<<32|uint64(lo)))
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: DoubleConst, slot: slot})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: Dummy, slot: 0})
			i++

		case ClassRef:
			nameIdx, err := r.u2()
			if err != nil {
				return cfe("error reading class reference: " + err.Error())
			}
			slot := len(pc.classRefs)
			pc.classRefs = append(pc.classRefs, uint32(nameIdx))
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: ClassRef, slot: slot})

		case StringConst:
			utfIdx, err := r.u2()
			if err != nil {
				return cfe("error reading string constant: " + err.Error())
			}
			slot := len(pc.stringRefs)
			pc.stringRefs = append(pc.stringRefs, stringConstantEntry{index: utfIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: StringConst, slot: slot})

		case FieldRef:
			classIdx, err := r.u2()
			if err != nil {
				return cfe("error reading field ref: " + err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return cfe("error reading field ref name-and-type: " + err.Error())
			}
			slot := len(pc.fieldRefs)
			pc.fieldRefs = append(pc.fieldRefs, fieldRefEntry{classIndex: classIdx, nameAndTypeIndex: natIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: FieldRef, slot: slot})

		case MethodRef:
			classIdx, err := r.u2()
			if err != nil {
				return cfe("error reading method ref: " + err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return cfe("error reading method ref name-and-type: " + err.Error())
			}
			slot := len(pc.methodRefs)
			pc.methodRefs = append(pc.methodRefs, methodRefEntry{classIndex: classIdx, nameAndTypeIndex: natIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: MethodRef, slot: slot})

		case Interface:
			classIdx, err := r.u2()
			if err != nil {
				return cfe("error reading interface method ref: " + err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return cfe("error reading interface method ref name-and-type: " + err.Error())
			}
			slot := len(pc.interfaceRefs)
			pc.interfaceRefs = append(pc.interfaceRefs, interfaceRefEntry{classIndex: classIdx, nameAndTypeIndex: natIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: Interface, slot: slot})

		case NameAndType:
			nameIdx, err := r.u2()
			if err != nil {
				return cfe("error reading name-and-type: " + err.Error())
			}
			descIdx, err := r.u2()
			if err != nil {
				return cfe("error reading name-and-type descriptor: " + err.Error())
			}
			slot := len(pc.nameAndTypes)
			pc.nameAndTypes = append(pc.nameAndTypes, nameAndTypeEntry{nameIndex: nameIdx, descriptorIndex: descIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: NameAndType, slot: slot})

		case MethodHandle:
			refKind, err := r.u1()
			if err != nil {
				return cfe("error reading method handle kind: " + err.Error())
			}
			refIdx, err := r.u2()
			if err != nil {
				return cfe("error reading method handle reference: " + err.Error())
			}
			slot := len(pc.methodHandles)
			pc.methodHandles = append(pc.methodHandles, methodHandleEntry{referenceKind: refKind, referenceIndex: refIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: MethodHandle, slot: slot})

		case MethodType:
			descIdx, err := r.u2()
			if err != nil {
				return cfe("error reading method type: " + err.Error())
			}
			slot := len(pc.methodTypes)
			pc.methodTypes = append(pc.methodTypes, descIdx)
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: MethodType, slot: slot})

		case Dynamic:
			bsIdx, err := r.u2()
			if err != nil {
				return cfe("error reading dynamic constant: " + err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return cfe("error reading dynamic constant name-and-type: " + err.Error())
			}
			slot := len(pc.dynamics)
			pc.dynamics = append(pc.dynamics, dynamic{bootstrapIndex: bsIdx, nameAndType: natIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: Dynamic, slot: slot})

		case InvokeDynamic:
			bsIdx, err := r.u2()
			if err != nil {
				return cfe("error reading invokedynamic: " + err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return cfe("error reading invokedynamic name-and-type: " + err.Error())
			}
			slot := len(pc.invokeDynamics)
			pc.invokeDynamics = append(pc.invokeDynamics, invokeDynamic{bootstrapIndex: bsIdx, nameAndType: natIdx})
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: InvokeDynamic, slot: slot})

		case Module, Package:
			// name index only; stored as a classRef-like UTF8 pointer for
			// completeness, though §1 scopes invokedynamic/module-graph
			// semantics out -- only the raw name is retained.
			nameIdx, err := r.u2()
			if err != nil {
				return cfe("error reading module/package name: " + err.Error())
			}
			slot := len(pc.classRefs)
			pc.classRefs = append(pc.classRefs, uint32(nameIdx))
			pc.cpIndex = append(pc.cpIndex, cpEntry{entryType: tag, slot: slot})

		default:
			return cfe(fmt.Sprintf("invalid constant pool tag %d at entry %d", tag, i))
		}
	}
	return nil
}

func parseField(r *reader, pc *ParsedClass) (field, error) {
	accessFlags, err := r.u2()
	if err != nil {
		return field{}, cfe("error reading field access flags: " + err.Error())
	}
	nameIdx, err := r.u2()
	if err != nil {
		return field{}, cfe("error reading field name index: " + err.Error())
	}
	descIdx, err := r.u2()
	if err != nil {
		return field{}, cfe("error reading field descriptor index: " + err.Error())
	}
	f := field{
		accessFlags: accessFlags,
		isStatic:    accessFlags&0x0008 != 0,
		name:        resolveUTF8Index(pc, nameIdx),
		description: resolveUTF8Index(pc, descIdx),
	}
	attrCount, err := r.u2()
	if err != nil {
		return field{}, cfe("error reading field attribute count: " + err.Error())
	}
	for i := 0; i < attrCount; i++ {
		a, err := parseAttr(r, pc)
		if err != nil {
			return field{}, err
		}
		f.attributes = append(f.attributes, a)
	}
	return f, nil
}

func parseMethod(r *reader, pc *ParsedClass) (method, error) {
	accessFlags, err := r.u2()
	if err != nil {
		return method{}, cfe("error reading method access flags: " + err.Error())
	}
	nameIdx, err := r.u2()
	if err != nil {
		return method{}, cfe("error reading method name index: " + err.Error())
	}
	descIdx, err := r.u2()
	if err != nil {
		return method{}, cfe("error reading method descriptor index: " + err.Error())
	}
	m := method{
		accessFlags: accessFlags,
		name:        resolveUTF8Index(pc, nameIdx),
		description: resolveUTF8Index(pc, descIdx),
	}
	attrCount, err := r.u2()
	if err != nil {
		return method{}, cfe("error reading method attribute count: " + err.Error())
	}
	for i := 0; i < attrCount; i++ {
		a, err := parseAttr(r, pc)
		if err != nil {
			return method{}, err
		}
		attrName := ""
		if a.attrName >= 0 && a.attrName < len(pc.utf8Refs) {
			attrName = pc.utf8Refs[a.attrName].content
		}
		switch attrName {
		case "Code":
			code, err := parseCodeAttribute(a.attrContent, pc)
			if err != nil {
				return method{}, err
			}
			m.codeAttr = code
		case "Exceptions":
			ar := &reader{data: a.attrContent}
			n, _ := ar.u2()
			for j := 0; j < n; j++ {
				idx, _ := ar.u2()
				m.exceptions = append(m.exceptions, uint32(idx))
			}
		case "Deprecated":
			m.deprecated = true
		case "MethodParameters":
			ar := &reader{data: a.attrContent}
			n, _ := ar.u1()
			for j := 0; j < n; j++ {
				nameIdx, _ := ar.u2()
				flags, _ := ar.u2()
				name := ""
				if nameIdx != 0 && nameIdx < len(pc.utf8Refs) {
					name = pc.utf8Refs[nameIdx].content
				}
				m.parameters = append(m.parameters, paramAttrib{name: name, accessFlags: flags})
			}
		}
		m.attributes = append(m.attributes, a)
	}
	return m, nil
}

// parseCodeAttribute interprets the Code attribute's raw bytes per JVMS
// §4.7.3: max_stack, max_locals, code, exception_table, then the code
// attribute's own sub-attributes (chiefly LineNumberTable).
func parseCodeAttribute(content []byte, pc *ParsedClass) (codeAttrib, error) {
	ca := codeAttrib{}
	cr := &reader{data: content}

	maxStack, err := cr.u2()
	if err != nil {
		return ca, cfe("error reading Code max_stack: " + err.Error())
	}
	maxLocals, err := cr.u2()
	if err != nil {
		return ca, cfe("error reading Code max_locals: " + err.Error())
	}
	codeLen, err := cr.u4()
	if err != nil {
		return ca, cfe("error reading Code code_length: " + err.Error())
	}
	code, err := cr.bytes(int(codeLen))
	if err != nil {
		return ca, cfe("error reading Code bytes: " + err.Error())
	}
	ca.maxStack = maxStack
	ca.maxLocals = maxLocals
	ca.code = append([]byte(nil), code...)

	excTableLen, err := cr.u2()
	if err != nil {
		return ca, cfe("error reading Code exception_table_length: " + err.Error())
	}
	for i := 0; i < excTableLen; i++ {
		startPc, _ := cr.u2()
		endPc, _ := cr.u2()
		handlerPc, _ := cr.u2()
		catchType, _ := cr.u2()
		ca.exceptions = append(ca.exceptions, exception{
			startPc: startPc, endPc: endPc, handlerPc: handlerPc, catchType: catchType,
		})
	}

	attrCount, err := cr.u2()
	if err != nil {
		return ca, cfe("error reading Code attribute count: " + err.Error())
	}
	var lines []BytecodeToSourceLine
	for i := 0; i < attrCount; i++ {
		a, err := parseAttr(cr, pc)
		if err != nil {
			return ca, err
		}
		name := ""
		if a.attrName >= 0 && a.attrName < len(pc.utf8Refs) {
			name = pc.utf8Refs[a.attrName].content
		}
		if name == "LineNumberTable" {
			lr := &reader{data: a.attrContent}
			n, _ := lr.u2()
			for j := 0; j < n; j++ {
				bc, _ := lr.u2()
				ln, _ := lr.u2()
				lines = append(lines, BytecodeToSourceLine{Bytecode: bc, SourceLine: ln})
			}
		}
		ca.attributes = append(ca.attributes, a)
	}
	if lines != nil {
		ca.sourceLineTable = &lines
	}
	return ca, nil
}

// recognizedAttributes is the allow-list spec.md §6 names; anything else
// is skipped by length, per the Java class-file format's forward-
// compatibility rule (JVMS §4.7.1).
var recognizedAttributes = map[string]bool{
	"Code": true, "Exceptions": true, "LineNumberTable": true,
	"SourceFile": true, "InnerClasses": true, "EnclosingMethod": true,
	"Signature": true, "Synthetic": true, "ConstantValue": true,
	"RuntimeVisibleAnnotations": true, "RuntimeVisibleParameterAnnotations": true,
	"AnnotationDefault": true, "Deprecated": true, "MethodParameters": true,
	"StackMapTable": true, "BootstrapMethods": true, "NestHost": true,
	"NestMembers": true,
}

func parseAttr(r *reader, pc *ParsedClass) (attr, error) {
	nameIdx, err := r.u2()
	if err != nil {
		return attr{}, cfe("error reading attribute name index: " + err.Error())
	}
	length, err := r.u4()
	if err != nil {
		return attr{}, cfe("error reading attribute length: " + err.Error())
	}
	content, err := r.bytes(int(length))
	if err != nil {
		return attr{}, cfe("error reading attribute content: " + err.Error())
	}
	return attr{
		attrName:    resolveUTF8Index(pc, nameIdx),
		attrSize:    int(length),
		attrContent: append([]byte(nil), content...),
	}, nil
}

// resolveUTF8Index returns the utf8Refs slot a CP index (which must name a
// UTF8 entry) points to, or -1 if the index is out of range -- callers
// treat -1 as "format error" during the later formatCheckClass pass rather
// than failing mid-parse, matching the teacher's two-phase
// parse-then-format-check pipeline (classloader.go's ParseAndPostClass).
func resolveUTF8Index(pc *ParsedClass, cpIdx int) int {
	if cpIdx < 1 || cpIdx >= len(pc.cpIndex) {
		return -1
	}
	e := pc.cpIndex[cpIdx]
	if e.entryType != UTF8 {
		return -1
	}
	return e.slot
}
