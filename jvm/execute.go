/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"
	"math"
	"unsafe"

	"jacobin/classloader"
	"jacobin/excNames"
	"jacobin/frames"
	"jacobin/monitor"
	"jacobin/object"
	"jacobin/stringPool"
	"jacobin/types"
	"jacobin/util"
)

// execOne decodes and runs the single instruction at pc in f, returning
// the PC of the next instruction (meaningless when done is true), the
// method's return value (only meaningful when done is true), whether the
// frame has completed (a return* opcode ran), and an error -- either a
// *javaThrow the caller should try to hand to an exception-table handler,
// or a plain Go error for an interpreter-level fault (malformed bytecode,
// missing class).
//
// Opcodes outside the subset named in bytecodes.go fall through to
// unimplementedOpcode rather than being silently skipped.
func execOne(fs *list.List, f *frames.Frame, op byte, pc int) (nextPC int, retVal interface{}, done bool, err error) {
	switch op {
	case NOP:
		return pc + 1, nil, false, nil

	case ACONST_NULL:
		f.PushOperand(object.Null)
		return pc + 1, nil, false, nil

	case ICONST_M1, ICONST_0, ICONST_1, ICONST_2, ICONST_3, ICONST_4, ICONST_5:
		f.PushOperand(int64(int(op) - ICONST_0))
		return pc + 1, nil, false, nil

	case LCONST_0:
		f.PushOperand(int64(0))
		return pc + 1, nil, false, nil
	case LCONST_1:
		f.PushOperand(int64(1))
		return pc + 1, nil, false, nil

	case FCONST_0:
		f.PushOperand(float32(0))
		return pc + 1, nil, false, nil
	case FCONST_1:
		f.PushOperand(float32(1))
		return pc + 1, nil, false, nil
	case FCONST_2:
		f.PushOperand(float32(2))
		return pc + 1, nil, false, nil

	case DCONST_0:
		f.PushOperand(float64(0))
		return pc + 1, nil, false, nil
	case DCONST_1:
		f.PushOperand(float64(1))
		return pc + 1, nil, false, nil

	case BIPUSH:
		f.PushOperand(int64(int8(f.Meth[pc+1])))
		return pc + 2, nil, false, nil
	case SIPUSH:
		f.PushOperand(int64(int16(u16(f, pc))))
		return pc + 3, nil, false, nil

	case LDC:
		f.PushOperand(resolveLdc(f.CP, int(f.Meth[pc+1])))
		return pc + 2, nil, false, nil
	case LDC_W, LDC2_W:
		f.PushOperand(resolveLdc(f.CP, u16(f, pc)))
		return pc + 3, nil, false, nil

	case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD:
		f.PushOperand(f.Locals[int(f.Meth[pc+1])])
		return pc + 2, nil, false, nil

	case ILOAD_0, LLOAD_0, FLOAD_0, DLOAD_0, ALOAD_0:
		f.PushOperand(f.Locals[0])
		return pc + 1, nil, false, nil
	case ILOAD_1, LLOAD_1, FLOAD_1, DLOAD_1, ALOAD_1:
		f.PushOperand(f.Locals[1])
		return pc + 1, nil, false, nil
	case ILOAD_2, LLOAD_2, FLOAD_2, DLOAD_2, ALOAD_2:
		f.PushOperand(f.Locals[2])
		return pc + 1, nil, false, nil
	case ILOAD_3, LLOAD_3, FLOAD_3, DLOAD_3, ALOAD_3:
		f.PushOperand(f.Locals[3])
		return pc + 1, nil, false, nil

	case ISTORE, LSTORE, FSTORE, DSTORE, ASTORE:
		f.Locals[int(f.Meth[pc+1])] = f.PopOperand()
		return pc + 2, nil, false, nil

	case ISTORE_0, LSTORE_0, FSTORE_0, DSTORE_0, ASTORE_0:
		f.Locals[0] = f.PopOperand()
		return pc + 1, nil, false, nil
	case ISTORE_1, LSTORE_1, FSTORE_1, DSTORE_1, ASTORE_1:
		f.Locals[1] = f.PopOperand()
		return pc + 1, nil, false, nil
	case ISTORE_2, LSTORE_2, FSTORE_2, DSTORE_2, ASTORE_2:
		f.Locals[2] = f.PopOperand()
		return pc + 1, nil, false, nil
	case ISTORE_3, LSTORE_3, FSTORE_3, DSTORE_3, ASTORE_3:
		f.Locals[3] = f.PopOperand()
		return pc + 1, nil, false, nil

	case POP:
		f.PopOperand()
		return pc + 1, nil, false, nil
	case POP2:
		f.PopOperand()
		f.PopOperand()
		return pc + 1, nil, false, nil
	case DUP:
		f.PushOperand(f.PeekOperand())
		return pc + 1, nil, false, nil
	case DUP_X1:
		v1, v2 := f.PopOperand(), f.PopOperand()
		f.PushOperand(v1)
		f.PushOperand(v2)
		f.PushOperand(v1)
		return pc + 1, nil, false, nil
	case DUP_X2:
		v1, v2, v3 := f.PopOperand(), f.PopOperand(), f.PopOperand()
		f.PushOperand(v1)
		f.PushOperand(v3)
		f.PushOperand(v2)
		f.PushOperand(v1)
		return pc + 1, nil, false, nil
	case DUP2:
		v1, v2 := f.PopOperand(), f.PopOperand()
		f.PushOperand(v2)
		f.PushOperand(v1)
		f.PushOperand(v2)
		f.PushOperand(v1)
		return pc + 1, nil, false, nil
	case SWAP:
		v1, v2 := f.PopOperand(), f.PopOperand()
		f.PushOperand(v1)
		f.PushOperand(v2)
		return pc + 1, nil, false, nil

	case IADD, LADD:
		b, a := toInt64(f.PopOperand()), toInt64(f.PopOperand())
		f.PushOperand(a + b)
		return pc + 1, nil, false, nil
	case ISUB, LSUB:
		b, a := toInt64(f.PopOperand()), toInt64(f.PopOperand())
		f.PushOperand(a - b)
		return pc + 1, nil, false, nil
	case IMUL, LMUL:
		b, a := toInt64(f.PopOperand()), toInt64(f.PopOperand())
		f.PushOperand(a * b)
		return pc + 1, nil, false, nil
	case IDIV, LDIV:
		b, a := toInt64(f.PopOperand()), toInt64(f.PopOperand())
		if b == 0 {
			return 0, nil, false, throwException(excNames.ArithmeticException, "/ by zero")
		}
		f.PushOperand(a / b)
		return pc + 1, nil, false, nil
	case IREM, LREM:
		b, a := toInt64(f.PopOperand()), toInt64(f.PopOperand())
		if b == 0 {
			return 0, nil, false, throwException(excNames.ArithmeticException, "/ by zero")
		}
		f.PushOperand(a % b)
		return pc + 1, nil, false, nil
	case INEG, LNEG:
		f.PushOperand(-toInt64(f.PopOperand()))
		return pc + 1, nil, false, nil

	case FADD:
		b, a := toFloat32(f.PopOperand()), toFloat32(f.PopOperand())
		f.PushOperand(a + b)
		return pc + 1, nil, false, nil
	case FSUB:
		b, a := toFloat32(f.PopOperand()), toFloat32(f.PopOperand())
		f.PushOperand(a - b)
		return pc + 1, nil, false, nil
	case FMUL:
		b, a := toFloat32(f.PopOperand()), toFloat32(f.PopOperand())
		f.PushOperand(a * b)
		return pc + 1, nil, false, nil
	case FDIV:
		b, a := toFloat32(f.PopOperand()), toFloat32(f.PopOperand())
		f.PushOperand(a / b)
		return pc + 1, nil, false, nil
	case FREM:
		b, a := toFloat32(f.PopOperand()), toFloat32(f.PopOperand())
		f.PushOperand(float32(math.Mod(float64(a), float64(b))))
		return pc + 1, nil, false, nil
	case FNEG:
		f.PushOperand(-toFloat32(f.PopOperand()))
		return pc + 1, nil, false, nil

	case DADD:
		b, a := toFloat64(f.PopOperand()), toFloat64(f.PopOperand())
		f.PushOperand(a + b)
		return pc + 1, nil, false, nil
	case DSUB:
		b, a := toFloat64(f.PopOperand()), toFloat64(f.PopOperand())
		f.PushOperand(a - b)
		return pc + 1, nil, false, nil
	case DMUL:
		b, a := toFloat64(f.PopOperand()), toFloat64(f.PopOperand())
		f.PushOperand(a * b)
		return pc + 1, nil, false, nil
	case DDIV:
		b, a := toFloat64(f.PopOperand()), toFloat64(f.PopOperand())
		f.PushOperand(a / b)
		return pc + 1, nil, false, nil
	case DREM:
		b, a := toFloat64(f.PopOperand()), toFloat64(f.PopOperand())
		f.PushOperand(math.Mod(a, b))
		return pc + 1, nil, false, nil
	case DNEG:
		f.PushOperand(-toFloat64(f.PopOperand()))
		return pc + 1, nil, false, nil

	case IINC:
		idx := int(f.Meth[pc+1])
		delta := int64(int8(f.Meth[pc+2]))
		f.Locals[idx] = toInt64(f.Locals[idx]) + delta
		return pc + 3, nil, false, nil

	case I2L:
		return pc + 1, nil, false, nil // already int64
	case I2F:
		f.PushOperand(float32(toInt64(f.PopOperand())))
		return pc + 1, nil, false, nil
	case I2D:
		f.PushOperand(float64(toInt64(f.PopOperand())))
		return pc + 1, nil, false, nil
	case L2I:
		f.PushOperand(int64(int32(toInt64(f.PopOperand()))))
		return pc + 1, nil, false, nil
	case F2I:
		f.PushOperand(int64(toFloat32(f.PopOperand())))
		return pc + 1, nil, false, nil
	case D2I:
		f.PushOperand(int64(toFloat64(f.PopOperand())))
		return pc + 1, nil, false, nil

	case LCMP:
		b, a := toInt64(f.PopOperand()), toInt64(f.PopOperand())
		f.PushOperand(int64(cmp(a, b)))
		return pc + 1, nil, false, nil
	case FCMPL, FCMPG:
		bf, af := toFloat32(f.PopOperand()), toFloat32(f.PopOperand())
		f.PushOperand(int64(fcmp(float64(af), float64(bf), op == FCMPG)))
		return pc + 1, nil, false, nil
	case DCMPL, DCMPG:
		bd, ad := toFloat64(f.PopOperand()), toFloat64(f.PopOperand())
		f.PushOperand(int64(fcmp(ad, bd, op == DCMPG)))
		return pc + 1, nil, false, nil

	case IFEQ, IFNE, IFLT, IFGE, IFGT, IFLE:
		v := toInt64(f.PopOperand())
		if branchTaken1(op, v) {
			return pc + int(int16(u16(f, pc))), nil, false, nil
		}
		return pc + 3, nil, false, nil

	case IF_ICMPEQ, IF_ICMPNE, IF_ICMPLT, IF_ICMPGE, IF_ICMPGT, IF_ICMPLE:
		b, a := toInt64(f.PopOperand()), toInt64(f.PopOperand())
		if branchTaken2(op, a, b) {
			return pc + int(int16(u16(f, pc))), nil, false, nil
		}
		return pc + 3, nil, false, nil

	case IF_ACMPEQ, IF_ACMPNE:
		b, a := f.PopOperand(), f.PopOperand()
		eq := a == b
		if (op == IF_ACMPEQ) == eq {
			return pc + int(int16(u16(f, pc))), nil, false, nil
		}
		return pc + 3, nil, false, nil

	case IFNULL, IFNONNULL:
		v := f.PopOperand()
		isNull := v == nil || v == object.Null
		if (op == IFNULL) == isNull {
			return pc + int(int16(u16(f, pc))), nil, false, nil
		}
		return pc + 3, nil, false, nil

	case GOTO:
		return pc + int(int16(u16(f, pc))), nil, false, nil

	case IRETURN, LRETURN, FRETURN, DRETURN, ARETURN:
		return 0, f.PopOperand(), true, nil
	case RETURN:
		return 0, nil, true, nil

	case GETSTATIC:
		ref, e := resolveQuickField(f, pc)
		if e != nil {
			return 0, nil, false, e
		}
		v, e := getStaticField(ref.ClassName, ref.Name)
		if e != nil {
			return 0, nil, false, e
		}
		f.PushOperand(v)
		return pc + 3, nil, false, nil
	case PUTSTATIC:
		ref, e := resolveQuickField(f, pc)
		if e != nil {
			return 0, nil, false, e
		}
		if e := putStaticField(ref.ClassName, ref.Name, f.PopOperand()); e != nil {
			return 0, nil, false, e
		}
		return pc + 3, nil, false, nil

	case GETFIELD:
		ref, e := resolveQuickField(f, pc)
		if e != nil {
			return 0, nil, false, e
		}
		obj, _ := f.PopOperand().(*object.Object)
		v, e := getInstanceField(obj, ref.Name)
		if e != nil {
			return 0, nil, false, e
		}
		f.PushOperand(v)
		return pc + 3, nil, false, nil
	case PUTFIELD:
		ref, e := resolveQuickField(f, pc)
		if e != nil {
			return 0, nil, false, e
		}
		value := f.PopOperand()
		obj, _ := f.PopOperand().(*object.Object)
		if e := putInstanceField(obj, ref.Name, value); e != nil {
			return 0, nil, false, e
		}
		return pc + 3, nil, false, nil

	case INVOKESTATIC:
		return invokeAt(fs, f, pc, invokeKindStatic)
	case INVOKESPECIAL:
		return invokeAt(fs, f, pc, invokeKindSpecial)
	case INVOKEVIRTUAL:
		return invokeAt(fs, f, pc, invokeKindVirtual)
	case INVOKEINTERFACE:
		return invokeAt(fs, f, pc, invokeKindInterface)

	case NEW:
		className := classloader.GetClassNameFromCPclassref(f.CP, uint16(u16(f, pc)))
		obj, e := instantiateClass(fs, className)
		if e != nil {
			return 0, nil, false, e
		}
		f.PushOperand(obj)
		return pc + 3, nil, false, nil

	case NEWARRAY:
		count := toInt64(f.PopOperand())
		if count < 0 {
			return 0, nil, false, throwException(excNames.NegativeArraySizeException, "")
		}
		arr := newPrimitiveArray(int(f.Meth[pc+1]), int(count))
		if e := allocate(fs, arr, int64(objectBaseSize)+count*arraySlotSize); e != nil {
			return 0, nil, false, e
		}
		f.PushOperand(arr)
		return pc + 2, nil, false, nil

	case ANEWARRAY:
		count := toInt64(f.PopOperand())
		if count < 0 {
			return 0, nil, false, throwException(excNames.NegativeArraySizeException, "")
		}
		className := classloader.GetClassNameFromCPclassref(f.CP, uint16(u16(f, pc)))
		backing := make([]*object.Object, count)
		arr := object.MakeEmptyObject()
		arr.KlassName = stringPool.GetStringIndex("[L" + className + ";")
		arr.SetField("value", "[L"+className+";", backing)
		if e := allocate(fs, arr, int64(objectBaseSize)+count*arraySlotSize); e != nil {
			return 0, nil, false, e
		}
		f.PushOperand(arr)
		return pc + 3, nil, false, nil

	case ARRAYLENGTH:
		obj, _ := f.PopOperand().(*object.Object)
		n, e := arrayLength(obj)
		if e != nil {
			return 0, nil, false, e
		}
		f.PushOperand(int64(n))
		return pc + 1, nil, false, nil

	case ATHROW:
		obj, _ := f.PopOperand().(*object.Object)
		return 0, nil, false, athrowFromObject(obj)

	case CHECKCAST:
		className := classloader.GetClassNameFromCPclassref(f.CP, uint16(u16(f, pc)))
		obj, _ := f.PeekOperand().(*object.Object)
		if obj != nil && obj.ClassName() != className {
			return 0, nil, false, throwException(excNames.ClassCastException,
				obj.ClassName()+" cannot be cast to "+className)
		}
		return pc + 3, nil, false, nil

	case INSTANCEOF:
		className := classloader.GetClassNameFromCPclassref(f.CP, uint16(u16(f, pc)))
		obj, _ := f.PopOperand().(*object.Object)
		if obj != nil && obj.ClassName() == className {
			f.PushOperand(types.JavaBoolTrue)
		} else {
			f.PushOperand(types.JavaBoolFalse)
		}
		return pc + 3, nil, false, nil

	case MONITORENTER:
		obj, _ := f.PopOperand().(*object.Object)
		if obj == nil {
			return 0, nil, false, throwException(excNames.NullPointerException, "monitorenter on null reference")
		}
		monitor.Lock(obj.Mark.Hash, int32(MainThread.ID))
		return pc + 1, nil, false, nil

	case MONITOREXIT:
		obj, _ := f.PopOperand().(*object.Object)
		if obj == nil {
			return 0, nil, false, throwException(excNames.NullPointerException, "monitorexit on null reference")
		}
		if unlockErr := monitor.Unlock(obj.Mark.Hash, int32(MainThread.ID)); unlockErr != nil {
			return 0, nil, false, throwException(excNames.IllegalMonitorStateException, unlockErr.Error())
		}
		return pc + 1, nil, false, nil

	case MULTIANEWARRAY:
		className := classloader.GetClassNameFromCPclassref(f.CP, uint16(u16(f, pc)))
		dimensions := int(f.Meth[pc+3])
		counts := make([]int64, dimensions)
		for i := dimensions - 1; i >= 0; i-- {
			counts[i] = toInt64(f.PopOperand())
			if counts[i] < 0 {
				return 0, nil, false, throwException(excNames.NegativeArraySizeException, "")
			}
		}
		arr, e := newMultiArray(fs, className, counts)
		if e != nil {
			return 0, nil, false, e
		}
		f.PushOperand(arr)
		return pc + 4, nil, false, nil

	case WIDE:
		return execWide(f, pc)

	default:
		return 0, nil, false, unimplementedOpcode(op, pc, f.ClName, f.MethName)
	}
}

func u16(f *frames.Frame, pc int) int {
	return int(f.Meth[pc+1])<<8 | int(f.Meth[pc+2])
}

// newMultiArray builds a MULTIANEWARRAY result one dimension at a time:
// the outermost level holds a []*object.Object of sub-arrays, and only
// the innermost dimension's desc maps to a primitive/reference backing
// slice -- mirroring newPrimitiveArray/ANEWARRAY's single-dimension case
// for each level of the descent. Every dimension built is itself reserved
// out of VMHeap via allocate, the same as a single-dimension array, so a
// multianewarray whose total size would exceed -Xmx raises
// OutOfMemoryError at whichever dimension first fails to fit instead of
// silently succeeding on the Go heap.
func newMultiArray(fs *list.List, desc string, counts []int64) (*object.Object, error) {
	n := int(counts[0])
	arr := object.MakeEmptyObject()
	arr.KlassName = stringPool.GetStringIndex(desc)

	if len(counts) == 1 {
		elemDesc := desc[1:]
		var value interface{}
		switch elemDesc {
		case "I", "S", "C", "Z":
			value = make([]int64, n)
		case "J":
			value = make([]int64, n)
		case "F":
			value = make([]float32, n)
		case "D":
			value = make([]float64, n)
		case "B":
			value = make([]byte, n)
		default:
			value = make([]*object.Object, n)
		}
		arr.SetField("value", desc, value)
		if e := allocate(fs, arr, int64(objectBaseSize)+counts[0]*arraySlotSize); e != nil {
			return nil, e
		}
		return arr, nil
	}

	subDesc := desc[1:]
	backing := make([]*object.Object, n)
	for i := range backing {
		elem, e := newMultiArray(fs, subDesc, counts[1:])
		if e != nil {
			return nil, e
		}
		backing[i] = elem
		// elem is reachable only through this Go-local slice until arr
		// itself is registered below -- invisible to gatherRoots, which
		// only walks frame operand stacks/locals and MainThread's
		// conservative roots. A sibling dimension's own allocate() call
		// could still trigger a collection before arr is tracked, so
		// register elem as a conservative root for that window.
		MainThread.AddConservativeRoot(uintptr(unsafe.Pointer(elem)), elem)
	}
	arr.SetField("value", desc, backing)
	defer func() {
		for _, elem := range backing {
			MainThread.RemoveConservativeRoot(uintptr(unsafe.Pointer(elem)))
		}
	}()
	if e := allocate(fs, arr, int64(objectBaseSize)+counts[0]*arraySlotSize); e != nil {
		return nil, e
	}
	return arr, nil
}

// execWide implements the wide prefix (JVMS §6.5.wide): the next byte
// names the instruction actually being widened, and its local-variable
// index (and, for iinc, its constant) occupy two bytes instead of one --
// the same u16 helper every other two-byte operand in this file uses,
// just offset by one extra byte for the modified opcode.
func execWide(f *frames.Frame, pc int) (int, interface{}, bool, error) {
	modified := f.Meth[pc+1]
	idx := u16(f, pc+1)
	switch modified {
	case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD:
		f.PushOperand(f.Locals[idx])
		return pc + 4, nil, false, nil
	case ISTORE, LSTORE, FSTORE, DSTORE, ASTORE:
		f.Locals[idx] = f.PopOperand()
		return pc + 4, nil, false, nil
	case IINC:
		delta := int64(int16(u16(f, pc+3)))
		f.Locals[idx] = toInt64(f.Locals[idx]) + delta
		return pc + 6, nil, false, nil
	default:
		return 0, nil, false, unimplementedOpcode(modified, pc, f.ClName, f.MethName)
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func toFloat32(v interface{}) float32 {
	switch n := v.(type) {
	case float32:
		return n
	case float64:
		return float32(n)
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}

func cmp(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// fcmp implements the CMPG/CMPL pair's NaN handling: CMPG pushes 1 when
// either operand is NaN, CMPL pushes -1.
func fcmp(a, b float64, isG bool) int {
	if math.IsNaN(a) || math.IsNaN(b) {
		if isG {
			return 1
		}
		return -1
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func branchTaken1(op byte, v int64) bool {
	switch op {
	case IFEQ:
		return v == 0
	case IFNE:
		return v != 0
	case IFLT:
		return v < 0
	case IFGE:
		return v >= 0
	case IFGT:
		return v > 0
	case IFLE:
		return v <= 0
	}
	return false
}

func branchTaken2(op byte, a, b int64) bool {
	switch op {
	case IF_ICMPEQ:
		return a == b
	case IF_ICMPNE:
		return a != b
	case IF_ICMPLT:
		return a < b
	case IF_ICMPGE:
		return a >= b
	case IF_ICMPGT:
		return a > b
	case IF_ICMPLE:
		return a <= b
	}
	return false
}

// resolveLdc fetches a loadable constant (int, float, long, double, or
// String) straight out of the constant pool via classloader.FetchCPentry,
// boxing it into this interpreter's operand-stack representation.
func resolveLdc(cp *classloader.CPool, idx int) interface{} {
	entry := classloader.FetchCPentry(cp, idx)
	switch entry.RetType {
	case classloader.IS_INT64:
		return entry.IntVal
	case classloader.IS_FLOAT64:
		return entry.FloatVal
	case classloader.IS_STRING_ADDR:
		return object.StringObjectFromGoString(*entry.StringVal)
	default:
		return nil
	}
}

// resolveQuickField decodes a get/putfield/static operand's fieldref CP
// index into a quickRef, caching the decode in the frame's PreparedCode so
// repeated execution of the same instruction (a field access inside a
// loop) skips constant-pool decoding after the first pass.
func resolveQuickField(f *frames.Frame, pc int) (quickRef, error) {
	pcode := ensurePrepared(f)
	if ref, ok := quickened(pcode, pc); ok {
		return ref, nil
	}
	cpIdx := u16(f, pc)
	className, fieldName, fieldDesc := resolveFieldRef(f.CP, cpIdx)
	if className == "" {
		return quickRef{}, throwException(excNames.NoSuchFieldError, "unresolved fieldref")
	}
	ref := quickRef{ClassName: className, Name: fieldName, Desc: fieldDesc}
	quicken(pcode, pc, ref)
	return ref, nil
}

type invokeKind int

const (
	invokeKindStatic invokeKind = iota
	invokeKindSpecial
	invokeKindVirtual
	invokeKindInterface
)

// invokeAt decodes the methodref at pc, pops its arguments (plus the
// receiver for anything but a static call), and dispatches through
// invokeMethod. Virtual/interface calls re-resolve against the receiver's
// actual runtime class so an overriding subclass method is the one that
// runs; this is a single vtable-key lookup rather than JVMS's full
// maximally-specific-method search, documented as a deliberate
// simplification in DESIGN.md.
func invokeAt(fs *list.List, f *frames.Frame, pc int, kind invokeKind) (int, interface{}, bool, error) {
	pcode := ensurePrepared(f)
	var className, methName, methDesc string
	if ref, ok := quickened(pcode, pc); ok {
		className, methName, methDesc = ref.ClassName, ref.Name, ref.Desc
	} else {
		cpIdx := u16(f, pc)
		className, methName, methDesc = resolveMethodRef(f.CP, cpIdx)
		if className == "" {
			return 0, nil, false, throwException(excNames.NoSuchMethodError, "unresolved methodref")
		}
		quicken(pcode, pc, quickRef{ClassName: className, Name: methName, Desc: methDesc})
	}

	nargs := util.CountParams(methDesc)
	args := make([]interface{}, nargs)
	for i := nargs - 1; i >= 0; i-- {
		args[i] = f.PopOperand()
	}

	isStatic := kind == invokeKindStatic
	if !isStatic {
		receiver, _ := f.PopOperand().(*object.Object)
		if receiver == nil {
			return 0, nil, false, throwException(excNames.NullPointerException,
				className+"."+methName+methDesc)
		}
		if kind == invokeKindVirtual || kind == invokeKindInterface {
			if receiver.ClassName() != "" {
				className = receiver.ClassName()
			}
		}
		full := make([]interface{}, 0, len(args)+1)
		full = append(full, receiver)
		full = append(full, args...)
		args = full
	}

	retVal, err := invokeMethod(fs, className, methName, methDesc, args, isStatic)
	if err != nil {
		return 0, nil, false, err
	}
	if retVal != nil {
		f.PushOperand(retVal)
	}
	return pc + 3, nil, false, nil
}

// newPrimitiveArray builds the backing Go slice and wrapper *object.Object
// for a newarray instruction's atype operand (JVMS Table 6.5.newarray-A).
func newPrimitiveArray(atype int, count int) *object.Object {
	const (
		tBoolean = 4
		tChar    = 5
		tFloat   = 6
		tDouble  = 7
		tByte    = 8
		tShort   = 9
		tInt     = 10
		tLong    = 11
	)
	var desc string
	var value interface{}
	switch atype {
	case tBoolean:
		desc, value = "[Z", make([]int64, count)
	case tChar:
		desc, value = "[C", make([]int64, count)
	case tFloat:
		desc, value = "[F", make([]float32, count)
	case tDouble:
		desc, value = "[D", make([]float64, count)
	case tByte:
		desc, value = "[B", make([]byte, count)
	case tShort:
		desc, value = "[S", make([]int64, count)
	case tInt:
		desc, value = types.IntArray, make([]int64, count)
	case tLong:
		desc, value = "[J", make([]int64, count)
	default:
		desc, value = "[I", make([]int64, count)
	}
	arr := object.MakeEmptyObject()
	arr.KlassName = stringPool.GetStringIndex(desc)
	arr.SetField("value", desc, value)
	return arr
}

// arrayLength reports the element count of an array wrapper object built
// by newPrimitiveArray/ANEWARRAY, regardless of which backing slice type
// it holds.
func arrayLength(obj *object.Object) (int, error) {
	if obj == nil {
		return 0, throwException(excNames.NullPointerException, "arraylength on null reference")
	}
	f, ok := obj.FieldTable["value"]
	if !ok {
		return 0, throwException(excNames.NullPointerException, "not an array")
	}
	switch v := f.Fvalue.(type) {
	case []int64:
		return len(v), nil
	case []float32:
		return len(v), nil
	case []float64:
		return len(v), nil
	case []byte:
		return len(v), nil
	case []*object.Object:
		return len(v), nil
	default:
		return 0, nil
	}
}

// athrowFromObject converts an already-constructed exception/error object
// (one built by throwException, or by a future `new` + `invokespecial
// <init>` sequence this interpreter doesn't yet model in full) back into
// the javaThrow error value runFrame's unwinder expects.
func athrowFromObject(obj *object.Object) error {
	if obj == nil {
		return throwException(excNames.NullPointerException, "athrow with null reference")
	}
	msg := ""
	if f, ok := obj.FieldTable["detailMessage"]; ok {
		if b, ok := f.Fvalue.([]byte); ok {
			msg = string(b)
		}
	}
	return &javaThrow{ClassName: obj.ClassName(), Message: msg, Obj: obj}
}
