/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

// Klass is the method-area entry for a class: its lifecycle status plus a
// pointer to the postable, space-trimmed class data. Status letters mirror
// the class-file-to-runtime pipeline of spec.md §4.1: I(nitializing the
// load) -> F(ormat-checked) -> V(erified) -> L(inked) -> N(instantiated,
// i.e. initialized) | B(ad).
type Klass struct {
	Status byte
	Loader string
	Data   *ClData
}

// class states, paralleling spec.md §3's Class state machine
// (LOADED -> LINKED -> INITING -> INITED | BAD), expressed with the
// teacher's single-byte Status convention.
const (
	StatusInitializing = byte('I')
	StatusFormatChecked = byte('F')
	StatusVerified      = byte('V')
	StatusLinked        = byte('L')
	StatusInstantiated  = byte('N')
	StatusBad           = byte('B')
)

// ClData is the "postable" runtime class representation: the parsed class,
// copied into tighter (mostly uint16) fields suitable for long-term
// residency in the method area. Everything method-preparation and linking
// add (method table index, reference-offset ranges, interface dispatch
// table) lives alongside the raw parsed data added here.
type ClData struct {
	Name            string
	NameIndex       uint32
	Superclass      string
	SuperclassIndex uint32
	Module          string
	Pkg             string
	Interfaces      []uint16 // string-pool indices of the implemented interfaces' names
	Fields          []Field
	MethodTable     map[string]*Method // key: name+descriptor
	Methods         []Method
	Attributes      []Attr
	SourceFile      string
	Bootstraps      []BootstrapMethod
	CP              CPool
	Access          AccessFlags
	ClInit          byte // types.NoClinit / ClInitNotRun / ClInitInProgress / ClInitRun

	// ---- populated by Link(), not by the parser ----
	Linked           bool
	ObjectSize       int              // total instance-field slot count, this class and all supers
	FieldOffsets     map[string]int   // instance field name -> slot index (reference-offset list stand-in)
	StaticValues     map[string]*StaticSlot
	MethodTableIndex map[string]int  // name+desc -> virtual dispatch slot
	VTable           []*Method        // virtual dispatch table, indexed by MethodTableIndex
	IfaceTables      []IfaceMethodTable
	IsReferenceClass bool // java.lang.ref.Reference or a subclass
	IsClassLoader    bool
	SuperclassPtr    *Klass
}

// StaticSlot backs a static field's single, class-wide storage word.
type StaticSlot struct {
	Ftype string
	Value interface{}
}

// IfaceMethodTable is one entry of spec.md §3's ClassBlock
// "interface-method table (array of {interface_class, offsets_ptr} entries
// used for O(k) interface dispatch with a last-used cache)".
type IfaceMethodTable struct {
	InterfaceName string
	// Offsets[i] is this class's VTable index satisfying the i-th method of
	// the interface (in the interface's own declared order); -1 marks a
	// miranda method (spec.md glossary).
	Offsets []int
}

type AccessFlags struct {
	ClassIsPublic     bool
	ClassIsFinal      bool
	ClassIsSuper      bool
	ClassIsInterface  bool
	ClassIsAbstract   bool
	ClassIsSynthetic  bool
	ClassIsAnnotation bool
	ClassIsEnum       bool
	ClassIsModule     bool
}

type Field struct {
	AccessFlags int
	Name        uint16
	Desc        uint16
	IsStatic    bool
	Attributes  []Attr
}

// Method is the runtime method record of spec.md §3; it mirrors the Code
// attribute 1:1. It holds no Go function for a native method: natives are
// dispatched through the JVM-wide MTable, and the loader leaves
// GoMethodName empty.
type Method struct {
	AccessFlags int
	Name        uint16
	Desc        uint16
	CodeAttr    CodeAttrib
	Attributes  []Attr
	Exceptions  []uint16
	Parameters  []ParamAttrib
	Deprecated  bool

	// ---- populated by Link() ----
	MethodTableIndex int
	IsNative         bool
	GoMethodName     string // fully-qualified "class.name(desc)" key into gfunction.MethodSignatures
	ParamSlots       int
}

type CodeAttrib struct {
	MaxStack          int
	MaxLocals         int
	Code              []byte
	Exceptions        []CodeException
	Attributes        []Attr
	BytecodeSourceMap []BytecodeToSourceLine

	// Prepared is not filled in by the loader or the interpreter and stays
	// nil: the interpreter keeps its PreparedCode per frame, in
	// frames.Frame.Prepared.
	Prepared *PreparedCode
}

// BytecodeToSourceLine is one row of the LineNumberTable attribute.
type BytecodeToSourceLine struct {
	Bytecode int
	SourceLine int
}

type ParamAttrib struct {
	Name        string
	AccessFlags int
}

type Attr struct {
	AttrName    uint16
	AttrSize    int
	AttrContent []byte
}

type CodeException struct {
	StartPc   int
	EndPc     int
	HandlerPc int
	CatchType uint16
}

type BootstrapMethod struct {
	MethodRef uint16
	Args      []uint16
}

// ==== Constant pool runtime structs, in order by JVMS tag value ====

type CpEntry struct {
	Type uint16
	Slot uint16
}

type CPool struct {
	CpIndex        []CpEntry
	ClassRefs      []uint16
	Doubles        []float64
	Dynamics       []DynamicEntry
	FieldRefs      []FieldRefEntry
	Floats         []float32
	IntConsts      []int32
	InterfaceRefs  []InterfaceRefEntry
	InvokeDynamics []InvokeDynamicEntry
	LongConsts     []int64
	MethodHandles  []MethodHandleEntry
	MethodRefs     []MethodRefEntry
	MethodTypes    []uint16
	NameAndTypes   []NameAndTypeEntry
	Utf8Refs       []string
}

type FieldRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16
}

type MethodRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16
}

type InterfaceRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16
}

type NameAndTypeEntry struct {
	NameIndex uint16
	DescIndex uint16
}

type MethodHandleEntry struct {
	RefKind  uint16
	RefIndex uint16
}

type DynamicEntry struct {
	BootstrapIndex uint16
	NameAndType    uint16
}

type InvokeDynamicEntry struct {
	BootstrapIndex uint16
	NameAndType    uint16
}
